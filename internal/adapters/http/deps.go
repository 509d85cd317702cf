package http

import (
	natsadapter "github.com/posterforge/posterforge/internal/adapters/nats"
	"github.com/posterforge/posterforge/internal/adapters/valkey"
	"github.com/posterforge/posterforge/internal/core/ports"
	"github.com/posterforge/posterforge/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. NATS and Cache
// are optional: handlers and readiness checks tolerate nil.
type Dependencies struct {
	Posters   *usecases.PosterService
	Locations ports.LocationSearcher
	Cache     *valkey.Cache
	NATS      *natsadapter.Publisher
}
