package http

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// CreatePosterResponse acknowledges an accepted generation job.
type CreatePosterResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	EstimatedTime int    `json:"estimated_time"` // seconds
}

// CreatePosterHandler accepts a poster generation request and queues a job.
func CreatePosterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PosterRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		snap, err := deps.Posters.Submit(c.Context(), req)
		if err != nil {
			return domainError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(CreatePosterResponse{
			JobID:         snap.JobID,
			Status:        string(snap.Status),
			EstimatedTime: deps.Posters.EstimateSeconds(req.Distance),
		})
	}
}

// GetPosterStatusHandler returns the current snapshot of a job.
func GetPosterStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Posters.Status(c.Params("id"))
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(snap)
	}
}

type rerenderRequest struct {
	Theme string `json:"theme"`
}

// RerenderPosterHandler queues a new job that re-renders an existing
// poster with a different theme, reusing cached map data when available.
func RerenderPosterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req rerenderRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Theme == "" {
			return errBadRequest(c, "theme is required")
		}

		snap, err := deps.Posters.Rerender(c.Context(), c.Params("id"), req.Theme)
		if err != nil {
			return domainError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(CreatePosterResponse{
			JobID:         snap.JobID,
			Status:        string(snap.Status),
			EstimatedTime: deps.Posters.RerenderEstimateSeconds(),
		})
	}
}

// DownloadPosterHandler serves the finished poster PNG as an attachment
// named after the city and theme.
func DownloadPosterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path, req, err := deps.Posters.Download(c.Params("id"))
		if err != nil {
			return domainError(c, err)
		}
		filename := sanitizeFilename(req.City) + "_" + sanitizeFilename(req.Theme) + ".png"
		return c.Download(path, filename)
	}
}

// ThemeInfo is the wire form of a theme palette.
type ThemeInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Background    string `json:"bg"`
	Text          string `json:"text"`
	GradientColor string `json:"gradient_color"`
	Water         string `json:"water"`
	Parks         string `json:"parks"`
	RoadMotorway  string `json:"road_motorway,omitempty"`
	RoadPrimary   string `json:"road_primary,omitempty"`
	RoadDefault   string `json:"road_default,omitempty"`
}

// ListThemesHandler returns all available themes sorted by name.
func ListThemesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		themes, err := deps.Posters.Themes()
		if err != nil {
			return errInternal(c, err.Error())
		}

		infos := make([]ThemeInfo, 0, len(themes))
		for _, t := range themes {
			infos = append(infos, themeInfo(t))
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fiber.Map{
			"themes": infos,
			"count":  len(infos),
		})
	}
}

// GetThemeHandler returns a single theme by name.
func GetThemeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := deps.Posters.Theme(c.Params("name"))
		if err != nil {
			return domainError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(themeInfo(t))
	}
}

// SearchLocationsHandler proxies free-text place search for the UI's
// location picker.
func SearchLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "query parameter q is required")
		}
		limit := c.QueryInt("limit", 5)
		if limit <= 0 || limit > 20 {
			limit = 5
		}

		results, err := deps.Locations.Search(c.Context(), query, limit)
		if err != nil {
			return domainError(c, err)
		}

		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}

func themeInfo(t *domain.Theme) ThemeInfo {
	info := ThemeInfo{
		ID:            t.Name,
		Name:          t.Name,
		Description:   t.Description,
		Background:    hexColor(t.Background),
		Text:          hexColor(t.Text),
		GradientColor: hexColor(t.Gradient),
		Water:         hexColor(t.Water),
		Parks:         hexColor(t.Parks),
		RoadDefault:   hexColor(t.RoadDefault),
	}
	if col, ok := t.Roads[domain.RoadMotorway]; ok {
		info.RoadMotorway = hexColor(col)
	}
	if col, ok := t.Roads[domain.RoadPrimary]; ok {
		info.RoadPrimary = hexColor(col)
	}
	return info
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// sanitizeFilename keeps alphanumerics, dashes and underscores, replacing
// everything else with an underscore.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
