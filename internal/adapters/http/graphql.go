package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services. It exposes
// read-only queries; mutations go through the REST endpoints.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	themeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Theme",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"description":    &graphql.Field{Type: graphql.String},
			"bg":             &graphql.Field{Type: graphql.String},
			"text":           &graphql.Field{Type: graphql.String},
			"gradient_color": &graphql.Field{Type: graphql.String},
			"water":          &graphql.Field{Type: graphql.String},
			"parks":          &graphql.Field{Type: graphql.String},
			"road_default":   &graphql.Field{Type: graphql.String},
		},
	})

	jobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Job",
		Fields: graphql.Fields{
			"job_id":       &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
			"progress":     &graphql.Field{Type: graphql.Float},
			"percent":      &graphql.Field{Type: graphql.Int},
			"step":         &graphql.Field{Type: graphql.String},
			"message":      &graphql.Field{Type: graphql.String},
			"download_url": &graphql.Field{Type: graphql.String},
			"error":        &graphql.Field{Type: graphql.String},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"display_name": &graphql.Field{Type: graphql.String},
			"lat":          &graphql.Field{Type: graphql.Float},
			"lon":          &graphql.Field{Type: graphql.Float},
			"city":         &graphql.Field{Type: graphql.String},
			"country":      &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"themes": &graphql.Field{
				Type:        graphql.NewList(themeType),
				Description: "List all available poster themes",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					themes, err := deps.Posters.Themes()
					if err != nil {
						return nil, err
					}
					infos := make([]ThemeInfo, 0, len(themes))
					for _, t := range themes {
						infos = append(infos, themeInfo(t))
					}
					return infos, nil
				},
			},
			"theme": &graphql.Field{
				Type:        themeType,
				Description: "Get a theme by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name := p.Args["name"].(string)
					t, err := deps.Posters.Theme(name)
					if err != nil {
						return nil, err
					}
					return themeInfo(t), nil
				},
			},
			"job": &graphql.Field{
				Type:        jobType,
				Description: "Get the current status of a generation job",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Posters.Status(id)
				},
			},
			"searchLocations": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Free-text place search",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					query := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Locations.Search(p.Context, query, limit)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
