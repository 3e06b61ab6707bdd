package engine

import "github.com/gofiber/fiber/v2"

// crudRoutes is implemented by every resource[T].
type crudRoutes interface {
	Get(*fiber.Ctx) error
	Create(*fiber.Ctx) error
	Update(*fiber.Ctx) error
	Delete(*fiber.Ctx) error
	Query(*fiber.Ctx) error
}

func RegisterManagementRoutes(app *fiber.App, basePath string, h *Handler) {
	app.Get("/health", h.Health)

	v3 := app.Group(basePath + "/v3")

	registerResource(v3.Group("/assets"), h.assets)
	registerResource(v3.Group("/policydefinitions"), h.policies)
	registerResource(v3.Group("/contractdefinitions"), h.contracts)

	v3.Post("/catalog/request", h.CatalogRequest)
	v3.Post("/catalog/dataset/request", h.DatasetRequest)
}

func registerResource(g fiber.Router, r crudRoutes) {
	g.Post("/request", r.Query)
	g.Post("", r.Create)
	g.Put("", r.Update)
	g.Get("/:id", r.Get)
	g.Put("/:id", r.Update)
	g.Delete("/:id", r.Delete)
}
