package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"dataspace-connector/internal/store"
)

// CatalogRequest handles POST /v3/catalog/request
func (h *Handler) CatalogRequest(c *fiber.Ctx) error {
	var req catalogRequestJSON
	if len(c.Body()) > 0 {
		if err := decodeBody(c, &req); err != nil {
			return err
		}
	}
	spec, err := buildSpec(req.QuerySpec)
	if err != nil {
		return err
	}
	datasets, err := h.matcher.Catalog(c.UserContext(), h.stores.Assets, spec)
	if err != nil {
		return storeError("asset", "", err)
	}
	return c.JSON(encodeCatalog(datasets))
}

// DatasetRequest handles POST /v3/catalog/dataset/request
func (h *Handler) DatasetRequest(c *fiber.Ctx) error {
	var req datasetRequestJSON
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.ID == "" {
		return InvalidPayloadError("@id is required")
	}
	d, err := h.matcher.Dataset(c.UserContext(), h.stores.Assets, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("asset", req.ID)
		}
		return err
	}
	out := encodeDataset(d)
	out.Context = defaultContext
	return c.JSON(out)
}

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "store": h.stores.Driver()})
}
