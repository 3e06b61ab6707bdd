package engine

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"dataspace-connector/internal/instrument"
	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/query"
	"dataspace-connector/internal/store"
)

// resource serves the keyed CRUD and query endpoints of one repository.
type resource[T metadata.Record[T]] struct {
	kind    string
	repo    store.Repository[T]
	monitor instrument.Monitor

	// decode reads an entity from the request body. A body without an id is
	// given fallbackID.
	decode func(c *fiber.Ctx, fallbackID string) (T, error)
	encode func(T) any
	// check rejects entities the API must not accept even though the store would.
	check func(T) error
}

// Get handles GET /:id
func (r *resource[T]) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	e, err := r.repo.Get(c.UserContext(), id)
	if err != nil {
		return storeError(r.kind, id, err)
	}
	return c.JSON(r.encode(e))
}

// Create handles POST /
func (r *resource[T]) Create(c *fiber.Ctx) error {
	e, err := r.decode(c, uuid.NewString())
	if err != nil {
		return err
	}
	if err := r.checked(e); err != nil {
		return err
	}
	if err := r.repo.Create(c.UserContext(), e); err != nil {
		return storeError(r.kind, e.EntityID(), err)
	}
	r.monitor.Info(r.kind+" created", "id", e.EntityID(), "trace_id", instrument.TraceID(c.UserContext()))
	return c.JSON(newIDResponse(e.EntityID()))
}

// Update handles PUT /:id and PUT / (id taken from the body).
func (r *resource[T]) Update(c *fiber.Ctx) error {
	pathID := c.Params("id")
	e, err := r.decode(c, pathID)
	if err != nil {
		return err
	}
	id := pathID
	if id == "" {
		id = e.EntityID()
	}
	if id == "" {
		return InvalidPayloadError("@id is required")
	}
	if e.EntityID() != id {
		return IDMismatchError(id, e.EntityID())
	}
	if err := r.checked(e); err != nil {
		return err
	}
	if err := r.repo.Update(c.UserContext(), id, e); err != nil {
		return storeError(r.kind, id, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete handles DELETE /:id
func (r *resource[T]) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := r.repo.Delete(c.UserContext(), id); err != nil {
		return storeError(r.kind, id, err)
	}
	r.monitor.Info(r.kind+" deleted", "id", id, "trace_id", instrument.TraceID(c.UserContext()))
	return c.SendStatus(fiber.StatusNoContent)
}

// Query handles POST /request
func (r *resource[T]) Query(c *fiber.Ctx) error {
	spec, err := ParseQuerySpec(c)
	if err != nil {
		return err
	}
	items, err := query.Collect(r.repo.Query(c.UserContext(), spec.Filter), spec)
	if err != nil {
		return storeError(r.kind, "", err)
	}
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = r.encode(e)
	}
	return c.JSON(out)
}

func (r *resource[T]) checked(e T) error {
	if r.check == nil {
		return nil
	}
	return r.check(e)
}

// Handler serves the management API.
type Handler struct {
	stores  *store.Stores
	matcher *CatalogMatcher

	assets    *resource[metadata.Asset]
	policies  *resource[metadata.PolicyDefinition]
	contracts *resource[metadata.ContractDefinition]
}

func NewHandler(stores *store.Stores, matcher *CatalogMatcher, m instrument.Monitor) *Handler {
	m = instrument.OrNoop(m)
	return &Handler{
		stores:  stores,
		matcher: matcher,
		assets: &resource[metadata.Asset]{
			kind:    "asset",
			repo:    stores.Assets,
			monitor: m,
			decode:  decodeAsset,
			encode:  encodeAsset,
		},
		policies: &resource[metadata.PolicyDefinition]{
			kind:    "policy definition",
			repo:    stores.Policies,
			monitor: m,
			decode:  decodePolicyDefinition,
			encode:  encodePolicyDefinition,
		},
		contracts: &resource[metadata.ContractDefinition]{
			kind:    "contract definition",
			repo:    stores.ContractDefinitions,
			monitor: m,
			decode:  decodeContractDefinition,
			encode:  encodeContractDefinition,
			check:   checkContractDefinition,
		},
	}
}

func decodeAsset(c *fiber.Ctx, fallbackID string) (metadata.Asset, error) {
	var j assetJSON
	if err := decodeBody(c, &j); err != nil {
		return metadata.Asset{}, err
	}
	if j.ID == "" {
		j.ID = fallbackID
	}
	return j.asset(), nil
}

func decodePolicyDefinition(c *fiber.Ctx, fallbackID string) (metadata.PolicyDefinition, error) {
	var j policyDefinitionJSON
	if err := decodeBody(c, &j); err != nil {
		return metadata.PolicyDefinition{}, err
	}
	if j.ID == "" {
		j.ID = fallbackID
	}
	return j.policyDefinition(), nil
}

func decodeContractDefinition(c *fiber.Ctx, fallbackID string) (metadata.ContractDefinition, error) {
	var j contractDefinitionJSON
	if err := decodeBody(c, &j); err != nil {
		return metadata.ContractDefinition{}, err
	}
	if j.ID == "" {
		j.ID = fallbackID
	}
	return j.contractDefinition(), nil
}

// checkContractDefinition rejects selectors the evaluator cannot run, so a
// stored definition never has to be skipped for that reason.
func checkContractDefinition(d metadata.ContractDefinition) error {
	var details []ErrorDetail
	for _, c := range d.AssetsSelector {
		if !query.IsSupported(c.Operator) {
			details = append(details, ErrorDetail{
				Field:   "assetsSelector",
				Rule:    "operator",
				Message: "unsupported operator " + c.Operator + " in criterion " + c.String(),
			})
		}
	}
	if len(details) > 0 {
		return ValidationError(details)
	}
	return nil
}
