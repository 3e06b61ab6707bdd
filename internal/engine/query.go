package engine

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"dataspace-connector/internal/query"
)

// decodeBody unmarshals the request body into dst. An empty body is an error.
func decodeBody(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(body) == 0 {
		return InvalidPayloadError("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return InvalidPayloadError("invalid JSON body: " + err.Error())
	}
	return nil
}

// ParseQuerySpec reads a QuerySpec body. A missing body selects the first
// page of everything.
func ParseQuerySpec(c *fiber.Ctx) (query.Spec, error) {
	if len(c.Body()) == 0 {
		return query.Spec{}.Normalize(), nil
	}
	var j querySpecJSON
	if err := decodeBody(c, &j); err != nil {
		return query.Spec{}, err
	}
	return buildSpec(&j)
}

func buildSpec(j *querySpecJSON) (query.Spec, error) {
	if j == nil {
		return query.Spec{}.Normalize(), nil
	}
	if j.Offset < 0 {
		return query.Spec{}, InvalidPayloadError("offset must not be negative")
	}
	if j.Limit < 0 {
		return query.Spec{}, InvalidPayloadError("limit must not be negative")
	}
	spec := query.Spec{
		Offset:    j.Offset,
		Limit:     j.Limit,
		SortField: j.SortField,
		SortOrder: j.SortOrder,
		Filter:    j.FilterExpression.criteria(),
	}
	if err := query.Validate(spec.Filter); err != nil {
		return query.Spec{}, UnsupportedOperatorError(err)
	}
	return spec.Normalize(), nil
}
