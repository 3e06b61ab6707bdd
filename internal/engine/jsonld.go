package engine

import (
	"bytes"
	"encoding/json"
	"time"

	"dataspace-connector/internal/metadata"
)

const (
	TypeAsset              = "Asset"
	TypeDataAddress        = "DataAddress"
	TypePolicyDefinition   = "PolicyDefinition"
	TypeContractDefinition = "ContractDefinition"
	TypeCriterion          = "Criterion"
	TypeIDResponse         = "IdResponse"
	TypeQuerySpec          = "QuerySpec"
	TypeCatalog            = "dcat:Catalog"
	TypeDataset            = "dcat:Dataset"
	TypeOffer              = "odrl:Offer"
)

// defaultContext is attached to every top-level response body.
var defaultContext = map[string]any{
	"@vocab": metadata.EDCNamespace,
	"edc":    metadata.EDCNamespace,
	"odrl":   "http://www.w3.org/ns/odrl/2/",
	"dcat":   "http://www.w3.org/ns/dcat#",
}

type idResponse struct {
	Type      string `json:"@type"`
	ID        string `json:"@id"`
	CreatedAt int64  `json:"createdAt"`
}

func newIDResponse(id string) idResponse {
	return idResponse{Type: TypeIDResponse, ID: id, CreatedAt: time.Now().UnixMilli()}
}

type assetJSON struct {
	Context     any            `json:"@context,omitempty"`
	ID          string         `json:"@id"`
	Type        string         `json:"@type,omitempty"`
	Properties  map[string]any `json:"properties"`
	DataAddress map[string]any `json:"dataAddress"`
}

func encodeAsset(a metadata.Asset) any {
	props := a.Properties
	if props == nil {
		props = map[string]any{}
	}
	return assetJSON{
		Context:     defaultContext,
		ID:          a.ID,
		Type:        TypeAsset,
		Properties:  props,
		DataAddress: encodeDataAddress(a.DataAddress),
	}
}

func (j assetJSON) asset() metadata.Asset {
	return metadata.Asset{
		ID:          j.ID,
		Properties:  j.Properties,
		DataAddress: decodeDataAddress(j.DataAddress),
	}
}

// The wire form of a data address is flat: its type sits beside the
// free-form properties.
func encodeDataAddress(d metadata.DataAddress) map[string]any {
	out := make(map[string]any, len(d.Properties)+2)
	for k, v := range d.Properties {
		out[k] = v
	}
	out["@type"] = TypeDataAddress
	out["type"] = d.Type
	return out
}

func decodeDataAddress(m map[string]any) metadata.DataAddress {
	var d metadata.DataAddress
	for k, v := range m {
		switch {
		case k == "@type":
		case metadata.ShortName(k) == "type":
			d.Type, _ = v.(string)
		default:
			if d.Properties == nil {
				d.Properties = make(map[string]any)
			}
			d.Properties[k] = v
		}
	}
	return d
}

type policyDefinitionJSON struct {
	Context           any             `json:"@context,omitempty"`
	ID                string          `json:"@id"`
	Type              string          `json:"@type,omitempty"`
	Policy            metadata.Policy `json:"policy"`
	PrivateProperties map[string]any  `json:"privateProperties,omitempty"`
}

func encodePolicyDefinition(d metadata.PolicyDefinition) any {
	return policyDefinitionJSON{
		Context:           defaultContext,
		ID:                d.ID,
		Type:              TypePolicyDefinition,
		Policy:            withPolicyType(d.Policy),
		PrivateProperties: d.PrivateProperties,
	}
}

func (j policyDefinitionJSON) policyDefinition() metadata.PolicyDefinition {
	return metadata.PolicyDefinition{
		ID:                j.ID,
		Policy:            withPolicyType(j.Policy),
		PrivateProperties: j.PrivateProperties,
	}
}

func withPolicyType(p metadata.Policy) metadata.Policy {
	if p.Type == "" {
		p.Type = metadata.PolicyTypeSet
	}
	return p
}

type criterionJSON struct {
	Type         string `json:"@type,omitempty"`
	OperandLeft  string `json:"operandLeft"`
	Operator     string `json:"operator"`
	OperandRight any    `json:"operandRight"`
}

// criteriaJSON accepts either a single criterion object or an array, since
// compacted JSON-LD collapses one-element arrays.
type criteriaJSON []criterionJSON

func (c *criteriaJSON) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one criterionJSON
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*c = criteriaJSON{one}
		return nil
	}
	var many []criterionJSON
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

func encodeCriteria(criteria []metadata.Criterion) criteriaJSON {
	out := make(criteriaJSON, len(criteria))
	for i, c := range criteria {
		out[i] = criterionJSON{
			Type:         TypeCriterion,
			OperandLeft:  c.OperandLeft,
			Operator:     c.Operator,
			OperandRight: c.OperandRight,
		}
	}
	return out
}

func (c criteriaJSON) criteria() []metadata.Criterion {
	if c == nil {
		return nil
	}
	out := make([]metadata.Criterion, len(c))
	for i, j := range c {
		out[i] = metadata.NewCriterion(j.OperandLeft, j.Operator, j.OperandRight)
	}
	return out
}

type contractDefinitionJSON struct {
	Context           any            `json:"@context,omitempty"`
	ID                string         `json:"@id"`
	Type              string         `json:"@type,omitempty"`
	AccessPolicyID    string         `json:"accessPolicyId"`
	ContractPolicyID  string         `json:"contractPolicyId"`
	AssetsSelector    criteriaJSON   `json:"assetsSelector"`
	PrivateProperties map[string]any `json:"privateProperties,omitempty"`
}

func encodeContractDefinition(d metadata.ContractDefinition) any {
	return contractDefinitionJSON{
		Context:           defaultContext,
		ID:                d.ID,
		Type:              TypeContractDefinition,
		AccessPolicyID:    d.AccessPolicyID,
		ContractPolicyID:  d.ContractPolicyID,
		AssetsSelector:    encodeCriteria(d.AssetsSelector),
		PrivateProperties: d.PrivateProperties,
	}
}

func (j contractDefinitionJSON) contractDefinition() metadata.ContractDefinition {
	return metadata.ContractDefinition{
		ID:                j.ID,
		AccessPolicyID:    j.AccessPolicyID,
		ContractPolicyID:  j.ContractPolicyID,
		AssetsSelector:    j.AssetsSelector.criteria(),
		PrivateProperties: j.PrivateProperties,
	}
}

type querySpecJSON struct {
	Type             string       `json:"@type,omitempty"`
	Offset           int          `json:"offset"`
	Limit            int          `json:"limit"`
	SortField        string       `json:"sortField,omitempty"`
	SortOrder        string       `json:"sortOrder,omitempty"`
	FilterExpression criteriaJSON `json:"filterExpression,omitempty"`
}

type catalogRequestJSON struct {
	QuerySpec *querySpecJSON `json:"querySpec,omitempty"`
}

type datasetRequestJSON struct {
	ID string `json:"@id"`
}

type offerJSON struct {
	ID                   string          `json:"@id"`
	Type                 string          `json:"@type"`
	ContractDefinitionID string          `json:"contractDefinitionId"`
	AccessPolicyID       string          `json:"accessPolicyId"`
	ContractPolicyID     string          `json:"contractPolicyId"`
	Policy               metadata.Policy `json:"policy"`
}

type datasetJSON struct {
	Context    any            `json:"@context,omitempty"`
	ID         string         `json:"@id"`
	Type       string         `json:"@type"`
	Properties map[string]any `json:"properties"`
	HasPolicy  []offerJSON    `json:"odrl:hasPolicy"`
}

type catalogJSON struct {
	Context  any           `json:"@context"`
	Type     string        `json:"@type"`
	Datasets []datasetJSON `json:"dcat:dataset"`
}

func encodeDataset(d Dataset) datasetJSON {
	props := d.Asset.Properties
	if props == nil {
		props = map[string]any{}
	}
	offers := make([]offerJSON, len(d.Offers))
	for i, o := range d.Offers {
		offers[i] = offerJSON{
			ID:                   OfferID(o.Definition.ID, d.Asset.ID),
			Type:                 TypeOffer,
			ContractDefinitionID: o.Definition.ID,
			AccessPolicyID:       o.AccessPolicy.ID,
			ContractPolicyID:     o.ContractPolicy.ID,
			Policy:               withPolicyType(o.ContractPolicy.Policy),
		}
	}
	return datasetJSON{
		ID:         d.Asset.ID,
		Type:       TypeDataset,
		Properties: props,
		HasPolicy:  offers,
	}
}

func encodeCatalog(datasets []Dataset) catalogJSON {
	out := catalogJSON{
		Context:  defaultContext,
		Type:     TypeCatalog,
		Datasets: make([]datasetJSON, len(datasets)),
	}
	for i, d := range datasets {
		out.Datasets[i] = encodeDataset(d)
	}
	return out
}
