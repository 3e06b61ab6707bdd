package metadata

import "strings"

const (
	PropertyAccessPolicyID   = "accessPolicyId"
	PropertyContractPolicyID = "contractPolicyId"
)

// ContractDefinition links an asset selector to an access policy and a
// contract policy. Policy ids are weak references: they are never checked for
// existence when the definition is written.
type ContractDefinition struct {
	ID                string         `json:"id" yaml:"id"`
	AccessPolicyID    string         `json:"accessPolicyId" yaml:"accessPolicyId"`
	ContractPolicyID  string         `json:"contractPolicyId" yaml:"contractPolicyId"`
	AssetsSelector    []Criterion    `json:"assetsSelector,omitempty" yaml:"assetsSelector,omitempty"`
	PrivateProperties map[string]any `json:"privateProperties,omitempty" yaml:"privateProperties,omitempty"`
}

func (d ContractDefinition) EntityID() string { return d.ID }

// Property exposes both policy ids, then the private properties.
func (d ContractDefinition) Property(key string) (any, bool) {
	switch ShortName(key) {
	case PropertyAccessPolicyID:
		return d.AccessPolicyID, true
	case PropertyContractPolicyID:
		return d.ContractPolicyID, true
	}
	return lookupProperty(d.PrivateProperties, key)
}

func (d ContractDefinition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return invalid("contract definition id must not be empty")
	}
	if strings.TrimSpace(d.AccessPolicyID) == "" {
		return invalid("contract definition %s: accessPolicyId must not be empty", d.ID)
	}
	if strings.TrimSpace(d.ContractPolicyID) == "" {
		return invalid("contract definition %s: contractPolicyId must not be empty", d.ID)
	}
	return nil
}

func (d ContractDefinition) Clone() ContractDefinition {
	out := ContractDefinition{
		ID:                d.ID,
		AccessPolicyID:    d.AccessPolicyID,
		ContractPolicyID:  d.ContractPolicyID,
		PrivateProperties: cloneProperties(d.PrivateProperties),
	}
	if d.AssetsSelector != nil {
		out.AssetsSelector = make([]Criterion, len(d.AssetsSelector))
		for i, c := range d.AssetsSelector {
			c.OperandRight = cloneValue(c.OperandRight)
			out.AssetsSelector[i] = c
		}
	}
	return out
}
