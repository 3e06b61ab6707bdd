package metadata

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetPropertyAliases(t *testing.T) {
	a := Asset{
		ID: "a1",
		Properties: map[string]any{
			"name":                "Weather",
			EDCNamespace + "kind": "api",
			"edc:region":          "eu",
			"dct:format":          "json",
		},
	}

	for key, want := range map[string]any{
		"name":                  "Weather",
		EDCNamespace + "name":   "Weather",
		"edc:name":              "Weather",
		"kind":                  "api",
		"edc:kind":              "api",
		"region":                "eu",
		EDCNamespace + "region": "eu",
		"dct:format":            "json",
	} {
		got, ok := a.Property(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	_, ok := a.Property("format")
	assert.False(t, ok, "foreign namespaces are not aliased")
	_, ok = a.Property("missing")
	assert.False(t, ok)
	assert.Equal(t, "Weather", a.Name())
}

func TestAssetCloneIsDeep(t *testing.T) {
	a := Asset{
		ID:         "a1",
		Properties: map[string]any{"tags": []any{"x"}, "nested": map[string]any{"k": "v"}},
		DataAddress: DataAddress{
			Type:       "HttpData",
			Properties: map[string]any{"baseUrl": "https://example.com"},
		},
	}
	c := a.Clone()
	c.Properties["tags"].([]any)[0] = "changed"
	c.Properties["nested"].(map[string]any)["k"] = "changed"
	c.DataAddress.Properties["baseUrl"] = "changed"

	assert.Equal(t, "x", a.Properties["tags"].([]any)[0])
	assert.Equal(t, "v", a.Properties["nested"].(map[string]any)["k"])
	assert.Equal(t, "https://example.com", a.DataAddress.Properties["baseUrl"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		err   error
	}{
		{"asset without id", false, Asset{}.Validate()},
		{"asset", true, Asset{ID: "a"}.Validate()},
		{"policy without id", false, PolicyDefinition{ID: " "}.Validate()},
		{"policy", true, PolicyDefinition{ID: "p"}.Validate()},
		{"contract without access policy", false, ContractDefinition{ID: "c", ContractPolicyID: "p"}.Validate()},
		{"contract without contract policy", false, ContractDefinition{ID: "c", AccessPolicyID: "p"}.Validate()},
		{"contract", true, ContractDefinition{ID: "c", AccessPolicyID: "p", ContractPolicyID: "p"}.Validate()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid {
				require.NoError(t, tt.err)
				return
			}
			require.Error(t, tt.err)
			assert.True(t, errors.Is(tt.err, ErrInvalid))
		})
	}
}

func TestContractDefinitionProperty(t *testing.T) {
	d := ContractDefinition{
		ID:                "c1",
		AccessPolicyID:    "access",
		ContractPolicyID:  "contract",
		PrivateProperties: map[string]any{"owner": "team-a"},
	}

	v, ok := d.Property(EDCNamespace + PropertyAccessPolicyID)
	require.True(t, ok)
	assert.Equal(t, "access", v)

	v, ok = d.Property(PropertyContractPolicyID)
	require.True(t, ok)
	assert.Equal(t, "contract", v)

	v, ok = d.Property("edc:owner")
	require.True(t, ok)
	assert.Equal(t, "team-a", v)
}

func TestContractDefinitionCloneCopiesSelector(t *testing.T) {
	d := ContractDefinition{
		ID:             "c1",
		AssetsSelector: []Criterion{NewCriterion("category", "in", []any{"a", "b"})},
	}
	c := d.Clone()
	c.AssetsSelector[0].Operator = "="
	c.AssetsSelector[0].OperandRight.([]any)[0] = "z"

	assert.Equal(t, "in", d.AssetsSelector[0].Operator)
	assert.Equal(t, "a", d.AssetsSelector[0].OperandRight.([]any)[0])
}

func TestPolicyIsEmpty(t *testing.T) {
	assert.True(t, Policy{Type: PolicyTypeSet}.IsEmpty())
	assert.False(t, Policy{Permissions: []Rule{{Action: "use"}}}.IsEmpty())
}

func TestIDOperand(t *testing.T) {
	for _, k := range []string{"id", "@id", "edc:id", PropertyID} {
		assert.True(t, IsIDOperand(k), k)
	}
	assert.False(t, IsIDOperand("identifier"))
	assert.Equal(t, "name", ShortName(EDCNamespace+"name"))
	assert.Equal(t, "name", ShortName("edc:name"))
	assert.Equal(t, "dct:title", ShortName("dct:title"))
}
