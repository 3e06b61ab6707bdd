package metadata

import "strings"

// Conventional asset property keys. Neither is enforced.
const (
	PropertyName        = "name"
	PropertyDescription = "description"
	PropertyContentType = "contenttype"
)

// Asset is a registered unit of shareable data with its access descriptor.
type Asset struct {
	ID          string         `json:"id" yaml:"id"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	DataAddress DataAddress    `json:"dataAddress" yaml:"dataAddress"`
}

// DataAddress describes how to physically reach an asset's data. The catalog
// never interprets it.
type DataAddress struct {
	Type       string         `json:"type" yaml:"type"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

func (a Asset) EntityID() string { return a.ID }

// Property returns the asset property stored under key.
func (a Asset) Property(key string) (any, bool) {
	return lookupProperty(a.Properties, key)
}

// Name returns the human-readable name, if one was set.
func (a Asset) Name() string {
	v, _ := a.Property(PropertyName)
	s, _ := v.(string)
	return s
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return invalid("asset id must not be empty")
	}
	return nil
}

func (a Asset) Clone() Asset {
	return Asset{
		ID:          a.ID,
		Properties:  cloneProperties(a.Properties),
		DataAddress: a.DataAddress.Clone(),
	}
}

func (d DataAddress) Clone() DataAddress {
	return DataAddress{Type: d.Type, Properties: cloneProperties(d.Properties)}
}
