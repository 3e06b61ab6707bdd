// Package seed populates the catalog stores with sample or file-provided
// assets, policies and contract definitions.
package seed

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"dataspace-connector/internal/instrument"
	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/store"
)

// Document is a set of entities to register, in registration order.
type Document struct {
	Assets              []metadata.Asset              `yaml:"assets"`
	PolicyDefinitions   []metadata.PolicyDefinition   `yaml:"policyDefinitions"`
	ContractDefinitions []metadata.ContractDefinition `yaml:"contractDefinitions"`
}

// Merge appends other's entities to d.
func (d Document) Merge(other Document) Document {
	d.Assets = append(d.Assets, other.Assets...)
	d.PolicyDefinitions = append(d.PolicyDefinitions, other.PolicyDefinitions...)
	d.ContractDefinitions = append(d.ContractDefinitions, other.ContractDefinitions...)
	return d
}

// LoadFile parses a YAML seed document.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "read seed file %s", path)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrapf(err, "parse seed file %s", path)
	}
	return doc, nil
}

// Result counts what Apply did.
type Result struct {
	Created int
	Skipped int
}

// Apply registers assets, then policies, then contract definitions. Entities
// whose id is already taken are skipped with a warning so applying the same
// document twice is harmless. Any other failure stops the run.
func Apply(ctx context.Context, stores *store.Stores, doc Document, m instrument.Monitor) (Result, error) {
	m = instrument.OrNoop(m)
	var res Result

	for _, a := range doc.Assets {
		if err := register(ctx, stores.Assets, a, "asset", m, &res); err != nil {
			return res, err
		}
	}
	for _, p := range doc.PolicyDefinitions {
		if err := register(ctx, stores.Policies, p, "policy definition", m, &res); err != nil {
			return res, err
		}
	}
	for _, d := range doc.ContractDefinitions {
		if err := register(ctx, stores.ContractDefinitions, d, "contract definition", m, &res); err != nil {
			return res, err
		}
	}

	m.Info("seeding complete", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func register[T metadata.Record[T]](ctx context.Context, repo store.Repository[T], e T, kind string, m instrument.Monitor, res *Result) error {
	err := repo.Create(ctx, e)
	switch {
	case err == nil:
		res.Created++
		m.Info(kind+" registered", "id", e.EntityID())
		return nil
	case errors.Is(err, store.ErrDuplicateID):
		res.Skipped++
		m.Warning(kind+" already registered", "id", e.EntityID())
		return nil
	default:
		return errors.Wrapf(err, "seed %s %s", kind, e.EntityID())
	}
}
