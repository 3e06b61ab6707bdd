package engine

import (
	"cmp"
	"context"
	"encoding/base64"
	"slices"

	"github.com/cockroachdb/errors"

	"dataspace-connector/internal/instrument"
	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/query"
	"dataspace-connector/internal/store"
)

// ErrDanglingPolicyReference marks a contract definition whose access or
// contract policy id does not resolve. It never aborts a catalog scan.
var ErrDanglingPolicyReference = errors.New("dangling policy reference")

// Offer is a contract definition that applies to an asset, with both of its
// policies resolved.
type Offer struct {
	Definition     metadata.ContractDefinition
	AccessPolicy   metadata.PolicyDefinition
	ContractPolicy metadata.PolicyDefinition
}

// Skipped is a definition excluded from a match because it could not be
// resolved or evaluated.
type Skipped struct {
	DefinitionID string
	Err          error
}

// Match is the outcome of matching one asset against every contract definition.
type Match struct {
	Offers  []Offer
	Skipped []Skipped
}

// Dataset is an asset together with the offers that govern it.
type Dataset struct {
	Asset  metadata.Asset
	Offers []Offer
}

// CatalogMatcher answers which contract definitions, and therefore which
// policies, apply to an asset. It only reads from the stores and holds no lock
// across them; each store read is individually consistent.
type CatalogMatcher struct {
	definitions store.ContractDefinitionStore
	policies    store.PolicyDefinitionStore
	monitor     instrument.Monitor
	sortByID    bool
}

type MatcherOption func(*CatalogMatcher)

// WithMonitor sets where skipped definitions are reported.
func WithMonitor(m instrument.Monitor) MatcherOption {
	return func(cm *CatalogMatcher) { cm.monitor = instrument.OrNoop(m) }
}

// WithSortByID orders offers by contract definition id instead of insertion order.
func WithSortByID(enabled bool) MatcherOption {
	return func(cm *CatalogMatcher) { cm.sortByID = enabled }
}

func NewCatalogMatcher(definitions store.ContractDefinitionStore, policies store.PolicyDefinitionStore, opts ...MatcherOption) *CatalogMatcher {
	cm := &CatalogMatcher{
		definitions: definitions,
		policies:    policies,
		monitor:     instrument.NoopMonitor{},
	}
	for _, opt := range opts {
		opt(cm)
	}
	return cm
}

// DefinitionsFor returns every contract definition whose selector matches
// asset, with resolved policies. Definitions with dangling policy references
// or unevaluable selectors land in Match.Skipped; only store failures are
// returned as errors.
func (cm *CatalogMatcher) DefinitionsFor(ctx context.Context, asset metadata.Asset) (Match, error) {
	defs, err := cm.loadDefinitions(ctx)
	if err != nil {
		return Match{}, err
	}
	return cm.match(ctx, asset, defs, make(policyCache))
}

// Dataset matches the asset stored under assetID.
func (cm *CatalogMatcher) Dataset(ctx context.Context, assets store.AssetIndex, assetID string) (Dataset, error) {
	asset, err := assets.Get(ctx, assetID)
	if err != nil {
		return Dataset{}, err
	}
	m, err := cm.DefinitionsFor(ctx, asset)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Asset: asset, Offers: m.Offers}, nil
}

// Catalog computes datasets for the assets selected by spec.Filter, reading
// the contract definitions once for the whole scan. Assets without offers are
// not part of the catalog. Offset and limit page the datasets.
func (cm *CatalogMatcher) Catalog(ctx context.Context, assets store.AssetIndex, spec query.Spec) ([]Dataset, error) {
	spec = spec.Normalize()
	defs, err := cm.loadDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	// Collect before resolving policies: a SQL sequence holds its connection.
	var candidates []metadata.Asset
	for a, err := range assets.Query(ctx, spec.Filter) {
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, a)
	}
	if spec.SortField != "" {
		query.SortBy(candidates, spec.SortField, spec.SortOrder)
	}

	cache := make(policyCache)
	datasets := make([]Dataset, 0)
	skipped := 0
	for _, a := range candidates {
		m, err := cm.match(ctx, a, defs, cache)
		if err != nil {
			return nil, err
		}
		if len(m.Offers) == 0 {
			continue
		}
		if skipped < spec.Offset {
			skipped++
			continue
		}
		datasets = append(datasets, Dataset{Asset: a, Offers: m.Offers})
		if len(datasets) == spec.Limit {
			break
		}
	}
	return datasets, nil
}

func (cm *CatalogMatcher) loadDefinitions(ctx context.Context) ([]metadata.ContractDefinition, error) {
	var defs []metadata.ContractDefinition
	for d, err := range cm.definitions.Query(ctx, nil) {
		if err != nil {
			return nil, errors.Wrap(err, "load contract definitions")
		}
		defs = append(defs, d)
	}
	if cm.sortByID {
		slices.SortFunc(defs, func(a, b metadata.ContractDefinition) int {
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return defs, nil
}

func (cm *CatalogMatcher) match(ctx context.Context, asset metadata.Asset, defs []metadata.ContractDefinition, cache policyCache) (Match, error) {
	var out Match
	for _, def := range defs {
		ok, err := query.MatchAll(def.AssetsSelector, asset)
		if err != nil {
			cm.monitor.Severe("contract definition selector cannot be evaluated",
				"contract_definition", def.ID, "asset", asset.ID, "error", err)
			out.Skipped = append(out.Skipped, Skipped{DefinitionID: def.ID, Err: err})
			continue
		}
		if !ok {
			continue
		}

		access, err := cm.resolve(ctx, cache, def, "access", def.AccessPolicyID)
		if err == nil {
			var contract metadata.PolicyDefinition
			contract, err = cm.resolve(ctx, cache, def, "contract", def.ContractPolicyID)
			if err == nil {
				out.Offers = append(out.Offers, Offer{Definition: def, AccessPolicy: access, ContractPolicy: contract})
				continue
			}
		}
		if !errors.Is(err, ErrDanglingPolicyReference) {
			return Match{}, err
		}
		cm.monitor.Warning("contract definition excluded from catalog",
			"contract_definition", def.ID, "asset", asset.ID, "error", err)
		out.Skipped = append(out.Skipped, Skipped{DefinitionID: def.ID, Err: err})
	}
	return out, nil
}

// policyCache memoises policy lookups for the duration of one scan.
type policyCache map[string]metadata.PolicyDefinition

func (cm *CatalogMatcher) resolve(ctx context.Context, cache policyCache, def metadata.ContractDefinition, role, policyID string) (metadata.PolicyDefinition, error) {
	if p, ok := cache[policyID]; ok {
		return p, nil
	}
	p, err := cm.policies.Get(ctx, policyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return p, errors.Wrapf(ErrDanglingPolicyReference,
				"contract definition %s: %s policy %s does not exist", def.ID, role, policyID)
		}
		return p, errors.Wrapf(err, "resolve %s policy %s", role, policyID)
	}
	cache[policyID] = p
	return p, nil
}

// OfferID derives a stable offer id from the definition and asset ids.
func OfferID(definitionID, assetID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(definitionID)) + ":" +
		base64.RawURLEncoding.EncodeToString([]byte(assetID))
}
