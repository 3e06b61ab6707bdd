package store

import (
	"context"
	"iter"

	"github.com/cockroachdb/errors"

	"dataspace-connector/internal/config"
	"dataspace-connector/internal/metadata"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id")
	ErrIDMismatch  = errors.New("id mismatch")
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Repository is the keyed CRUD and query contract shared by the asset,
// policy definition and contract definition stores. Every operation is
// linearizable with respect to the others on the same repository.
type Repository[T metadata.Record[T]] interface {
	// Create inserts e, failing with ErrDuplicateID if its id is taken.
	Create(ctx context.Context, e T) error
	// Get returns the entity stored under id or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)
	// Update replaces the entity stored under id. e must carry the same id.
	Update(ctx context.Context, id string, e T) error
	// Delete removes the entity stored under id or reports ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Query lazily yields, in insertion order, every entity satisfying all
	// criteria. Evaluation errors are yielded once and end the sequence.
	Query(ctx context.Context, criteria []metadata.Criterion) iter.Seq2[T, error]
}

type (
	AssetIndex              = Repository[metadata.Asset]
	PolicyDefinitionStore   = Repository[metadata.PolicyDefinition]
	ContractDefinitionStore = Repository[metadata.ContractDefinition]
)

// Stores bundles the three catalog repositories built from one configuration.
type Stores struct {
	Assets              AssetIndex
	Policies            PolicyDefinitionStore
	ContractDefinitions ContractDefinitionStore

	db *DB
}

// NewMemory returns in-memory stores.
func NewMemory() *Stores {
	return &Stores{
		Assets:              NewMemoryStore[metadata.Asset](kindAsset),
		Policies:            NewMemoryStore[metadata.PolicyDefinition](kindPolicy),
		ContractDefinitions: NewMemoryStore[metadata.ContractDefinition](kindContract),
	}
}

// NewSQL returns stores backed by db. The tables must already exist.
func NewSQL(db *DB) *Stores {
	return &Stores{
		Assets:              NewSQLStore[metadata.Asset](db, kindAsset, tableAssets),
		Policies:            NewSQLStore[metadata.PolicyDefinition](db, kindPolicy, tablePolicies),
		ContractDefinitions: NewSQLStore[metadata.ContractDefinition](db, kindContract, tableContracts),
		db:                  db,
	}
}

// Open builds the stores for the configured driver, connecting and
// bootstrapping tables when the driver is SQL-backed.
func Open(ctx context.Context, cfg config.StoreConfig) (*Stores, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres:
		db, err := Connect(ctx, cfg.Driver, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Bootstrap(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQL(db), nil
	default:
		return nil, errors.Newf("unknown store driver %q", cfg.Driver)
	}
}

// Driver reports which backend the stores use.
func (s *Stores) Driver() string {
	if s.db == nil {
		return DriverMemory
	}
	return s.db.Dialect.Name()
}

func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const (
	kindAsset    = "asset"
	kindPolicy   = "policy definition"
	kindContract = "contract definition"
)

func notFound(kind, id string) error {
	return errors.Wrapf(ErrNotFound, "%s %s", kind, id)
}

func duplicate(kind, id string) error {
	return errors.Wrapf(ErrDuplicateID, "%s %s", kind, id)
}

func mismatch(kind, pathID, bodyID string) error {
	return errors.Wrapf(ErrIDMismatch, "%s %s: replacement carries id %q", kind, pathID, bodyID)
}
