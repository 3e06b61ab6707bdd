package query

import (
	"fmt"
	"iter"
	"testing"

	"github.com/cockroachdb/errors"

	"dataspace-connector/internal/metadata"
)

func assets(n int) []metadata.Asset {
	out := make([]metadata.Asset, n)
	for i := range out {
		out[i] = metadata.Asset{
			ID:         fmt.Sprintf("asset-%02d", i),
			Properties: map[string]any{"rank": float64(n - i)},
		}
	}
	return out
}

// counting yields items and records how many were pulled.
func counting(items []metadata.Asset, pulled *int) iter.Seq2[metadata.Asset, error] {
	return func(yield func(metadata.Asset, error) bool) {
		for _, a := range items {
			*pulled++
			if !yield(a, nil) {
				return
			}
		}
	}
}

func TestSpecNormalize(t *testing.T) {
	s := Spec{Offset: -3, Limit: 0, SortOrder: "desc"}.Normalize()
	if s.Offset != 0 || s.Limit != DefaultLimit || s.SortOrder != SortDesc {
		t.Errorf("unexpected normalized spec: %+v", s)
	}
	if got := (Spec{Limit: 5000}).Normalize().Limit; got != MaxLimit {
		t.Errorf("limit = %d, want %d", got, MaxLimit)
	}
	if got := (Spec{SortOrder: "sideways"}).Normalize().SortOrder; got != SortAsc {
		t.Errorf("sort order = %q, want %q", got, SortAsc)
	}
}

func TestCollectStopsEarlyWithoutSort(t *testing.T) {
	pulled := 0
	page, err := Collect(counting(assets(100), &pulled), Spec{Offset: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 3 || page[0].ID != "asset-02" || page[2].ID != "asset-04" {
		t.Fatalf("unexpected page: %v", page)
	}
	if pulled != 5 {
		t.Errorf("pulled %d items, want 5", pulled)
	}
}

func TestCollectSorted(t *testing.T) {
	pulled := 0
	page, err := Collect(counting(assets(10), &pulled), Spec{Limit: 2, SortField: "rank"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != "asset-09" || page[1].ID != "asset-08" {
		t.Fatalf("unexpected page: %v", page)
	}

	page, err = Collect(counting(assets(10), &pulled), Spec{Limit: 2, SortField: "id", SortOrder: "DESC"})
	if err != nil {
		t.Fatal(err)
	}
	if page[0].ID != "asset-09" {
		t.Errorf("first = %s, want asset-09", page[0].ID)
	}

	page, err = Collect(counting(assets(3), &pulled), Spec{Offset: 5, SortField: "rank"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 0 {
		t.Errorf("offset past end returned %d items", len(page))
	}
}

func TestCollectPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	var seq iter.Seq2[metadata.Asset, error] = func(yield func(metadata.Asset, error) bool) {
		if !yield(metadata.Asset{ID: "a"}, nil) {
			return
		}
		yield(metadata.Asset{}, boom)
	}
	if _, err := Collect(seq, Spec{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSortByMissingFieldLast(t *testing.T) {
	items := []metadata.Asset{
		{ID: "no-rank"},
		{ID: "b", Properties: map[string]any{"rank": float64(2)}},
		{ID: "a", Properties: map[string]any{"rank": float64(1)}},
	}
	SortBy(items, "rank", SortDesc)
	if items[0].ID != "b" || items[1].ID != "a" || items[2].ID != "no-rank" {
		t.Errorf("unexpected order: %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}
}
