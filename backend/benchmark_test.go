package backend

import (
	"context"
	"testing"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/dataset"
)

// setupAdapter opens one backend and returns the seed inputs for cars
func setupAdapter(b *testing.B, backend Backend) (*Adapter, map[string]*core.Table) {
	env, err := dataset.Load()
	if err != nil {
		b.Fatalf("Failed to load seeds: %v", err)
	}

	adapter, err := NewAdapter(context.Background(), catalog.Standard(), []Backend{backend}, nil)
	if err != nil {
		b.Fatalf("Failed to open %s: %v", backend.ID(), err)
	}
	b.Cleanup(func() { adapter.Close() })

	return adapter, map[string]*core.Table{dataset.Cars: env[dataset.Cars]}
}

func benchmarkOperation(b *testing.B, operation string) {
	for _, backend := range Default() {
		b.Run(backend.ID(), func(b *testing.B) {
			adapter, inputs := setupAdapter(b, backend)
			ctx := context.Background()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := adapter.Execute(ctx, backend.ID(), operation, inputs); err != nil {
					b.Fatalf("Execute error: %v", err)
				}
			}
		})
	}
}

func BenchmarkFilterAnd(b *testing.B) {
	benchmarkOperation(b, catalog.FilterAnd)
}

func BenchmarkSortDescLimit(b *testing.B) {
	benchmarkOperation(b, catalog.SortDescLimit)
}

func BenchmarkGroupAggregate(b *testing.B) {
	benchmarkOperation(b, catalog.GroupAggregate)
}

func BenchmarkUpdateCell(b *testing.B) {
	benchmarkOperation(b, catalog.UpdateCell)
}
