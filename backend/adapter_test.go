package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/dataset"
)

type fakeBackend struct {
	id          string
	expressions map[string]string
	openErr     error
	session     *fakeSession
}

func (b *fakeBackend) ID() string                     { return b.id }
func (b *fakeBackend) Kind() string                   { return KindDataframe }
func (b *fakeBackend) Expressions() map[string]string { return b.expressions }

func (b *fakeBackend) Open(ctx context.Context) (Session, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.session, nil
}

type fakeSession struct {
	result   Result
	err      error
	panics   bool
	closed   int
	closeErr error
}

func (s *fakeSession) Execute(ctx context.Context, op *catalog.Operation, inputs map[string]*core.Table) (Result, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func (s *fakeSession) Close() error {
	s.closed++
	return s.closeErr
}

func shapeOnly() map[string]string {
	return map[string]string{catalog.Shape: "shape"}
}

func seedInputs(t *testing.T) map[string]*core.Table {
	env, err := dataset.Load()
	require.NoError(t, err)
	return map[string]*core.Table{dataset.Cars: env[dataset.Cars]}
}

func TestAdapterNormalizesResult(t *testing.T) {
	session := &fakeSession{result: Result{
		Columns: []string{"column_count", "row_count"},
		Rows:    [][]any{{12.0, "10"}},
	}}
	b := &fakeBackend{id: "fake", expressions: shapeOnly(), session: session}

	adapter, err := NewAdapter(context.Background(), catalog.Standard(), []Backend{b}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	table, err := adapter.Execute(context.Background(), "fake", catalog.Shape, seedInputs(t))
	require.NoError(t, err)
	require.Equal(t, catalog.Shape, table.Name)
	require.Equal(t, []string{"row_count", "column_count"}, table.ColumnNames())
	require.Equal(t, [][]any{{int64(10), int64(12)}}, table.Rows)

	require.NoError(t, adapter.Close())
	require.NoError(t, adapter.Close())
	require.Equal(t, 1, session.closed)

	_, err = adapter.Execute(context.Background(), "fake", catalog.Shape, seedInputs(t))
	var execErr *core.BackendExecutionError
	require.ErrorAs(t, err, &execErr)
	require.ErrorContains(t, err, "session closed")
}

func TestAdapterUnsupportedOperation(t *testing.T) {
	b := &fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{}}
	adapter, err := NewAdapter(context.Background(), catalog.Standard(), []Backend{b}, nil)
	require.NoError(t, err)
	defer adapter.Close()

	require.True(t, adapter.Supports("fake", catalog.Shape))
	require.False(t, adapter.Supports("fake", catalog.Pivot))
	require.Len(t, adapter.Unsupported(), 24)
	require.Equal(t, "shape", adapter.Snippet("fake", catalog.Shape))

	_, err = adapter.Execute(context.Background(), "fake", catalog.Pivot, nil)
	var unsupported *core.UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, catalog.Pivot, unsupported.Operation)
}

func TestAdapterExecutionFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		inputs  bool
		message string
	}{
		{
			name:    "open failure",
			backend: &fakeBackend{id: "fake", expressions: shapeOnly(), openErr: errors.New("no engine")},
			inputs:  true,
			message: "backend unavailable: no engine",
		},
		{
			name:    "missing input",
			backend: &fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{}},
			message: "input table cars is not available",
		},
		{
			name:    "native error",
			backend: &fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{err: errors.New("syntax error")}},
			inputs:  true,
			message: "syntax error",
		},
		{
			name:    "panic",
			backend: &fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{panics: true}},
			inputs:  true,
			message: "panic: boom",
		},
		{
			name: "missing column",
			backend: &fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{
				result: Result{Columns: []string{"row_count"}, Rows: [][]any{{int64(10)}}},
			}},
			inputs:  true,
			message: "column_count",
		},
		{
			name: "undeclared column",
			backend: &fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{
				result: Result{Columns: []string{"row_count", "column_count", "extra"}, Rows: [][]any{{int64(10), int64(12), "x"}}},
			}},
			inputs:  true,
			message: `undeclared column "extra"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(context.Background(), catalog.Standard(), []Backend{tt.backend}, nil)
			require.NoError(t, err)
			defer adapter.Close()

			var inputs map[string]*core.Table
			if tt.inputs {
				inputs = seedInputs(t)
			}

			_, err = adapter.Execute(context.Background(), "fake", catalog.Shape, inputs)
			var execErr *core.BackendExecutionError
			require.ErrorAs(t, err, &execErr)
			require.Equal(t, "fake", execErr.Backend)
			require.Equal(t, catalog.Shape, execErr.Operation)
			require.ErrorContains(t, err, tt.message)
		})
	}
}

func TestAdapterRejectsDuplicateBackend(t *testing.T) {
	first := &fakeSession{}
	backends := []Backend{
		&fakeBackend{id: "fake", expressions: shapeOnly(), session: first},
		&fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{}},
	}

	_, err := NewAdapter(context.Background(), catalog.Standard(), backends, nil)
	require.ErrorContains(t, err, "registered twice")
	require.Equal(t, 1, first.closed)
}

func TestAdapterDuplicateBackendReportsCloseError(t *testing.T) {
	first := &fakeSession{closeErr: errors.New("engine still busy")}
	backends := []Backend{
		&fakeBackend{id: "fake", expressions: shapeOnly(), session: first},
		&fakeBackend{id: "fake", expressions: shapeOnly(), session: &fakeSession{}},
	}

	adapter, err := NewAdapter(context.Background(), catalog.Standard(), backends, nil)
	require.Nil(t, adapter)
	require.ErrorContains(t, err, "backend fake registered twice")
	require.ErrorContains(t, err, "engine still busy")
	require.Equal(t, 1, first.closed)
}

func TestAdapterCloseCombinesErrors(t *testing.T) {
	backends := []Backend{
		&fakeBackend{id: "a", expressions: shapeOnly(), session: &fakeSession{closeErr: errors.New("first")}},
		&fakeBackend{id: "b", expressions: shapeOnly(), session: &fakeSession{closeErr: errors.New("second")}},
	}
	adapter, err := NewAdapter(context.Background(), catalog.Standard(), backends, nil)
	require.NoError(t, err)

	err = adapter.Close()
	require.ErrorContains(t, err, "close a: first")
	require.ErrorContains(t, err, "close b: second")
}

func TestAdapterUnknownNames(t *testing.T) {
	adapter, err := NewAdapter(context.Background(), catalog.Standard(), nil, nil)
	require.NoError(t, err)

	_, err = adapter.Execute(context.Background(), "fake", catalog.Shape, nil)
	require.ErrorContains(t, err, "unknown backend fake")

	_, err = adapter.Execute(context.Background(), "fake", "no-such-op", nil)
	require.ErrorContains(t, err, "unknown operation no-such-op")
}
