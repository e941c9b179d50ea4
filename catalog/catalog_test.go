package catalog

import (
	"testing"

	"github.com/nickyhof/CatalogRunner/core"
	"github.com/stretchr/testify/require"
)

func TestStandardCatalog(t *testing.T) {
	cat := Standard()

	require.Equal(t, 25, cat.Len())
	require.Equal(t, RenameSelect, cat.Names()[0])
	require.Equal(t, Unpivot, cat.Names()[cat.Len()-1])

	op, ok := cat.Get(SortDescLimit)
	require.True(t, ok)
	require.True(t, op.Ordered)

	op, ok = cat.Get(PivotTwoKeys)
	require.True(t, ok)
	require.True(t, op.IsPivot())
	require.Equal(t, []string{"continent", "country", "2000", "2010", "2020"}, op.ColumnNames())

	_, ok = cat.Get("no-such-operation")
	require.False(t, ok)
}

func TestStandardCatalogOrderRespectsDependencies(t *testing.T) {
	cat := Standard()
	position := make(map[string]int)
	for i, name := range cat.Names() {
		position[name] = i
	}

	require.Less(t, position[GroupAggregate], position[JoinLeft])
	require.Less(t, position[FilterOr], position[AppendAll])
	require.Less(t, position[DeleteRow], position[DeleteRowAgain])
	require.Less(t, position[CreateIfNotExists], position[CreateIfNotExistsAgain])
	require.Less(t, position[Pivot], position[Unpivot])
}

func TestNewRejectsUnknownInput(t *testing.T) {
	schema := []core.Column{{Name: "a", Type: core.IntegerType}}

	_, err := New([]string{"t"},
		&Operation{Name: "join", Inputs: []string{"t", "later"}, Schema: schema},
		&Operation{Name: "produce", Inputs: []string{"t"}, Schema: schema, Materialize: "later"},
	)
	require.ErrorContains(t, err, "input table later")
}

func TestNewRejectsInvalidOperations(t *testing.T) {
	schema := []core.Column{{Name: "a", Type: core.IntegerType}}

	tests := []struct {
		name string
		ops  []*Operation
	}{
		{"Duplicate", []*Operation{
			{Name: "x", Inputs: []string{"t"}, Schema: schema},
			{Name: "x", Inputs: []string{"t"}, Schema: schema},
		}},
		{"NoSchema", []*Operation{{Name: "x", Inputs: []string{"t"}}}},
		{"NoInputs", []*Operation{{Name: "x", Schema: schema}}},
		{"DuplicateColumn", []*Operation{{Name: "x", Inputs: []string{"t"}, Schema: append(schema, schema...)}}},
		{"BadPivotKey", []*Operation{{Name: "x", Inputs: []string{"t"}, Schema: schema, PivotKeys: []string{"b"}}}},
		{"IfNotExistsWithoutTarget", []*Operation{{Name: "x", Inputs: []string{"t"}, Schema: schema, Mode: IfNotExists}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]string{"t"}, tt.ops...)
			require.Error(t, err)
		})
	}
}

func TestOperationsReturnsCopy(t *testing.T) {
	cat := Standard()
	ops := cat.Operations()
	ops[0] = nil
	require.NotNil(t, cat.Operations()[0])
}
