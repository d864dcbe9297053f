package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NewRecordView(t *testing.T) {
	_, records, err := Parse("lang,use,pop\nGo,infra\n")
	require.NoError(t, err)

	view := NewRecordView(records[0])
	require.Equal(t, 0, view.Index)
	require.Equal(t, []Field{
		{Column: "lang", Value: "Go"},
		{Column: "use", Value: "infra"},
		{Column: "pop", Value: "", Missing: true},
	}, view.Fields)
}

func Test_NewStatsView(t *testing.T) {
	g := NewGrid(TypeCatalog{"pop": TypeNumber, "level": TypeCategory})
	require.NoError(t, g.LoadDataset("lang,pop,level\nGo,80,B\nRust,n/a,A\n"))

	view := NewStatsView(g.Statistics())
	require.Equal(t, NumericStats{Min: 80, Max: 80}, view.Numeric["pop"])
	require.Equal(t, []string{"B", "A"}, view.Categorical["level"])
	require.Equal(t, []CoercionInfo{{Column: "pop", Record: 1, Value: "n/a"}}, view.CoercionErrors)
}

func Test_NewStatsView_NoErrors(t *testing.T) {
	view := NewStatsView(scenarioGrid(t).Statistics())
	require.NotNil(t, view.CoercionErrors)
	require.Empty(t, view.CoercionErrors)
}

func Test_Grid_Columns(t *testing.T) {
	require.Equal(t, []ColumnInfo{
		{Name: "lang", Type: TypeText},
		{Name: "use", Type: TypeText},
		{Name: "pop", Type: TypeNumber},
		{Name: "level", Type: TypeCategory},
	}, scenarioGrid(t).Columns())

	require.Empty(t, NewGrid(nil).Columns())
}
