package store

import (
	"testing"

	"github.com/epiforge/epidamp/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name: "winter wave",
		Rows: 2,
		Cols: 2,
		Dampings: []scenario.Record{
			{Level: 7, Type: 3, Time: 0.5, Shape: "scalar", Scalar: 0.25},
			{Level: 13, Type: 3, Time: 2.0, Shape: "matrix",
				Matrix: [][]float64{{0.25, 0.5}, {0.75, 1}}},
		},
	}
}

func TestSaveAndGetScenario(t *testing.T) {
	s := testStore(t)
	sc := sampleScenario()

	require.NoError(t, s.SaveScenario("abc", sc))

	got, err := s.GetScenario("abc")
	require.NoError(t, err)
	assert.Equal(t, sc, got)

	// the reload must build an equivalent container
	orig, err := sc.Build()
	require.NoError(t, err)
	rebuilt, err := got.Build()
	require.NoError(t, err)
	for _, tt := range []float64{-1.0, 0.5, 2.0, 100.0} {
		assert.True(t, orig.ValueAt(tt).EqualApprox(rebuilt.ValueAt(tt), 1e-12), "t=%v", tt)
	}
}

func TestGetUnknownScenario(t *testing.T) {
	s := testStore(t)
	_, err := s.GetScenario("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddRecord(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveScenario("abc", sampleScenario()))

	rec := scenario.Record{Level: 7, Type: 4, Time: 10.0, Shape: "vector", Vector: []float64{0.1, 0.2}}
	require.NoError(t, s.AddRecord("abc", rec))

	got, err := s.GetScenario("abc")
	require.NoError(t, err)
	assert.Len(t, got.Dampings, 3)
	assert.Equal(t, rec, got.Dampings[2])

	assert.ErrorIs(t, s.AddRecord("missing", rec), ErrNotFound)
}

func TestListScenarios(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveScenario("a", sampleScenario()))
	require.NoError(t, s.SaveScenario("b", sampleScenario()))

	infos, err := s.ListScenarios()
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestDeleteScenario(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveScenario("a", sampleScenario()))

	require.NoError(t, s.DeleteScenario("a"))
	_, err := s.GetScenario("a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteScenario("a"), ErrNotFound)
}

func TestDeleteScenarioRemovesRecords(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveScenario("a", sampleScenario()))
	require.NoError(t, s.SaveScenario("b", sampleScenario()))

	// foreign keys must be enforced on the connection for the cascade to fire
	var fk int
	require.NoError(t, s.db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	require.NoError(t, s.DeleteScenario("a"))

	var orphans int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(1) FROM damping_records WHERE scenario_id = ?`, "a").Scan(&orphans))
	assert.Equal(t, 0, orphans)

	// the other scenario's records are untouched
	got, err := s.GetScenario("b")
	require.NoError(t, err)
	assert.Len(t, got.Dampings, 2)
}

func TestSaveDuplicateID(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveScenario("a", sampleScenario()))
	assert.Error(t, s.SaveScenario("a", sampleScenario()))
}
