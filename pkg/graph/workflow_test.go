package graph

import (
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/registry"
	"github.com/aretw0/wayfinder/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryWith(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	for _, n := range names {
		require.NoError(t, reg.Register(n, noop))
	}
	return reg
}

func TestWorkflow_ValidateOK(t *testing.T) {
	edges := NewEdgeTable()
	require.NoError(t, edges.AddEdge("start", "check"))
	require.NoError(t, edges.AddBoundedRetry("check", BoundedRetry{
		Switch:    relevanceSwitch(),
		Routes:    map[domain.Label]string{"Yes": "done", "No": "start"},
		Counter:   "n",
		MaxVisits: 3,
		Forced:    "Yes",
	}))
	rec := schema.MustRecord(schema.Optional("n", schema.Int()), schema.Optional("is_relevant", schema.String()))

	wf := New("loop", "start", registryWith(t, "start", "check", "done"), edges, rec, "done")
	require.NoError(t, wf.Validate())
	assert.True(t, wf.IsTerminal("done"))
	assert.True(t, wf.IsTerminal(domain.End))
	assert.False(t, wf.IsTerminal("start"))
	assert.Empty(t, wf.Unreachable())
	assert.Equal(t, []string{"n"}, wf.Counters())
}

func TestWorkflow_ValidateAggregates(t *testing.T) {
	edges := NewEdgeTable()
	require.NoError(t, edges.AddEdge("start", "ghost"))
	require.NoError(t, edges.AddEdge("done", domain.End))
	require.NoError(t, edges.AddBoundedRetry("orphan", BoundedRetry{
		Switch:    relevanceSwitch(),
		Routes:    map[domain.Label]string{"Yes": "done", "No": "start"},
		Counter:   "visits",
		MaxVisits: 2,
		Forced:    "Yes",
	}))
	rec := schema.MustRecord(schema.Optional("n", schema.Int()))

	wf := New("broken", "missing", registryWith(t, "start", "done", "dangling"), edges, rec, "done")
	err := wf.Validate()
	require.Error(t, err)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "broken", cfgErr.Workflow)

	assert.ErrorIs(t, err, domain.ErrNoEntry)
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
	assert.ErrorIs(t, err, domain.ErrConflictingEdge) // terminal with a rule
	assert.ErrorIs(t, err, domain.ErrMissingEdge)     // "dangling"
	assert.ErrorIs(t, err, domain.ErrUndeclaredField) // "visits" counter
}

func TestWorkflow_Unreachable(t *testing.T) {
	edges := NewEdgeTable()
	require.NoError(t, edges.AddEdge("a", domain.End))
	require.NoError(t, edges.AddEdge("island", domain.End))

	wf := New("w", "a", registryWith(t, "a", "island"), edges, schema.Record{})
	require.NoError(t, wf.Validate())
	assert.Equal(t, []string{"a"}, wf.Reachable())
	assert.Equal(t, []string{"island"}, wf.Unreachable())
}

func TestWorkflow_Describe(t *testing.T) {
	edges := NewEdgeTable()
	require.NoError(t, edges.AddEdge("start", "check"))
	require.NoError(t, edges.AddBoundedRetry("check", BoundedRetry{
		Switch:    relevanceSwitch(),
		Routes:    map[domain.Label]string{"Yes": domain.End, "No": "start"},
		Counter:   "n",
		MaxVisits: 3,
		Forced:    "Yes",
	}))
	wf := New("loop", "start", registryWith(t, "start", "check"), edges, schema.Record{})

	d := wf.Describe()
	assert.Equal(t, "start", d.Entry)
	assert.Equal(t, []NodeInfo{{ID: "check"}, {ID: "start", Entry: true}}, d.Nodes)
	assert.Equal(t, map[string]int{"check": 3}, d.MaxVisits)
	assert.Equal(t, []EdgeInfo{
		{From: "check", To: domain.End, Kind: EdgeBoundedRetry, Label: "Yes", Forced: true},
		{From: "check", To: "start", Kind: EdgeBoundedRetry, Label: "No"},
		{From: "start", To: "check", Kind: EdgeStatic},
	}, d.Edges)
}
