package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/testutil"
)

func mustBuild(t *testing.T, src string) *Graph {
	t.Helper()
	g, err := Build(testutil.MustRules(t, src))
	require.NoError(t, err)
	return g
}

func mustID(t *testing.T, g *Graph, name string) ir.ModuleID {
	t.Helper()
	id, ok := g.ID(name)
	require.True(t, ok, "module %q not in graph", name)
	return id
}

func TestBuild_ImplicitSink(t *testing.T) {
	g := mustBuild(t, testutil.Example2)

	assert.Equal(t, 6, g.Len())
	assert.Equal(t, []string{"output"}, g.ImplicitSinks())

	out := mustID(t, g, "output")
	assert.Equal(t, ir.KindSink, g.Kind(out))
	assert.True(t, g.Implicit(out))
	assert.Empty(t, g.Targets(out))
	assert.False(t, g.LowSeen(out))
}

func TestBuild_ConjunctionMemoryFromEdges(t *testing.T) {
	g := mustBuild(t, testutil.Example2)

	con := mustID(t, g, "con")
	a := mustID(t, g, "a")
	b := mustID(t, g, "b")
	assert.Equal(t, map[ir.ModuleID]ir.Pulse{a: ir.Low, b: ir.Low}, g.Memory(con))
	assert.Equal(t, []ir.ModuleID{a, b}, g.Predecessors(con))

	inv := mustID(t, g, "inv")
	assert.Equal(t, map[ir.ModuleID]ir.Pulse{a: ir.Low}, g.Memory(inv))

	assert.Nil(t, g.Memory(a), "flip-flops have no memory")
}

func TestBuild_TargetsInDeclarationOrder(t *testing.T) {
	g := mustBuild(t, testutil.Example1)

	bc := g.Broadcaster()
	assert.Equal(t, ir.BroadcasterName, g.Name(bc))
	assert.Equal(t,
		[]ir.ModuleID{mustID(t, g, "a"), mustID(t, g, "b"), mustID(t, g, "c")},
		g.Targets(bc))
	assert.Empty(t, g.ImplicitSinks())
}

func TestBuild_DuplicateEdgesKept(t *testing.T) {
	g := mustBuild(t, "broadcaster -> a\n%a -> c, c\n&c -> out\n")

	a := mustID(t, g, "a")
	c := mustID(t, g, "c")
	assert.Len(t, g.Targets(a), 2, "both edges kept")
	assert.Len(t, g.Memory(c), 1, "one memory entry per input")
	assert.Equal(t, []ir.ModuleID{a}, g.Predecessors(c))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		rules []ir.Rule
		code  BuildErrorCode
	}{
		{
			name: "duplicate module",
			rules: []ir.Rule{
				{Name: "broadcaster", Kind: ir.KindBroadcaster, Targets: []string{"a"}, Line: 1},
				{Name: "a", Kind: ir.KindFlipFlop, Line: 2},
				{Name: "a", Kind: ir.KindConjunction, Line: 3},
			},
			code: ErrCodeDuplicateModule,
		},
		{
			name: "missing broadcaster",
			rules: []ir.Rule{
				{Name: "a", Kind: ir.KindFlipFlop, Targets: []string{"b"}},
			},
			code: ErrCodeMissingBroadcaster,
		},
		{
			name:  "empty network",
			rules: nil,
			code:  ErrCodeMissingBroadcaster,
		},
		{
			name: "reserved broadcaster name on flip-flop",
			rules: []ir.Rule{
				{Name: "broadcaster", Kind: ir.KindFlipFlop},
			},
			code: ErrCodeInvalidModule,
		},
		{
			name: "broadcaster kind under another name",
			rules: []ir.Rule{
				{Name: "start", Kind: ir.KindBroadcaster},
			},
			code: ErrCodeInvalidModule,
		},
		{
			name: "empty name",
			rules: []ir.Rule{
				{Name: "broadcaster", Kind: ir.KindBroadcaster},
				{Name: "", Kind: ir.KindFlipFlop},
			},
			code: ErrCodeInvalidModule,
		},
		{
			name: "button is reserved",
			rules: []ir.Rule{
				{Name: "broadcaster", Kind: ir.KindBroadcaster},
				{Name: "button", Kind: ir.KindConjunction},
			},
			code: ErrCodeInvalidModule,
		},
		{
			name: "sink cannot be declared",
			rules: []ir.Rule{
				{Name: "broadcaster", Kind: ir.KindBroadcaster},
				{Name: "rx", Kind: ir.KindSink},
			},
			code: ErrCodeInvalidModule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.rules)
			require.Error(t, err)
			assert.Nil(t, g, "no partial graph on error")
			assert.True(t, IsBuildError(err, tt.code), "got %v", err)
		})
	}
}

func TestBuild_DuplicateModuleReportsLines(t *testing.T) {
	_, err := Build(testutil.MustRules(t, "broadcaster -> a\n%a -> b\n&a -> b\n"))
	require.Error(t, err)

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "a", be.Module)
	assert.Equal(t, 3, be.Line)
	assert.Contains(t, be.Error(), "first on line 2")
}

func TestBuild_DoesNotAliasRules(t *testing.T) {
	rules := testutil.MustRules(t, testutil.Example1)
	g, err := Build(rules)
	require.NoError(t, err)

	rules[0].Name = "changed"
	assert.Equal(t, ir.BroadcasterName, g.Rules()[0].Name)
}

func TestGraph_Reset(t *testing.T) {
	g := mustBuild(t, testutil.Example2)
	sim := NewSimulator(g)
	require.NoError(t, sim.Press(nil))

	a := mustID(t, g, "a")
	out := mustID(t, g, "output")
	assert.True(t, g.State(a))
	assert.True(t, g.LowSeen(out))

	g.Reset()
	assert.False(t, g.State(a))
	assert.False(t, g.LowSeen(out))
	for _, v := range g.Memory(mustID(t, g, "con")) {
		assert.Equal(t, ir.Low, v)
	}
}

func TestGraph_NameOfButton(t *testing.T) {
	g := mustBuild(t, testutil.Example1)
	assert.Equal(t, "button", g.Name(ir.ButtonID))
	assert.Equal(t, "#99", g.Name(99))
}

func TestGraph_KindCounts(t *testing.T) {
	g := mustBuild(t, testutil.Example2)
	assert.Equal(t, map[ir.Kind]int{
		ir.KindBroadcaster: 1,
		ir.KindFlipFlop:    2,
		ir.KindConjunction: 2,
		ir.KindSink:        1,
	}, g.KindCounts())
}
