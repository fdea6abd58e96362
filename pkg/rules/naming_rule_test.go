package rules_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/namefix/pkg/observability"
	"github.com/Sumatoshi-tech/namefix/pkg/parser"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/rules"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

func load(t *testing.T, sources map[string]string) *program.Snapshot {
	t.Helper()

	p := parser.New()
	docs := make([]program.Document, 0, len(sources))

	for name, src := range sources {
		tree, err := p.Parse(context.Background(), syntax.CSharp, []byte(src))
		require.NoError(t, err)

		docs = append(docs, program.Document{ID: program.DocumentID(name), Path: name, Dialect: syntax.CSharp, Tree: tree})
	}

	snap, err := program.New(docs...)
	require.NoError(t, err)

	return snap
}

func text(t *testing.T, snap *program.Snapshot, doc program.DocumentID) string {
	t.Helper()

	d, ok := snap.Document(doc)
	require.True(t, ok)

	return d.Text()
}

func applyOnce(t *testing.T, rule rules.Rule, source string) string {
	t.Helper()

	snap := load(t, map[string]string{"test.cs": source})

	out, err := rule.Apply(context.Background(), snap, "test.cs")
	require.NoError(t, err)

	return text(t, out, "test.cs")
}

func TestVariableNames(t *testing.T) {
	t.Parallel()

	got := applyOnce(t, rules.NewVariableNames(), `class C
{
    void M()
    {
        int X = 1, y = 2;
        var AnyInt = X + y;
        int GCField = AnyInt;
    }
}
`)

	assert.Equal(t, `class C
{
    void M()
    {
        int x = 1, y = 2;
        var anyInt = x + y;
        int GCField = anyInt;
    }
}
`, got)
}

func TestVariableNames_LocalNamedAfterType(t *testing.T) {
	t.Parallel()

	got := applyOnce(t, rules.NewVariableNames(), `enum LockType { Open }

class C
{
    void M()
    {
        LockType LockType = LockType.Open;
    }
}
`)

	assert.Contains(t, got, "LockType lockType = LockType.Open;")
}

func TestVariableNames_IgnoresFields(t *testing.T) {
	t.Parallel()

	source := "class C { int Field; void M() { for (int I = 0; I < 1; I++) { } } }\n"

	assert.Equal(t, source, applyOnce(t, rules.NewVariableNames(), source))
}

func TestParametersNaming(t *testing.T) {
	t.Parallel()

	got := applyOnce(t, rules.NewParametersNaming(), `class C
{
    public void TestA(int Value) { }
    public void TestB(string VALUE, string other, string RenameMe) { }
    public void TestC(string s_otherTest) { }
    public void TestD(int v_Value, int b_Value) { }
    public delegate void TestEvent(int NewValue);
}
`)

	assert.Equal(t, `class C
{
    public void TestA(int value) { }
    public void TestB(string value, string other, string renameMe) { }
    public void TestC(string sOtherTest) { }
    public void TestD(int vValue, int bValue) { }
    public delegate void TestEvent(int newValue);
}
`, got)
}

func TestConstantFieldNames(t *testing.T) {
	t.Parallel()

	got := applyOnce(t, rules.NewConstantFieldNames(), `class C
{
    private const int k = 1, m_s = 2;
    const string name = "x";
    public const int open = 3;
    private static int counter;

    int Sum() { return k + m_s + name.Length + open; }
}
`)

	assert.Equal(t, `class C
{
    private const int K = 1, M_S = 2;
    const string NAME = "x";
    public const int open = 3;
    private static int counter;

    int Sum() { return K + M_S + NAME.Length + open; }
}
`, got)
}

func TestInterfaceNaming_CrossFile(t *testing.T) {
	t.Parallel()

	snap := load(t, map[string]string{
		"a.cs": "interface Test { }\ninterface test2 { }\ninterface IGood { }\n",
		"b.cs": "class C : Test, test2 { }\n",
		"c.cs": "class D { }\n",
	})

	out, err := rules.NewInterfaceNaming().Apply(context.Background(), snap, "a.cs")
	require.NoError(t, err)

	assert.Equal(t, "interface ITest { }\ninterface ITest2 { }\ninterface IGood { }\n", text(t, out, "a.cs"))
	assert.Equal(t, "class C : ITest, ITest2 { }\n", text(t, out, "b.cs"))
	assert.Same(t, snap.Tree("c.cs"), out.Tree("c.cs"))
}

func TestApply_NoViolationsReturnsSameSnapshot(t *testing.T) {
	t.Parallel()

	snap := load(t, map[string]string{"a.cs": "interface IGood { void M(int value); }\n"})

	for _, rule := range rules.Builtin() {
		out, err := rule.Apply(context.Background(), snap, "a.cs")
		require.NoError(t, err)
		assert.Same(t, snap, out, rule.Descriptor().ID)
	}
}

func TestApply_IsIdempotent(t *testing.T) {
	t.Parallel()

	source := `interface test { }

class C : test
{
    private const int k = 1;

    int M(int Value)
    {
        int Result = Value + k;
        return Result;
    }
}
`

	snap := load(t, map[string]string{"a.cs": source})

	once := snap

	for _, rule := range rules.Builtin() {
		var err error

		once, err = rule.Apply(context.Background(), once, "a.cs")
		require.NoError(t, err)
	}

	twice := once

	for _, rule := range rules.Builtin() {
		var err error

		twice, err = rule.Apply(context.Background(), twice, "a.cs")
		require.NoError(t, err)
	}

	assert.Same(t, once, twice)
	assert.Equal(t, `interface ITest { }

class C : ITest
{
    private const int K = 1;

    int M(int value)
    {
        int result = value + K;
        return result;
    }
}
`, text(t, once, "a.cs"))
}

func TestApply_LeavesNoAnnotations(t *testing.T) {
	t.Parallel()

	snap := load(t, map[string]string{
		"a.cs": "class A { private const int k = 1; }\n",
		"b.cs": "class B { int M() { return A.k; } }\n",
	})

	out, err := rules.NewConstantFieldNames().Apply(context.Background(), snap, "a.cs")
	require.NoError(t, err)

	for _, doc := range out.Documents() {
		assert.False(t, doc.Tree.ContainsAnnotations(), doc.ID)
	}

	assert.Equal(t, "class B { int M() { return A.K; } }\n", text(t, out, "b.cs"))
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	tree := syntax.NewNode("compilation_unit", nil)

	snap, err := program.New(program.Document{ID: "a.vb", Dialect: syntax.VisualBasic, Tree: tree})
	require.NoError(t, err)

	rule := rules.NewVariableNames()
	assert.False(t, rule.SupportsDialect(syntax.VisualBasic))
	assert.True(t, rule.SupportsDialect(syntax.CSharp))

	out, err := rule.Apply(context.Background(), snap, "a.vb")
	require.ErrorIs(t, err, rules.ErrUnsupportedDialect)
	assert.Same(t, snap, out)

	_, err = rule.Apply(context.Background(), snap, "missing.cs")
	require.ErrorIs(t, err, rules.ErrUnknownDocument)
}

func TestApply_RenameFailureLeavesSnapshotUnmodified(t *testing.T) {
	t.Parallel()

	source := "class C { void M() { int X = 1; int x = 2; int Y = X + x; } }\n"
	snap := load(t, map[string]string{"a.cs": source})

	out, err := rules.NewVariableNames().Apply(context.Background(), snap, "a.cs")
	require.ErrorIs(t, err, rules.ErrRenameFailed)
	require.ErrorIs(t, err, program.ErrRenameConflict)

	assert.Same(t, snap, out)
	assert.Equal(t, source, text(t, out, "a.cs"))
}

func TestApply_CancelledContext(t *testing.T) {
	t.Parallel()

	snap := load(t, map[string]string{"a.cs": "class C { void M() { int X = 1; } }\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := rules.NewVariableNames().Apply(ctx, snap, "a.cs")
	require.ErrorIs(t, err, context.Canceled)
	assert.Same(t, snap, out)
}

// budgetContext reports cancellation once Err has been consulted more than
// budget times.
type budgetContext struct {
	context.Context

	mu     sync.Mutex
	calls  int
	budget int
}

func newBudgetContext(budget int) *budgetContext {
	return &budgetContext{Context: context.Background(), budget: budget}
}

func (c *budgetContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.calls > c.budget {
		return context.Canceled
	}

	return nil
}

func TestApply_CancelledMidLoopKeepsCommittedRenames(t *testing.T) {
	t.Parallel()

	const source = "class C { void M() { int Abc = 1; int Def = Abc; int Ghi = Def; } }\n"

	committed := []string{
		source,
		"class C { void M() { int abc = 1; int Def = abc; int Ghi = Def; } }\n",
		"class C { void M() { int abc = 1; int def = abc; int Ghi = def; } }\n",
	}

	seen := make(map[int]bool)
	last := 0

	for budget := 0; ; budget++ {
		require.Less(t, budget, 100, "rule never completed")

		snap := load(t, map[string]string{"a.cs": source})

		out, err := rules.NewVariableNames().Apply(newBudgetContext(budget), snap, "a.cs")
		if err == nil {
			assert.Equal(t, "class C { void M() { int abc = 1; int def = abc; int ghi = def; } }\n", text(t, out, "a.cs"))

			break
		}

		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, out)
		assert.False(t, out.Tree("a.cs").ContainsAnnotations(), "budget %d", budget)

		got := text(t, out, "a.cs")
		idx := slices.Index(committed, got)
		require.NotEqual(t, -1, idx, "budget %d returned an uncommitted state: %s", budget, got)
		assert.GreaterOrEqual(t, idx, last, "budget %d", budget)

		if idx == 0 {
			assert.Same(t, snap, out, "budget %d", budget)
		}

		last = idx
		seen[idx] = true
	}

	assert.Len(t, seen, len(committed), "every committed prefix is observable")
}

func TestApply_FreshRunsRenameInSameOrder(t *testing.T) {
	t.Parallel()

	sources := map[string]string{
		"a.cs": `interface shape { }

class C : shape
{
    private const int k = 1;

    int M(int Value)
    {
        int Second = Value;
        int First = Second + k;
        return First;
    }
}
`,
		"b.cs": "class D : shape { void N(int Count) { } }\n",
	}

	applyAll := func() (map[program.DocumentID]string, []string) {
		var buf bytes.Buffer

		inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logger := slog.New(observability.NewTracingHandler(inner, observability.DefaultConfig()))

		snap := load(t, sources)

		for _, rule := range rules.Builtin(rules.WithLogger(logger)) {
			for _, id := range snap.DocumentIDs() {
				var err error

				snap, err = rule.Apply(context.Background(), snap, id)
				require.NoError(t, err)
			}
		}

		texts := make(map[program.DocumentID]string)
		for _, doc := range snap.Documents() {
			texts[doc.ID] = doc.Text()
		}

		return texts, renameOrder(t, &buf)
	}

	firstTexts, firstOrder := applyAll()
	secondTexts, secondOrder := applyAll()

	assert.Equal(t, firstTexts, secondTexts)
	assert.Equal(t, firstOrder, secondOrder)
	assert.Equal(t, []string{
		"variable-names a.cs Second->second",
		"variable-names a.cs First->first",
		"constant-field-names a.cs k->K",
		"interface-naming a.cs shape->IShape",
		"parameters-naming a.cs Value->value",
		"parameters-naming b.cs Count->count",
	}, firstOrder)
	assert.Equal(t, "class D : IShape { void N(int count) { } }\n", firstTexts["b.cs"])
}

// renameOrder lists the renames logged in buf as "rule document from->to".
func renameOrder(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()

	var order []string

	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var record map[string]any
		require.NoError(t, json.Unmarshal(line, &record))

		if record["msg"] != "renamed symbol" {
			continue
		}

		order = append(order, fmt.Sprintf("%v %v %v->%v", record["rule.id"], record["document"], record["from"], record["to"]))
	}

	return order
}

func TestApply_OpensDocumentSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	snap := load(t, map[string]string{"a.cs": "class C { void M() { int Total = 1; } }\n"})

	_, err := rules.NewVariableNames(rules.WithTracer(tp.Tracer("test"))).Apply(context.Background(), snap, "a.cs")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, rules.SpanApply, spans[0].Name)

	attrs := make(map[string]any)
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	assert.Equal(t, "variable-names", attrs[observability.KeyRuleID])
	assert.Equal(t, "a.cs", attrs["document.id"])
	assert.Equal(t, int64(1), attrs["rule.renamed"])
}

func TestApply_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := rules.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	snap := load(t, map[string]string{"a.cs": "class C { void M() { int X = 1; int y = X; int Z = y; } }\n"})

	_, err = rules.NewVariableNames(rules.WithMetrics(metrics)).Apply(context.Background(), snap, "a.cs")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	renames := findSum(t, rm, "namefix.renames.total")
	assert.Equal(t, int64(2), renames)

	skips := findSum(t, rm, "namefix.skips.total")
	assert.Equal(t, int64(1), skips, "y is marked but has no better name")
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}

			return total
		}
	}

	t.Fatalf("metric %s not recorded", name)

	return 0
}
