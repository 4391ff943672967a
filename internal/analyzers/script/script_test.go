package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

func analyzeJS(t *testing.T, src string) *analysis.Record {
	t.Helper()
	rec, err := NewJavaScript().Analyze(context.Background(), src)
	require.NoError(t, err)
	return rec
}

func TestSimpleFunction(t *testing.T) {
	rec := analyzeJS(t, "function add(a, b) {\n  return a + b;\n}\n")

	require.Len(t, rec.Functions, 1)
	fn := rec.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []string{"a: any", "b: any"}, rec.Inputs)
	assert.Equal(t, []string{"any"}, fn.Outputs)
	assert.Equal(t, 1, fn.LineStart)
	assert.Equal(t, 3, fn.LineEnd)
	assert.Equal(t, 0, fn.Branches)
	assert.Equal(t, 1, fn.LocalComplexity)
	assert.Empty(t, rec.SideEffects)
	assert.Equal(t, JavaScript, rec.Language)
}

func TestBranchesIfForTernary(t *testing.T) {
	src := `function label(items, limit) {
  let total = 0;
  if (limit > 10) {
    total = 1;
  }
  for (const item of items) {
    total += item;
  }
  return total > limit ? "big" : "small";
}
`
	rec := analyzeJS(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 3, rec.Functions[0].Branches)
	assert.Equal(t, 4, rec.Functions[0].LocalComplexity)
}

func TestTryCatchFinally(t *testing.T) {
	src := `function load(path) {
  try {
    return parse(path);
  } catch (err) {
    return null;
  } finally {
    done();
  }
}
`
	rec := analyzeJS(t, src)
	assert.Equal(t, 3, rec.Functions[0].Branches)
}

func TestPromiseCatchIsNotAHandler(t *testing.T) {
	src := `function go(p) {
  return p.then(ok).catch(fail).finally(done);
}
`
	rec := analyzeJS(t, src)
	assert.Equal(t, 0, rec.Functions[0].Branches)
	assert.Contains(t, rec.SideEffects, "async_operations")
}

func TestSwitchCases(t *testing.T) {
	src := `function code(x) {
  switch (x) {
    case 1:
      return "one";
    case 2:
      return "two";
    default:
      return "other";
  }
}

function none(x) {
  switch (x) {
  }
}
`
	rec := analyzeJS(t, src)

	require.Len(t, rec.Functions, 2)
	assert.Equal(t, 3, rec.Functions[0].Branches)
	assert.Equal(t, 1, rec.Functions[1].Branches)
	assert.Empty(t, rec.Functions[1].Outputs)
}

func TestDefaultKeyIsNotASwitchClause(t *testing.T) {
	src := `function opts(x) {
  const o = { default: 1, other: 2 };
  switch (x) {
    default:
      return o;
  }
}
`
	rec := analyzeJS(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 1, rec.Functions[0].Branches)
}

func TestArrowFunctionsAndMethods(t *testing.T) {
	src := "const double = (n) => n * 2;\n" +
		"const greet = async name => {\n" +
		"  await sleep(10);\n" +
		"  return `hi ${name}`;\n" +
		"};\n" +
		"class Cart {\n" +
		"  constructor(items = []) {\n" +
		"    this.items = items;\n" +
		"  }\n" +
		"  total() {\n" +
		"    return this.items.reduce((sum, i) => sum + i.price, 0);\n" +
		"  }\n" +
		"}\n"
	rec := analyzeJS(t, src)

	require.Equal(t, []string{"double", "greet", "constructor", "total"}, rec.FunctionNames())

	assert.Equal(t, []analysis.Param{{Name: "n", Type: "any"}}, rec.Functions[0].Inputs)
	assert.Equal(t, []string{"any"}, rec.Functions[0].Outputs)
	assert.Equal(t, 1, rec.Functions[0].LineEnd)

	assert.Equal(t, []analysis.Param{{Name: "name", Type: "any"}}, rec.Functions[1].Inputs)
	assert.Equal(t, 2, rec.Functions[1].LineStart)
	assert.Equal(t, 5, rec.Functions[1].LineEnd)

	assert.Equal(t, []analysis.Param{{Name: "items", Type: "any", Optional: true}}, rec.Functions[2].Inputs)
	assert.Empty(t, rec.Functions[2].Outputs)
	assert.Equal(t, []string{"any"}, rec.Functions[3].Outputs)

	assert.Equal(t, []string{"async_operations", "external_state_modification", "timer_operations"}, rec.SideEffects)
}

func TestNestedFunctionsExcluded(t *testing.T) {
	src := `function outer(list) {
  function inner(x) {
    if (x) {
      return x;
    }
    return 0;
  }
  for (const x of list) {
    inner(x);
  }
}
`
	rec := analyzeJS(t, src)

	require.Equal(t, []string{"outer", "inner"}, rec.FunctionNames())
	assert.Equal(t, 1, rec.Functions[0].Branches)
	assert.Empty(t, rec.Functions[0].Outputs)
	assert.Equal(t, 1, rec.Functions[1].Branches)
	assert.Equal(t, []string{"any"}, rec.Functions[1].Outputs)
}

func TestTypeScriptParameters(t *testing.T) {
	src := `export function build(name: string, count?: number, flag: boolean = false, ...rest: string[]): Record<string, number> {
  return {};
}

export function log(msg: string): void {
  console.log(msg);
}
`
	rec, err := NewTypeScript().Analyze(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, rec.Functions, 2)
	assert.Equal(t, TypeScript, rec.Language)
	assert.Equal(t, []analysis.Param{
		{Name: "name", Type: "string"},
		{Name: "count", Type: "number", Optional: true},
		{Name: "flag", Type: "boolean", Optional: true},
		{Name: "rest", Type: "string[]", Variadic: true},
	}, rec.Functions[0].Inputs)
	assert.Equal(t, []string{"Record<string, number>"}, rec.Functions[0].Outputs)
	assert.Empty(t, rec.Functions[1].Outputs)
	assert.Equal(t, []string{"io_operations"}, rec.SideEffects)
}

func TestSideEffects(t *testing.T) {
	src := `async function save(user) {
  const res = await fetch("/api/users");
  localStorage.setItem("user", user.id);
  document.getElementById("name").innerHTML = user.name;
  window.currentUser = user;
  setTimeout(() => console.log("saved"), 100);
  if (!res.ok) {
    throw new Error("failed");
  }
  const audit = await import("./audit.js");
  return res;
}
`
	rec := analyzeJS(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 1, rec.Functions[0].Branches)
	assert.Equal(t, []string{
		"async_operations",
		"dom_operations",
		"exception_throwing",
		"external_state_modification",
		"global_state",
		"io_operations",
		"module_loading",
		"network_operations",
		"object_creation",
		"storage_operations",
		"timer_operations",
	}, rec.SideEffects)
}

func TestSideEffectsAreASet(t *testing.T) {
	src := "function f() {\n  console.log(1);\n  console.log(2);\n}\n"
	assert.Equal(t, []string{"io_operations"}, analyzeJS(t, src).SideEffects)
}

func TestStringsAndCommentsIgnored(t *testing.T) {
	src := `function quiet() {
  // if (x) { print() }
  const s = "for while if";
  /* try { } catch (e) { } */
  const re = /[(]/;
  return s;
}
`
	rec := analyzeJS(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 0, rec.Functions[0].Branches)
	assert.Empty(t, rec.SideEffects)
}

func TestRegexAfterKeyword(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		branches int
	}{
		{"return", "function f(s) {\n  return /[(]/.test(s)\n}\n", 0},
		{"guarded return", "function f(s) {\n  if (s) return /\\)/.test(s)\n  return false\n}\n", 1},
		{"typeof and in", "function f(o) {\n  const t = typeof /{/;\n  return 'k' in /[}]/;\n}\n", 0},
		{"case label", "function f(x) {\n  switch (x) {\n    case /]/.source:\n      return 1;\n  }\n}\n", 1},
		{"throw", "function f() {\n  throw /[[]/;\n}\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := analyzeJS(t, tt.src)
			require.Len(t, rec.Functions, 1)
			assert.Equal(t, "f", rec.Functions[0].Name)
			assert.Equal(t, tt.branches, rec.Functions[0].Branches)
		})
	}
}

func TestDivisionAfterIdentifier(t *testing.T) {
	rec := analyzeJS(t, "function half(total, n) {\n  return total / n / (2);\n}\n")
	require.Len(t, rec.Functions, 1)
	assert.Equal(t, "half", rec.Functions[0].Name)
}

func TestOptionalChainingIsNotATernary(t *testing.T) {
	rec := analyzeJS(t, "const pick = (o) => o?.a ?? o?.b;\n")

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 0, rec.Functions[0].Branches)
}

func TestMalformedSource(t *testing.T) {
	for _, src := range []string{
		"function broken( {",
		"const s = \"abc\n",
		"function f() { /* never closed",
		"function f() { return [1, 2); }",
	} {
		_, err := NewJavaScript().Analyze(context.Background(), src)
		require.Error(t, err, src)
		assert.Equal(t, analysis.KindParse, analysis.KindOf(err), src)
	}
}

func TestDeterministic(t *testing.T) {
	src := "function f(a) {\n  if (a) { fetch(a); }\n  return a ? 1 : 2;\n}\n"
	first := analyzeJS(t, src)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, analyzeJS(t, src))
	}
}

func TestParseParams(t *testing.T) {
	src := "cb: (x: number) => void, { a, b }: Props, private readonly id: string"
	got := parseParams(src, src)

	assert.Equal(t, []analysis.Param{
		{Name: "cb", Type: "(x: number) => void"},
		{Name: "{ a, b }", Type: "Props"},
		{Name: "id", Type: "string"},
	}, got)
}

func TestCountTernaries(t *testing.T) {
	assert.Equal(t, 1, countTernaries("a ? b : c"))
	assert.Equal(t, 2, countTernaries("a ? (b ? 1 : 2) : 3"))
	assert.Equal(t, 0, countTernaries("a?.b ?? c"))
	assert.Equal(t, 0, countTernaries("function f(x?: number, y?) {}"))
}
