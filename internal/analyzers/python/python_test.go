package python

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

func analyze(t *testing.T, src string) *analysis.Record {
	t.Helper()
	rec, err := New().Analyze(context.Background(), src)
	require.NoError(t, err)
	return rec
}

func TestAnalyzeSimpleFunction(t *testing.T) {
	rec := analyze(t, "def add(a, b):\n    return a + b")

	require.Len(t, rec.Functions, 1)
	fn := rec.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Inputs, 2)
	assert.Equal(t, 0, fn.Branches)
	assert.Equal(t, 1, fn.LocalComplexity)
	assert.Equal(t, 1, fn.LineStart)
	assert.Equal(t, 2, fn.LineEnd)
	assert.Equal(t, 1, rec.Complexity)
	assert.Empty(t, rec.SideEffects)
	assert.Equal(t, []string{"a: Any", "b: Any"}, rec.Inputs)
}

func TestBranchesIfForTernary(t *testing.T) {
	src := `def classify(items, limit):
    total = 0
    if limit > 10:
        total = 1
    for item in items:
        total += item
    return "big" if total > limit else "small"
`
	rec := analyze(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 3, rec.Functions[0].Branches)
	assert.Equal(t, 4, rec.Functions[0].LocalComplexity)
	assert.Equal(t, []string{"Any"}, rec.Functions[0].Outputs)
}

func TestBranchesTryTwoHandlersFinally(t *testing.T) {
	src := `def load(path):
    try:
        data = read(path)
    except IOError:
        data = None
    except ValueError:
        data = ""
    finally:
        cleanup()
    return data
`
	rec := analyze(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 4, rec.Functions[0].Branches)
	assert.Equal(t, 5, rec.Functions[0].LocalComplexity)
	assert.Equal(t, []string{"io_operations"}, rec.SideEffects)
}

func TestElifAndWhile(t *testing.T) {
	src := `def f(x):
    while x > 0:
        if x == 1:
            x -= 1
        elif x == 2:
            x -= 2
        else:
            x -= 3
`
	rec := analyze(t, src)
	assert.Equal(t, 3, rec.Functions[0].Branches)
	assert.Empty(t, rec.Functions[0].Outputs, "no valued return means void")
	assert.Equal(t, []string{analysis.VoidSentinel}, rec.Outputs)
}

func TestSideEffectsAreASet(t *testing.T) {
	src := `def report(x):
    print(x)
    print(x + 1)
`
	rec := analyze(t, src)
	assert.Equal(t, []string{"io_operations"}, rec.SideEffects)
}

func TestSideEffectCategories(t *testing.T) {
	src := `import requests

counter = 0

def sync(self, url):
    global counter
    counter += 1
    resp = requests.post(url)
    self.cursor.execute("INSERT")
    self.last = resp
    raise RuntimeError("done")
`
	rec := analyze(t, src)

	for _, want := range []string{
		"network_operations",
		"database_operations",
		"global_state",
		"external_state_modification",
		"exception_throwing",
		"object_creation",
	} {
		assert.Contains(t, rec.SideEffects, want)
	}
}

func TestParameters(t *testing.T) {
	src := `def build(name: str, count: int = 3, flag=False, *args, **kwargs) -> dict:
    return {}
`
	rec := analyze(t, src)
	require.Len(t, rec.Functions, 1)

	assert.Equal(t, []analysis.Param{
		{Name: "name", Type: "str"},
		{Name: "count", Type: "int", Optional: true},
		{Name: "flag", Type: "Any", Optional: true},
		{Name: "*args", Type: "tuple", Variadic: true},
		{Name: "**kwargs", Type: "dict", Variadic: true},
	}, rec.Functions[0].Inputs)
	assert.Equal(t, []string{"dict"}, rec.Functions[0].Outputs)
}

func TestReturnInference(t *testing.T) {
	src := `def pick(x):
    if x:
        return 1
    if x is None:
        return "none"
    return 2
`
	rec := analyze(t, src)
	assert.Equal(t, []string{"int", "str"}, rec.Functions[0].Outputs)
}

func TestNestedFunctionsAreSeparateRecords(t *testing.T) {
	src := `def outer(xs):
    def inner(x):
        if x:
            return x
        return 0
    for x in xs:
        inner(x)
`
	rec := analyze(t, src)

	require.Len(t, rec.Functions, 2)
	assert.Equal(t, []string{"outer", "inner"}, rec.FunctionNames())
	assert.Equal(t, 1, rec.Functions[0].Branches)
	assert.Empty(t, rec.Functions[0].Outputs)
	assert.Equal(t, 1, rec.Functions[1].Branches)
	assert.Equal(t, 2, rec.Branches)
	assert.Equal(t, 4, rec.Complexity)
}

func TestLambdaBoundByAssignment(t *testing.T) {
	rec := analyze(t, "square = lambda n: n * n\n")

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, "square", rec.Functions[0].Name)
	assert.Equal(t, []analysis.Param{{Name: "n", Type: "Any"}}, rec.Functions[0].Inputs)
	assert.Equal(t, []string{"Any"}, rec.Functions[0].Outputs)
}

func TestAsyncFunction(t *testing.T) {
	src := `async def fetch_all(client):
    return await client.fetch()
`
	rec := analyze(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Contains(t, rec.SideEffects, "async_operations")
	assert.Contains(t, rec.SideEffects, "network_operations")
}

func TestNoFunctions(t *testing.T) {
	rec := analyze(t, "x = 1\n")

	assert.Empty(t, rec.Functions)
	assert.Empty(t, rec.Outputs)
	assert.Zero(t, rec.Complexity)
}

func TestSyntaxError(t *testing.T) {
	_, err := New().Analyze(context.Background(), "def broken(:\n    return")
	require.Error(t, err)
	assert.Equal(t, analysis.KindParse, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "line")
}

func TestDeterministic(t *testing.T) {
	src := "def f(a):\n    print(a)\n    open(a).write('x')\n    return a if a else None\n"
	first := analyze(t, src)
	second := analyze(t, src)
	assert.Equal(t, first, second)
}
