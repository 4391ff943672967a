package golang

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

func TestAnalyzeSnippetWithoutPackage(t *testing.T) {
	rec := analyze(t, "func add(a, b int) int {\n\treturn a + b\n}")

	require.Len(t, rec.Functions, 1)
	fn := rec.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []analysis.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, fn.Inputs)
	assert.Equal(t, []string{"int"}, fn.Outputs)
	assert.Equal(t, 1, fn.LineStart)
	assert.Equal(t, 3, fn.LineEnd)
	assert.Equal(t, 1, fn.LocalComplexity)
	assert.Empty(t, rec.SideEffects)
}

func TestBranches(t *testing.T) {
	src := `package calc

func score(xs []int, mode string) (total int, err error) {
	if len(xs) == 0 {
		return 0, nil
	}
	for _, x := range xs {
		total += x
	}
	switch mode {
	case "double":
		total *= 2
	case "half":
		total /= 2
	default:
	}
	return total, nil
}
`
	rec := analyze(t, src)

	require.Len(t, rec.Functions, 1)
	assert.Equal(t, 5, rec.Functions[0].Branches)
	assert.Equal(t, 6, rec.Functions[0].LocalComplexity)
	assert.Equal(t, []string{"int", "error"}, rec.Functions[0].Outputs)
	assert.Equal(t, 3, rec.Functions[0].LineStart)
}

func TestEmptySwitchCountsOnce(t *testing.T) {
	rec := analyze(t, "package p\n\nfunc f(x int) {\n\tswitch x {\n\t}\n}\n")
	assert.Equal(t, 1, rec.Functions[0].Branches)
	assert.Equal(t, []string{analysis.VoidSentinel}, rec.Outputs)
}

func TestMethodsVariadicAndBoundLiterals(t *testing.T) {
	src := `package p

type Store struct{ n int }

func (s *Store) Put(keys ...string) {
	s.n++
	handler := func(k string) bool {
		if k == "" {
			return false
		}
		return true
	}
	for _, k := range keys {
		handler(k)
	}
}
`
	rec := analyze(t, src)

	require.Len(t, rec.Functions, 2)
	assert.Equal(t, []string{"Store.Put", "handler"}, rec.FunctionNames())
	assert.Equal(t, []analysis.Param{{Name: "keys", Type: "string", Variadic: true}}, rec.Functions[0].Inputs)
	assert.Equal(t, 1, rec.Functions[0].Branches, "literal body is not counted in Put")
	assert.Equal(t, 1, rec.Functions[1].Branches)
	assert.Equal(t, []string{"bool"}, rec.Functions[1].Outputs)
	assert.Contains(t, rec.SideEffects, "external_state_modification")
}

func TestSideEffects(t *testing.T) {
	src := `package p

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var mu sync.Mutex

func run(ch chan int) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Println("start")
	fmt.Println("again")
	go func() { ch <- 1 }()
	time.Sleep(time.Millisecond)
	if _, err := os.ReadFile("x"); err != nil {
		panic(err)
	}
}
`
	rec := analyze(t, src)

	assert.Equal(t, []string{
		"async_operations",
		"exception_throwing",
		"file_operations",
		"io_operations",
		"synchronization",
		"timer_operations",
	}, rec.SideEffects)
}

func TestParseError(t *testing.T) {
	_, err := New().Analyze(context.Background(), "package p\n\nfunc broken( {\n")
	require.Error(t, err)
	assert.Equal(t, analysis.KindParse, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "line ")
}
