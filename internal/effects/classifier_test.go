package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCalls(t *testing.T) {
	tests := []struct {
		callee string
		want   Category
	}{
		{"print", IO},
		{"System.out.println", IO},
		{"f.flush", IO},
		{"console.log", IO},
		{"os.Exit", System},
		{"System.currentTimeMillis", System},
		{"requests.post", Network},
		{"socket.connect", Network},
		{"cursor.execute", Database},
		{"conn.commit", Database},
		{"os.makedirs", File},
		{"Class.forName", Reflection},
		{"getattr", Reflection},
		{"panic", ExceptionThrowing},
		{"mu.Lock", Synchronization},
		{"document.getElementById", DOM},
		{"localStorage.setItem", Storage},
		{"setTimeout", Timer},
		{"time.Sleep", Timer},
		{"globals", GlobalState},
		{"promise.then", Async},
		{"require", ModuleLoading},
		{"importlib.import_module", ModuleLoading},
		{"make", ObjectCreation},
	}
	for _, tt := range tests {
		t.Run(tt.callee, func(t *testing.T) {
			assert.Contains(t, Classify(Call(tt.callee)), tt.want)
		})
	}
}

func TestClassifyNoMatch(t *testing.T) {
	assert.Empty(t, Classify(Call("add")))
	assert.Empty(t, Classify(Call("strings.TrimSpace")))
	assert.Empty(t, Classify(Site{}))
}

func TestClassifyMultipleCategories(t *testing.T) {
	// "delete" is listed for network, database and file by name alone.
	got := Classify(Call("repo.delete"))
	assert.Equal(t, []Category{Network, Database, File}, got)
}

func TestClassifyAssignments(t *testing.T) {
	assert.Equal(t, []Category{ExternalState}, Classify(Assign("self.count")))
	assert.Equal(t, []Category{DOM, ExternalState}, Classify(Assign("el.innerHTML")))
	assert.Equal(t, []Category{Storage, ExternalState}, Classify(Assign("localStorage.token")))
	assert.Equal(t, []Category{GlobalState, ExternalState}, Classify(Assign("window.app")))
}

func TestClassifyConstructs(t *testing.T) {
	tests := map[string]Category{
		"throw":        ExceptionThrowing,
		"raise":        ExceptionThrowing,
		"synchronized": Synchronization,
		"global":       GlobalState,
		"nonlocal":     GlobalState,
		"await":        Async,
		"go":           Async,
		"new":          ObjectCreation,
	}
	for kw, want := range tests {
		assert.Equal(t, []Category{want}, Classify(Construct(kw)), kw)
	}
}

func TestTriggerIsolation(t *testing.T) {
	// A construct keyword used as a call name must not hit construct rules.
	assert.NotContains(t, Classify(Call("throw")), ExceptionThrowing)
	// Call patterns never fire for assignment sites.
	assert.NotContains(t, Classify(Assign("obj.print")), IO)
}

func TestCollectIsIdempotent(t *testing.T) {
	set := Collect([]Site{Call("print"), Call("sys.stdout.write"), Call("print")})
	assert.Equal(t, []string{"io_operations"}, set.Strings())
}

func TestSetAddAndStrings(t *testing.T) {
	s := NewSet(Network, IO).Add(IO, Database)

	assert.Len(t, s, 3)
	assert.Equal(t, []string{"database_operations", "io_operations", "network_operations"}, s.Strings())
}

func TestTableCoversVocabulary(t *testing.T) {
	covered := NewSet()
	for _, r := range Table {
		covered.Add(r.Category)
	}
	for _, c := range Vocabulary {
		assert.Contains(t, covered, c, "no rule emits %s", c)
	}
}
