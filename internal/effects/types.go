package effects

import "sort"

// Category is a side-effect label from the fixed vocabulary below.
type Category string

const (
	IO                Category = "io_operations"
	System            Category = "system_operations"
	Network           Category = "network_operations"
	Database          Category = "database_operations"
	File              Category = "file_operations"
	Reflection        Category = "reflection"
	ExternalState     Category = "external_state_modification"
	ExceptionThrowing Category = "exception_throwing"
	Synchronization   Category = "synchronization"
	DOM               Category = "dom_operations"
	Storage           Category = "storage_operations"
	Timer             Category = "timer_operations"
	GlobalState       Category = "global_state"
	Async             Category = "async_operations"
	ModuleLoading     Category = "module_loading"
	ObjectCreation    Category = "object_creation"
)

// Vocabulary lists every category the classifier can emit.
var Vocabulary = []Category{
	IO, System, Network, Database, File, Reflection, ExternalState,
	ExceptionThrowing, Synchronization, DOM, Storage, Timer, GlobalState,
	Async, ModuleLoading, ObjectCreation,
}

// Trigger identifies the syntactic shape a Site came from.
type Trigger int

const (
	// TriggerCall is a call expression; Name is the callee identifier or
	// member name, Qualified the full callee text (e.g. "os.Exit").
	TriggerCall Trigger = iota
	// TriggerAssign is an assignment whose target is a member access;
	// Name is the member, Qualified the full target text.
	TriggerAssign
	// TriggerConstruct is a language keyword construct such as throw,
	// raise, new, synchronized, global, await or go.
	TriggerConstruct
)

// Site is one call, assignment or construct observed by an analyzer.
type Site struct {
	Trigger   Trigger
	Name      string
	Qualified string
}

// Call builds a call site from the full callee text.
func Call(qualified string) Site {
	return Site{Trigger: TriggerCall, Name: lastSegment(qualified), Qualified: qualified}
}

// Assign builds an assignment site from the full target text.
func Assign(target string) Site {
	return Site{Trigger: TriggerAssign, Name: lastSegment(target), Qualified: target}
}

// Construct builds a keyword construct site.
func Construct(keyword string) Site {
	return Site{Trigger: TriggerConstruct, Name: keyword, Qualified: keyword}
}

func lastSegment(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}

// Set is an idempotent collection of categories.
type Set map[Category]struct{}

// NewSet returns a set holding the given categories.
func NewSet(cats ...Category) Set {
	s := make(Set, len(cats))
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts the categories and returns the receiver.
func (s Set) Add(cats ...Category) Set {
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

// Strings returns the members sorted, so output is stable for identical input.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
