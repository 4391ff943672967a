package effects

import "regexp"

// Rule maps a trigger pattern to a category. Patterns are matched against
// Site.Name unless Qualified is set, in which case the full text is used.
type Rule struct {
	Trigger   Trigger
	Pattern   *regexp.Regexp
	Qualified bool
	Category  Category
}

func callRule(pattern string, c Category) Rule {
	return Rule{Trigger: TriggerCall, Pattern: regexp.MustCompile(`(?i)^(?:` + pattern + `)$`), Category: c}
}

func assignRule(pattern string, qualified bool, c Category) Rule {
	return Rule{Trigger: TriggerAssign, Pattern: regexp.MustCompile(`^(?:` + pattern + `)$`), Qualified: qualified, Category: c}
}

func constructRule(pattern string, c Category) Rule {
	return Rule{Trigger: TriggerConstruct, Pattern: regexp.MustCompile(`^(?:` + pattern + `)$`), Category: c}
}

// Table is the ordered pattern table. Matching is name based and will both
// under- and over-classify; a name may map to several categories.
var Table = []Rule{
	callRule(`print|println|printf|log|warn|input|open|write|writeln|writelines|read|readline|readlines|flush|close|fprintf|fprintln|scanln|scanf`, IO),
	callRule(`exit|gc|currenttimemillis|nanotime|getenv|setenv|putenv|unsetenv|system|popen|spawn|fork|kill|getpid|environ`, System),
	callRule(`connect|send|sendall|receive|recv|get|post|put|patch|delete|fetch|request|urlopen|dial|listen|accept`, Network),
	callRule(`execute|executemany|executequery|executeupdate|query|queryrow|update|insert|delete|commit|rollback|cursor|exec|begintx`, Database),
	callRule(`create|delete|move|copy|exists|mkdir|mkdirs|makedirs|mkdirall|remove|removeall|unlink|rename|rmdir|readfile|writefile|chmod|truncate`, File),
	callRule(`getclass|forname|newinstance|invoke|getattr|setattr|hasattr|delattr|eval|exec|getdeclaredmethod|getmethod|valueof|typeof`, Reflection),
	callRule(`panic`, ExceptionThrowing),
	callRule(`lock|unlock|rlock|runlock|trylock|acquire|release|wait|notify|notifyall|signal|broadcast`, Synchronization),
	callRule(`getelementbyid|getelementsbyclassname|getelementsbytagname|queryselector|queryselectorall|createelement|appendchild|removechild|insertbefore|setattribute|addeventlistener|removeeventlistener`, DOM),
	callRule(`getitem|setitem|removeitem`, Storage),
	callRule(`settimeout|setinterval|cleartimeout|clearinterval|requestanimationframe|sleep|newtimer|newticker|afterfunc|tick|schedule`, Timer),
	callRule(`globals|locals`, GlobalState),
	callRule(`then|allsettled|gather|create_task|ensure_future|run_until_complete|supplyasync|runasync`, Async),
	callRule(`require|import|__import__|import_module|loadlibrary|importscripts`, ModuleLoading),
	callRule(`new|make`, ObjectCreation),

	assignRule(`innerHTML|outerHTML|innerText|textContent`, false, DOM),
	assignRule(`(?:localStorage|sessionStorage)\..+`, true, Storage),
	assignRule(`(?:window|globalThis|global|process\.env)\..+`, true, GlobalState),
	assignRule(`.+`, false, ExternalState),

	constructRule(`throw|raise`, ExceptionThrowing),
	constructRule(`synchronized|select|chan_send`, Synchronization),
	constructRule(`global|nonlocal`, GlobalState),
	constructRule(`async|await|go|yield_await`, Async),
	constructRule(`new`, ObjectCreation),
	constructRule(`dynamic_import`, ModuleLoading),
}

// Classify returns the categories matched by site, in table order.
func Classify(site Site) []Category {
	return classifyWith(Table, site)
}

func classifyWith(table []Rule, site Site) []Category {
	if site.Name == "" && site.Qualified == "" {
		return nil
	}
	var out []Category
	seen := make(map[Category]bool)
	for _, r := range table {
		if r.Trigger != site.Trigger || seen[r.Category] {
			continue
		}
		subject := site.Name
		if r.Qualified {
			subject = site.Qualified
		}
		if r.Pattern.MatchString(subject) {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Collect classifies every site and folds the results into a new set.
func Collect(sites []Site) Set {
	s := NewSet()
	for _, site := range sites {
		s.Add(Classify(site)...)
	}
	return s
}
