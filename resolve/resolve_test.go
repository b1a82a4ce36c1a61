package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ftdr/cont"
	"github.com/ardnew/ftdr/ir"
)

const greetingModule = "-- string greeting: Hi\n"

func TestContinue_ImportThenInvoke(t *testing.T) {
	src := "-- import: a.b/c\n\n-- c.greeting: Hi\n"
	st := New("main", src)

	res, err := Continue(st)
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}

	if res.Status != StatusStuckOnImport {
		t.Fatalf("status = %v, want %v", res.Status, StatusStuckOnImport)
	}

	want := []ImportRequest{{Module: "a.b/c", Importer: "main", Line: 1}}
	if diff := cmp.Diff(want, res.Imports()); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}

	res, err = ContinueAfter(st, []ModuleSource{{Module: "a.b/c", Source: ptr(greetingModule)}})
	if err != nil {
		t.Fatalf("ContinueAfter: %v", err)
	}

	if !res.Done() {
		t.Fatalf("status = %v, want done", res.Status)
	}

	wantNoErrors(t, res.Output)
	doc := wantDocument(t, res.Output)

	v := thing[*ir.Variable](t, doc, "a.b/c#greeting")
	if got := literal(t, v.Value); got != "Hi" {
		t.Errorf("greeting = %v, want Hi", got)
	}

	if len(doc.Content) != 1 {
		t.Fatalf("content = %d items, want 1", len(doc.Content))
	}

	inv := doc.Content[0]
	if inv.Name != "c.greeting" || inv.Symbol != "a.b/c#greeting" {
		t.Errorf("invocation = %s (%s)", inv.Name, inv.Symbol)
	}

	if got := literal(t, property(t, inv, "value").Value); got != "Hi" {
		t.Errorf("value = %v, want Hi", got)
	}
}

func TestContinue_MutualImport(t *testing.T) {
	h := &host{modules: map[string]string{
		"b": "-- import: main\n\n-- string x: y\n",
	}}

	out := resolveDoc(t, h, "main", "-- import: b\n\n-- ftd.text: hi\n")

	if out.Document != nil {
		t.Errorf("compiled document for an abandoned root: %v", out.Document)
	}

	cycles := out.Diagnostics.WithCode(CodeCyclicDependency)
	if len(cycles) != 1 {
		t.Fatalf("cyclic diagnostics = %v", out.Diagnostics)
	}

	if !strings.Contains(cycles[0].Message, "main -> b -> main") {
		t.Errorf("message = %q", cycles[0].Message)
	}
}

func TestContinue_SelfImport(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- import: main\n")

	if out.Document != nil {
		t.Error("compiled document for a self-importing root")
	}

	if len(out.Diagnostics.WithCode(CodeCyclicDependency)) != 1 {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestContinue_UnresolvedComponent(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- foo.nonexistent:\n\n-- ftd.text: ok\n")

	unresolved := out.Diagnostics.WithCode(CodeUnresolvedSymbol)
	if len(unresolved) != 1 {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	if got := unresolved[0].Symbol; got != "foo#nonexistent" {
		t.Errorf("symbol = %q, want foo#nonexistent", got)
	}

	if got := unresolved[0].Line; got != 1 {
		t.Errorf("line = %d, want 1", got)
	}

	doc := wantDocument(t, out)
	if len(doc.Content) != 1 || doc.Content[0].Name != "ftd.text" {
		t.Errorf("content = %v", doc.Content)
	}
}

func TestContinue_ForeignVariable(t *testing.T) {
	src := "-- ftd.text: Hello\ncolor if { dark-mode }: white\n"

	for _, tt := range []struct {
		value string
		color bool
	}{
		{"true", true},
		{"false", false},
	} {
		t.Run(tt.value, func(t *testing.T) {
			h := &host{foreign: map[string]string{"dark-mode": tt.value}}
			out := resolveDoc(t, h, "main", src)

			wantNoErrors(t, out)

			want := []ForeignRequest{{Variable: "dark-mode", Document: "main", Line: 2}}
			if diff := cmp.Diff(want, h.requests); diff != "" {
				t.Errorf("requests mismatch (-want +got):\n%s", diff)
			}

			inv := wantDocument(t, out).Content[0]

			p, ok := inv.Property("color")
			if ok != tt.color {
				t.Fatalf("color present = %v, want %v", ok, tt.color)
			}

			if ok && literal(t, p.Value) != "white" {
				t.Errorf("color = %v", literal(t, p.Value))
			}

			if got := literal(t, property(t, inv, "text").Value); got != "Hello" {
				t.Errorf("text = %v", got)
			}
		})
	}
}

func TestContinue_ForeignVariableMissing(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- ftd.text: Hello\nif: { flag }\n")

	missing := out.Diagnostics.WithCode(CodeForeignVariableMissing)
	if len(missing) != 1 || missing[0].Symbol != "flag" {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	if doc := wantDocument(t, out); len(doc.Content) != 0 {
		t.Errorf("content = %v", doc.Content)
	}
}

func TestContinue_ForwardReference(t *testing.T) {
	src := `-- string a: $b

-- record r:
s inner:

-- record s:
integer n: 1

-- s y:

-- r x:
inner: $y

-- string b: hello
`

	out := resolveDoc(t, nil, "main", src)
	wantNoErrors(t, out)

	doc := wantDocument(t, out)

	a := thing[*ir.Variable](t, doc, "main#a")
	if a.Value.Ref == nil || a.Value.Ref.Symbol != "main#b" {
		t.Errorf("a = %v", a.Value)
	}

	r := thing[*ir.Record](t, doc, "main#r")
	if got := r.Fields[0].Kind.Kind.Name; got != "main#s" {
		t.Errorf("r.inner kind = %q", got)
	}

	x := thing[*ir.Variable](t, doc, "main#x")
	rec, ok := x.Value.Value.Data.(*ir.RecordValue)
	if !ok {
		t.Fatalf("x = %v", x.Value)
	}

	inner, _ := rec.Field("inner")
	if inner.Ref == nil || inner.Ref.Symbol != "main#y" {
		t.Errorf("x.inner = %v", inner)
	}
}

func TestContinue_RecursiveKinds(t *testing.T) {
	src := `-- record node:
caption name:
optional node next:
node list children:
`

	out := resolveDoc(t, nil, "main", src)
	wantNoErrors(t, out)

	n := thing[*ir.Record](t, wantDocument(t, out), "main#node")
	if len(n.Fields) != 3 {
		t.Fatalf("fields = %v", n.Fields)
	}
}

func TestContinue_DefinitionCycle(t *testing.T) {
	src := "-- string a: $b\n\n-- string b: $a\n\n-- string c: $a\n\n-- string d: ok\n"

	out := resolveDoc(t, nil, "main", src)

	cycles := out.Diagnostics.WithCode(CodeCyclicDependency)
	if len(cycles) != 1 {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	if !strings.Contains(cycles[0].Message, "a -> b -> a") {
		t.Errorf("message = %q", cycles[0].Message)
	}

	var derived []string

	for _, d := range out.Diagnostics {
		if d.Derived {
			derived = append(derived, d.Symbol)
		}
	}

	if diff := cmp.Diff([]string{"main#a"}, derived); diff != "" {
		t.Errorf("derived mismatch (-want +got):\n%s", diff)
	}

	doc := wantDocument(t, out)
	if _, ok := doc.Bag["main#d"]; !ok {
		t.Error("independent definition d missing")
	}

	for _, name := range []string{"main#a", "main#b", "main#c"} {
		if _, ok := doc.Bag[name]; ok {
			t.Errorf("poisoned %s in bag", name)
		}
	}
}

func TestContinue_SelfReference(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- integer n: { n + 1 }\n")

	cycles := out.Diagnostics.WithCode(CodeCyclicDependency)
	if len(cycles) != 1 || cycles[0].Symbol != "main#n" {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestContinue_SuspendResumeEquivalence(t *testing.T) {
	lib := "-- record person:\ncaption name:\ninteger age: 30\n\n-- person admin: Ada\n"
	src := `-- import: org/lib as lib
exposing: admin

-- string who: $admin.name

-- lib.person p: Grace
age: 40

-- ftd.text: $lib.admin.name
`

	h := &host{modules: map[string]string{"org/lib": lib}}
	split := resolveDoc(t, h, "main", src)

	if h.rounds != 1 {
		t.Errorf("rounds = %d, want 1", h.rounds)
	}

	whole := resolveDoc(t, nil, "main", src, WithSource("org/lib", lib))

	wantNoErrors(t, split)

	if diff := cmp.Diff(whole, split); diff != "" {
		t.Errorf("output mismatch (-whole +split):\n%s", diff)
	}
}

func TestContinue_Determinism(t *testing.T) {
	src := `-- integer n: 5

-- string list names:
-- string: Alice
-- string: Bob
-- end: names

-- ftd.column:

-- ftd.text: $name
$loop$: $names as $name

-- ftd.integer: { n * 2 }

-- end: ftd.column
`

	first := resolveDoc(t, nil, "main", src)
	second := resolveDoc(t, nil, "main", src)

	wantNoErrors(t, first)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestContinue_BatchedImports(t *testing.T) {
	h := &host{modules: map[string]string{
		"x": greetingModule,
		"y": greetingModule,
		"z": greetingModule,
	}}

	src := "-- import: x\n-- import: y\n-- import: z\n-- import: x\nas: again\n"
	out := resolveDoc(t, h, "main", src)

	if h.rounds != 1 {
		t.Errorf("rounds = %d, want 1", h.rounds)
	}

	var modules []string
	for _, r := range h.imports {
		modules = append(modules, r.Module)
	}

	if diff := cmp.Diff([]string{"x", "y", "z"}, modules); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}

	wantNoErrors(t, out)
}

func TestContinue_MissingModule(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- import: nowhere/mod as m\n\n-- m.thing:\n")

	invalid := out.Diagnostics.WithCode(CodeInvalidImportTarget)
	if len(invalid) != 1 || invalid[0].Symbol != "nowhere/mod" {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	derived := out.Diagnostics.WithCode(CodeUnresolvedSymbol)
	if len(derived) != 1 || !derived[0].Derived {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestContinue_ImportFilters(t *testing.T) {
	lib := "-- string greeting: Hi\n\n-- string secret: x\n"
	h := &host{modules: map[string]string{"lib": lib}}

	src := `-- import: lib
exports: greeting
exposing: greeting

-- string copy: $greeting

-- string qualified: $lib.greeting

-- string hidden: $lib.secret

-- string typo: $lib.greting
`

	out := resolveDoc(t, h, "main", src)
	doc := wantDocument(t, out)

	copied := thing[*ir.Variable](t, doc, "main#copy")
	if copied.Value.Ref.Symbol != "lib#greeting" {
		t.Errorf("copy = %v", copied.Value)
	}

	if _, ok := doc.Bag["main#qualified"]; !ok {
		t.Error("qualified reference failed")
	}

	unresolved := out.Diagnostics.WithCode(CodeUnresolvedSymbol)
	if len(unresolved) != 2 {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	if !strings.Contains(unresolved[0].Message, "not exported") {
		t.Errorf("hidden: %v", unresolved[0])
	}

	if unresolved[1].Symbol != "lib#greting" {
		t.Errorf("typo: %v", unresolved[1])
	}
}

func TestContinue_ExposedShadowsDefinition(t *testing.T) {
	h := &host{modules: map[string]string{
		"lib":   "-- string greeting: Hi\n",
		"other": "-- string greeting: Hey\n",
	}}

	src := `-- import: lib
exposing: greeting

-- string greeting: Hello

-- string copy: $greeting
`

	out := resolveDoc(t, h, "main", src)
	wantNoErrors(t, out)

	dups := out.Diagnostics.WithCode(CodeDuplicateDefinition)
	if len(dups) != 1 || dups[0].Severity != SeverityWarning || dups[0].Symbol != "lib#greeting" {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	copied := thing[*ir.Variable](t, wantDocument(t, out), "main#copy")
	if copied.Value.Ref.Symbol != "lib#greeting" {
		t.Errorf("copy = %v", copied.Value)
	}

	twice := "-- import: lib\nexposing: greeting\n\n-- import: other\nexposing: greeting\n"

	out = resolveDoc(t, h, "main", twice)

	dups = out.Diagnostics.WithCode(CodeDuplicateDefinition)
	if len(dups) != 1 || !strings.Contains(dups[0].Message, "lib#greeting") {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestContinue_Export(t *testing.T) {
	h := &host{modules: map[string]string{
		"base": greetingModule,
		"mid":  "-- import: base\n\n-- export: base.greeting\nas: hello\n",
	}}

	st := New("main", "-- import: mid\n\n-- string s: $mid.hello\n")
	out := h.run(t, st)
	wantNoErrors(t, out)

	s := thing[*ir.Variable](t, wantDocument(t, out), "main#s")
	if s.Value.Ref.Symbol != "base#greeting" {
		t.Errorf("s = %v", s.Value)
	}

	hello, ok := st.Bag().Lookup("mid#hello")
	if e, isExport := hello.(*ir.Export); !ok || !isExport || e.TargetName != "base#greeting" || e.Symbol() != "mid#hello" {
		t.Errorf("mid#hello = %#v", hello)
	}
}

func TestContinue_Processor(t *testing.T) {
	src := `-- string list names:
$processor$: pr.names
source: people

-- ftd.text: $name
$loop$: $names as $name
`

	h := &host{processors: map[string]string{"pr.names": "[Alice, Bob]"}}
	out := resolveDoc(t, h, "main", src)
	wantNoErrors(t, out)

	want := []ProcessorCall{{
		ID:        "main:1",
		Document:  "main",
		Processor: "pr.names",
		Qualified: "pr.names",
		Headers:   map[string]string{"source": "people"},
		Line:      1,
	}}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	doc := wantDocument(t, out)

	names := thing[*ir.Variable](t, doc, "main#names")
	if names.Processor != "pr.names" {
		t.Errorf("processor = %q", names.Processor)
	}

	items, ok := literal(t, names.Value).([]ir.PropertyValue)
	if !ok || len(items) != 2 || items[1].Value.Data != "Bob" {
		t.Errorf("names = %v", names.Value)
	}

	inv := doc.Content[0]
	if inv.Loop == nil || inv.Loop.Alias != "name" {
		t.Fatalf("loop = %v", inv.Loop)
	}

	if ref := property(t, inv, "text").Value.Ref; ref == nil || ref.Local != "name" {
		t.Errorf("text = %v", property(t, inv, "text").Value)
	}
}

func TestContinue_ProcessorInContent(t *testing.T) {
	src := "-- import: ftd/processors as pr\n\n-- ftd.image:\n$processor$: pr.logo\n"

	h := &host{
		modules:    map[string]string{"ftd/processors": ""},
		processors: map[string]string{"pr.logo": "{src: logo.png, alt: Logo}"},
	}

	out := resolveDoc(t, h, "main", src)
	wantNoErrors(t, out)

	if got := h.calls[0].Qualified; got != "ftd/processors#logo" {
		t.Errorf("qualified = %q", got)
	}

	inv := wantDocument(t, out).Content[0]
	if got := literal(t, property(t, inv, "src").Value); got != "logo.png" {
		t.Errorf("src = %v", got)
	}
}

func TestContinue_ProcessorFailed(t *testing.T) {
	src := "-- string title:\n$processor$: pr.title\n\n-- ftd.text: $title\n"

	h := &host{failing: map[string]string{"pr.title": "connection refused"}}
	out := resolveDoc(t, h, "main", src)

	failed := out.Diagnostics.WithCode(CodeProcessorFailed)
	if len(failed) != 1 || !strings.Contains(failed[0].Message, "connection refused") {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	derived := out.Diagnostics.WithCode(CodeUnresolvedSymbol)
	if len(derived) != 1 || !derived[0].Derived || derived[0].Symbol != "main#title" {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestContinue_Expressions(t *testing.T) {
	src := `-- integer n: 5

-- integer zero: 0

-- integer twice(x):
integer x:

x * 2

-- decimal ratio: { n }

-- ftd.integer: { twice(n) + 1 }

-- ftd.text: shown
if: { n > 3 }

-- ftd.text: hidden
if: { n > 30 }

-- integer broken: { 10 / zero }
`

	out := resolveDoc(t, nil, "main", src)

	evalErrs := out.Diagnostics.WithCode(CodeExpressionEvaluation)
	if len(evalErrs) != 1 || evalErrs[0].Line != 20 {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	doc := wantDocument(t, out)

	if got := literal(t, thing[*ir.Variable](t, doc, "main#ratio").Value); got != float64(5) {
		t.Errorf("ratio = %v (%T)", got, got)
	}

	if len(doc.Content) != 2 {
		t.Fatalf("content = %v", doc.Content)
	}

	if got := literal(t, property(t, doc.Content[0], "value").Value); got != int64(11) {
		t.Errorf("twice(n) + 1 = %v", got)
	}

	if got := literal(t, property(t, doc.Content[1], "text").Value); got != "shown" {
		t.Errorf("text = %v", got)
	}

	if _, ok := doc.Bag["main#broken"]; ok {
		t.Error("broken definition in bag")
	}
}

func TestContinue_FunctionNamedLikeBuiltin(t *testing.T) {
	h := &host{modules: map[string]string{
		"lib": "-- integer first(a):\ninteger a:\n\na * 10\n",
	}}

	src := `-- import: lib
exposing: first

-- integer count(a):
integer a:

a + 1

-- integer n: 5

-- integer total: { count(3) }

-- integer tenfold: { first(2) }

-- integer biggest: { max(n, 7) }
`

	out := resolveDoc(t, h, "main", src)
	wantNoErrors(t, out)

	doc := wantDocument(t, out)

	for name, want := range map[string]int64{
		"main#total":   4,
		"main#tenfold": 20,
		"main#biggest": 7,
	} {
		if got := literal(t, thing[*ir.Variable](t, doc, name).Value); got != want {
			t.Errorf("%s = %v, want %d", name, got, want)
		}
	}
}

func TestContinue_Component(t *testing.T) {
	src := `-- component card:
caption title:
boolean dark: false

-- ftd.column:

-- ftd.text: $card.title
color if { card.dark }: white

-- end: ftd.column

-- end: card

-- card: Hello

-- card:
`

	out := resolveDoc(t, nil, "main", src)

	mismatch := out.Diagnostics.WithCode(CodeKindMismatch)
	if len(mismatch) != 1 || !strings.Contains(mismatch[0].Message, "title") {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	doc := wantDocument(t, out)

	card := thing[*ir.Component](t, doc, "main#card")
	if card.Definition == nil || len(card.Definition.Children) != 1 {
		t.Fatalf("card definition = %v", card.Definition)
	}

	text := card.Definition.Children[0]

	if ref := property(t, text, "text").Value.Ref; ref == nil || ref.Local != "card.title" {
		t.Errorf("text = %v", text.Properties)
	}

	var color *ir.Property

	for i := range text.Properties {
		if text.Properties[i].Name == "color" {
			color = &text.Properties[i]
		}
	}

	if color == nil || color.Condition == nil {
		t.Errorf("color = %v", color)
	}

	if _, ok := doc.Bag["ftd#column"]; !ok {
		t.Error("builtin column missing from bag")
	}

	if len(doc.Content) != 1 {
		t.Fatalf("content = %v", doc.Content)
	}

	if got := literal(t, property(t, doc.Content[0], "title").Value); got != "Hello" {
		t.Errorf("title = %v", got)
	}
}

func TestContinue_LoopScope(t *testing.T) {
	src := `-- record group:
caption name:
string list members:

-- group list groups:
-- group: admins
-- end: groups

-- component list-view:
string list items:

-- ftd.column:

-- ftd.text: $item
$loop$: $list-view.items as $item

-- end: ftd.column

-- end: list-view

-- ftd.column:
$loop$: $groups as $g

-- ftd.text: $m
$loop$: $g.members as $m

-- end: ftd.column
`

	out := resolveDoc(t, nil, "main", src)
	wantNoErrors(t, out)

	doc := wantDocument(t, out)

	view := thing[*ir.Component](t, doc, "main#list-view")
	if view.Definition == nil || len(view.Definition.Children) != 1 {
		t.Fatalf("list-view definition = %v", view.Definition)
	}

	inner := view.Definition.Children[0]
	if inner.Loop == nil || inner.Loop.On.Ref == nil || inner.Loop.On.Ref.Local != "list-view.items" {
		t.Errorf("argument loop = %v", inner.Loop)
	}

	if len(doc.Content) != 1 || len(doc.Content[0].Children) != 1 {
		t.Fatalf("content = %v", doc.Content)
	}

	nested := doc.Content[0].Children[0]
	if nested.Loop == nil || nested.Loop.On.Ref == nil || nested.Loop.On.Ref.Local != "g.members" {
		t.Fatalf("nested loop = %v", nested.Loop)
	}

	if k := nested.Loop.On.Ref.Kind; k.Base().Tag != ir.TagList {
		t.Errorf("nested loop kind = %v", k)
	}
}

func TestContinue_OrType(t *testing.T) {
	src := `-- or-type shape:
-- record circle:
decimal radius:
-- record square:
decimal side: 1
-- end: shape

-- shape s:
-- shape.circle:
radius: 2
-- end: s

-- shape.square sq:

-- shape list all:
-- shape.circle:
radius: 3
-- shape.square:
-- end: all
`

	out := resolveDoc(t, nil, "main", src)
	wantNoErrors(t, out)

	doc := wantDocument(t, out)

	s := thing[*ir.Variable](t, doc, "main#s")
	if got := s.Value.Value.Kind.Name; got != "main#shape.circle" {
		t.Errorf("s kind = %q", got)
	}

	all := thing[*ir.Variable](t, doc, "main#all")
	if items := literal(t, all.Value).([]ir.PropertyValue); len(items) != 2 {
		t.Errorf("all = %v", all.Value)
	}

	if _, ok := doc.Bag["main#shape.square"]; !ok {
		t.Error("variant square missing from bag")
	}
}

func TestContinue_Duplicates(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- string a: x\n\n-- integer a: 1\n")

	dups := out.Diagnostics.WithCode(CodeDuplicateDefinition)
	if len(dups) != 1 || dups[0].Line != 3 {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	a := thing[*ir.Variable](t, wantDocument(t, out), "main#a")
	if a.Kind.Kind.Tag != ir.TagString {
		t.Errorf("a kind = %v, want the first definition", a.Kind)
	}
}

func TestContinue_KindMismatch(t *testing.T) {
	src := "-- integer n: 5\n\n-- string s: $n\n\n-- integer bad: many\n"

	out := resolveDoc(t, nil, "main", src)

	if got := len(out.Diagnostics.WithCode(CodeKindMismatch)); got != 2 {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestContinue_Suggestions(t *testing.T) {
	out := resolveDoc(t, nil, "main", "-- string title: x\n\n-- string s: $titel\n")

	unresolved := out.Diagnostics.WithCode(CodeUnresolvedSymbol)
	if len(unresolved) != 1 {
		t.Fatalf("diagnostics = %v", out.Diagnostics)
	}

	if unresolved[0].Symbol != "main#titel" {
		t.Errorf("symbol = %q", unresolved[0].Symbol)
	}
}

func TestContinueAfter_Errors(t *testing.T) {
	if _, err := ContinueAfter(New("main", ""), []ModuleSource{}); !errors.Is(err, ErrNoPendingNeed) {
		t.Errorf("no pending need: err = %v", err)
	}

	st := New("main", "-- import: lib\n")

	res, err := Continue(st)
	if err != nil || res.Status != StatusStuckOnImport {
		t.Fatalf("Continue = %v, %v", res.Status, err)
	}

	again, err := Continue(st)
	if err != nil || again.Status != StatusStuckOnImport {
		t.Errorf("repeated Continue = %v, %v", again.Status, err)
	}

	if _, err := ContinueAfter(st, []ForeignValue{{Variable: "lib"}}); !errors.Is(err, cont.ErrShapeMismatch) {
		t.Errorf("wrong answer type: err = %v", err)
	}

	if _, err := ContinueAfter(st, []ModuleSource{{Module: "other"}}); !errors.Is(err, cont.ErrShapeMismatch) {
		t.Errorf("wrong key: err = %v", err)
	}

	if _, err := ContinueAfter(st, []ModuleSource{}); !errors.Is(err, cont.ErrShapeMismatch) {
		t.Errorf("wrong count: err = %v", err)
	}

	res, err = ContinueAfter(st, []ModuleSource{{Module: "lib", Source: ptr("")}})
	if err != nil || !res.Done() {
		t.Fatalf("ContinueAfter = %v, %v", res.Status, err)
	}

	if _, err := Continue(st); !errors.Is(err, ErrStaleState) {
		t.Errorf("stale: err = %v", err)
	}
}

func TestResult_NoState(t *testing.T) {
	var res Result

	if got := res.Imports(); got != nil {
		t.Errorf("Imports = %v", got)
	}

	if got := res.Processors(); got != nil {
		t.Errorf("Processors = %v", got)
	}

	if got := res.Foreign(); got != nil {
		t.Errorf("Foreign = %v", got)
	}

	st := New("main", "-- import: lib\n")

	if _, err := Continue(st); err != nil {
		t.Fatal(err)
	}

	res, err := ContinueAfter(st, []ForeignValue{{Variable: "lib"}})
	if err == nil {
		t.Fatal("wrong answer type accepted")
	}

	if got := res.Imports(); got != nil {
		t.Errorf("Imports after error = %v", got)
	}
}
