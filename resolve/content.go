package resolve

import (
	"log/slog"
	"strings"

	"github.com/ardnew/ftdr/ir"
	"github.com/ardnew/ftdr/section"
)

// content runs the content phase of f. Items that wait for input are left
// unresolved and run again from their start once the frame resumes.
func (st *State) content(f *frame) any {
	for i, s := range f.doc.Content {
		if f.resolved[i] {
			continue
		}

		u := st.unit(f, "")

		inv, err := u.invocation(s, nil)
		if aborts(err) {
			continue
		}

		u.commit()

		f.content[i] = inv
		f.resolved[i] = true

		st.logger.Trace("content",
			slog.String("document", f.doc.Name),
			slog.String("name", s.Name),
			slog.Int("line", s.Line),
			slog.Bool("failed", err != nil))
	}

	if !f.needs.empty() {
		return st.suspend(f)
	}

	f.phase = phaseDone

	return nil
}

// invocation resolves a section that invokes a component. It returns nil
// without error when a condition known now is false. Properties and
// children that fail are dropped; a callee that fails fails the whole
// invocation.
func (u *unit) invocation(s *section.Section, sc *scope) (*ir.Invocation, error) {
	inv := &ir.Invocation{Name: s.Name, Line: s.Line}

	args, err := u.callee(inv, s.Line)
	if err != nil {
		return nil, err
	}

	if h, ok := s.Header(headerLoop); ok {
		loop, elem, err := u.loop(h, sc)
		if err != nil {
			return nil, err
		}

		inv.Loop = loop
		sc = sc.with(loop.Alias, elem)
	}

	if h, ok := s.Header(headerIf); ok {
		static, truth, cond, err := u.condition(h.Value, sc, h.Line)
		if err != nil {
			return nil, err
		}

		if static && !truth {
			return nil, nil
		}

		inv.Condition = cond
	}

	props := &properties{
		u:      u,
		inv:    inv,
		forced: make(map[string]int),
		failed: make(map[string]bool),
	}

	for _, h := range s.Headers {
		if isReserved(h.Key, nil) {
			continue
		}

		arg, ok := ir.FindField(args, h.Key)
		if !ok {
			u.fail(Diagnostic{
				Code:    CodeUnresolvedSymbol,
				Line:    h.Line,
				Message: s.Name + " has no argument " + h.Key,
				Symbol:  inv.Symbol + "." + h.Key,
				Hint:    suggest(h.Key, fieldNames(args)),
			})

			continue
		}

		if err := props.header(arg, h, sc); aborts(err) {
			return nil, err
		} else if err != nil {
			props.failed[arg.Name] = true
		}
	}

	for _, text := range []struct {
		t       *section.Text
		caption bool
	}{{s.Caption, true}, {s.Body, false}} {
		if text.t == nil {
			continue
		}

		arg, ok := markedField(args, text.caption)
		if !ok {
			what := "body"
			if text.caption {
				what = "caption"
			}

			u.mismatch(text.t.Line, inv.Symbol, s.Name+" takes no "+what)

			continue
		}

		pv, err := u.value(text.t.Value, arg.Kind, sc, text.t.Line)
		switch {
		case aborts(err):
			return nil, err
		case err != nil:
			props.failed[arg.Name] = true
		default:
			props.add(ir.Property{Name: arg.Name, Value: pv, Line: text.t.Line})
		}
	}

	if h, ok := s.Header(headerProcessor); ok {
		if err := props.processed(s, h, args); err != nil {
			return nil, err
		}
	}

	if len(s.Children) > 0 {
		if !acceptsChildren(args) {
			u.mismatch(s.Children[0].Line, inv.Symbol, s.Name+" takes no children")
		} else {
			for _, c := range s.Children {
				child, err := u.invocation(c, sc)
				if aborts(err) {
					return nil, err
				}

				if child != nil {
					inv.Children = append(inv.Children, child)
				}
			}
		}
	}

	inv.Properties = props.resolved()

	var missing []string

	for _, arg := range args {
		if _, given := inv.Property(arg.Name); given || !arg.Required() || props.failed[arg.Name] {
			continue
		}

		if acceptsChildren([]ir.Field{arg}) && len(inv.Children) > 0 {
			continue
		}

		missing = append(missing, arg.Name)
	}

	if len(missing) > 0 {
		return nil, u.mismatch(s.Line, inv.Symbol,
			s.Name+" is missing required argument "+strings.Join(missing, ", "))
	}

	return inv, nil
}

// callee binds the invocation to the component it names and returns the
// arguments it accepts. A variable is invoked through a single caption or
// body argument "value".
func (u *unit) callee(inv *ir.Invocation, line int) ([]ir.Field, error) {
	if u.self != nil && inv.Name == u.self.name {
		inv.Target = u.self.id
		inv.Symbol = u.qualified()

		return u.self.args, nil
	}

	sym, err := u.lookup(inv.Name, line)
	if err == errNotFound {
		return nil, u.unresolved(inv.Name, line)
	}

	if err != nil {
		return nil, err
	}

	if sym.thing == nil {
		return nil, u.selfCycle(sym.name, line)
	}

	if len(sym.rest) > 0 {
		return nil, u.mismatch(line, sym.name, inv.Name+" is not a component")
	}

	inv.Target = sym.id
	inv.Symbol = sym.name

	switch t := sym.thing.(type) {
	case *ir.Component:
		return t.Arguments, nil

	case *ir.WebComponent:
		return t.Arguments, nil

	case *ir.Variable:
		value := t.Value

		return []ir.Field{{
			Name:    "value",
			Kind:    ir.KindData{Kind: t.Kind.Kind, Caption: true, Body: true},
			Default: &value,
			Line:    t.Line,
		}}, nil

	default:
		return nil, u.mismatch(line, sym.name,
			inv.Name+" is a "+sym.thing.ThingKind().String()+", not a component")
	}
}

// loop resolves a "$names as $name" header. The list may be a global, a
// component argument or the alias of an enclosing loop.
func (u *unit) loop(h *section.Header, sc *scope) (*ir.Loop, ir.Kind, error) {
	on, alias, ok := strings.Cut(h.Value, " as ")
	on, alias = strings.TrimSpace(on), strings.TrimPrefix(strings.TrimSpace(alias), "$")

	if !ok || alias == "" || !isReference(on) {
		return nil, ir.Kind{}, u.mismatch(h.Line, "", "loop must read \"$list as $item\"")
	}

	ref, err := u.reference(on[1:], sc, h.Line)
	if err != nil {
		return nil, ir.Kind{}, err
	}

	b := ref.Kind.Base()
	if b.Tag != ir.TagList {
		return nil, ir.Kind{}, u.mismatch(h.Line, ref.Symbol, on+" is "+ref.Kind.String()+", not a list")
	}

	return &ir.Loop{On: ir.PropertyValue{Ref: &ref, Line: h.Line}, Alias: alias}, *b.Elem, nil
}

func acceptsChildren(args []ir.Field) bool {
	for _, a := range args {
		if b := a.Kind.Kind.Base(); b.Tag == ir.TagList && b.Elem.Base().Tag == ir.TagUI {
			return true
		}
	}

	return false
}

// properties collects the properties of an invocation. A conditional
// property whose condition is true now replaces the unconditional
// properties of the same name; the first such property wins.
type properties struct {
	u      *unit
	inv    *ir.Invocation
	list   []ir.Property
	forced map[string]int
	failed map[string]bool
}

func (p *properties) add(prop ir.Property) {
	p.list = append(p.list, prop)
}

func (p *properties) header(arg ir.Field, h *section.Header, sc *scope) error {
	pv, err := p.u.value(h.Value, arg.Kind, sc, h.Line)
	if err != nil {
		return err
	}

	prop := ir.Property{Name: arg.Name, Value: pv, Line: h.Line}

	if h.Condition == "" {
		p.add(prop)

		return nil
	}

	static, truth, cond, err := p.u.condition(h.Condition, sc, h.Line)

	switch {
	case err != nil:
		return err

	case !static:
		prop.Condition = cond
		p.add(prop)

	case truth:
		if _, ok := p.forced[arg.Name]; !ok {
			p.forced[arg.Name] = len(p.list)
			p.add(prop)
		}
	}

	return nil
}

// processed turns the result of the section's processor into properties:
// the fields of a record result fill the arguments they name, any other
// result fills the caption argument. Headers take precedence.
func (p *properties) processed(s *section.Section, h *section.Header, args []ir.Field) error {
	v, err := p.u.processor(s, h)
	if err != nil {
		return err
	}

	given := make(map[string]bool)
	for _, prop := range p.list {
		given[prop.Name] = true
	}

	rec, isRecord := v.Data.(*ir.RecordValue)
	if !isRecord {
		arg, ok := markedField(args, true)
		if !ok {
			return p.u.mismatch(h.Line, p.inv.Symbol, s.Name+" takes no caption for "+h.Value)
		}

		if given[arg.Name] {
			return nil
		}

		cv, err := p.u.convert(v, arg.Kind.Kind, h.Line)
		if err != nil {
			return err
		}

		p.add(ir.Property{Name: arg.Name, Value: ir.Literal(cv, h.Line), Line: h.Line})

		return nil
	}

	for _, f := range rec.Fields {
		arg, ok := ir.FindField(args, f.Name)
		if !ok || given[f.Name] {
			continue
		}

		cv, err := p.u.convert(*f.Value.Value, arg.Kind.Kind, h.Line)
		if err != nil {
			return err
		}

		p.add(ir.Property{Name: arg.Name, Value: ir.Literal(cv, h.Line), Line: h.Line})
	}

	return nil
}

func (p *properties) resolved() []ir.Property {
	if len(p.forced) == 0 {
		return p.list
	}

	out := make([]ir.Property, 0, len(p.list))

	for i, prop := range p.list {
		if at, ok := p.forced[prop.Name]; ok && at != i {
			continue
		}

		out = append(out, prop)
	}

	return out
}

// processor returns the memoized result of the processor named by h for
// section s, or records the call and returns errNeed.
func (u *unit) processor(s *section.Section, h *section.Header) (ir.Value, error) {
	id := processorID(u.doc().Name, s.Line)

	out, ok := u.st.processed[id]
	if !ok {
		u.f.needs.processor(u.processorCall(id, s, h))

		return ir.Value{}, errNeed
	}

	if out.err != "" {
		return ir.Value{}, u.fail(Diagnostic{
			Code:    CodeProcessorFailed,
			Line:    h.Line,
			Message: "processor " + h.Value + ": " + out.err,
			Symbol:  u.processorName(h.Value),
		})
	}

	return *out.value, nil
}

func (u *unit) processorCall(id string, s *section.Section, h *section.Header) ProcessorCall {
	call := ProcessorCall{
		ID:        id,
		Document:  u.doc().Name,
		Processor: h.Value,
		Qualified: u.processorName(h.Value),
		Headers:   make(map[string]string),
		Line:      s.Line,
	}

	if s.Caption != nil {
		call.Caption = s.Caption.Value
	}

	if s.Body != nil {
		call.Body = s.Body.Value
	}

	for _, sh := range s.Headers {
		if sh.Key != headerProcessor {
			call.Headers[sh.Key] = sh.Value
		}
	}

	return call
}

// processorName expands the module alias of a processor name.
func (u *unit) processorName(name string) string {
	if head, rest, ok := strings.Cut(name, "."); ok {
		if a, isAlias := u.f.aliases[head]; isAlias {
			return a.module + "#" + rest
		}
	}

	return name
}
