package resolve

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/ftdr/ast"
	"github.com/ardnew/ftdr/eval"
	"github.com/ardnew/ftdr/ir"
	"github.com/ardnew/ftdr/section"
)

const (
	headerProcessor = "$processor$"
	headerLoop      = "$loop$"
	headerIf        = "if"
	headerJS        = "js"
)

// definitions runs the definition phase of f. Definitions that wait on
// another definition of the document are requeued; when a whole pass makes
// no progress, the frame suspends for the needs it collected or, with no
// needs, the cycles among the waiting definitions are broken.
func (st *State) definitions(f *frame) any {
	for len(f.queue) > 0 {
		if f.stalled >= len(f.queue) {
			if !f.needs.empty() {
				return st.suspend(f)
			}

			st.breakCycles(f)

			continue
		}

		name := f.queue[0]
		f.queue = f.queue[1:]

		u := st.unit(f, name)
		err := u.define(f.doc.Definitions[name])

		var blocked blockedError

		switch {
		case errors.Is(err, errNeed):
			f.queue = append(f.queue, name)
			f.stalled++

			delete(f.waits, name)

		case errors.As(err, &blocked):
			f.queue = append(f.queue, name)
			f.waits[name] = blocked.on
			f.stalled++

		default:
			u.commit()

			if err != nil {
				f.failed[name] = true
			}

			f.stalled = 0

			delete(f.waits, name)

			st.logger.Trace("define",
				slog.String("symbol", qualify(f.doc.Name, name)),
				slog.Bool("failed", err != nil))
		}
	}

	f.phase = phaseContent
	f.cursor = 0

	return nil
}

func (u *unit) define(def *ast.Definition) error {
	switch def.Kind {
	case ast.DefRecord:
		return u.record(def)
	case ast.DefOrType:
		return u.orType(def)
	case ast.DefVariable:
		return u.variable(def)
	case ast.DefComponent:
		return u.component(def)
	case ast.DefWebComponent:
		return u.webComponent(def)
	case ast.DefFunction:
		return u.function(def)
	case ast.DefExport:
		return u.export(def)
	default:
		return u.mismatch(def.Line(), u.qualified(), "unknown definition")
	}
}

func (u *unit) qualified() string { return qualify(u.doc().Name, u.def) }

// insert adds a resolved Thing to the Bag under the unit's name.
func (u *unit) insert(thing ir.Thing, line int) error {
	q := u.qualified()

	if err := u.st.bag.Insert(q, thing); err != nil {
		return u.fail(Diagnostic{
			Code:    CodeDuplicateDefinition,
			Line:    line,
			Message: err.Error(),
			Symbol:  q,
		})
	}

	id, _ := u.st.bag.ID(q)
	u.f.defined[u.def] = id

	return nil
}

func (u *unit) record(def *ast.Definition) error {
	s := def.Section

	fields, err := u.fields(s, nil, nil)
	if err != nil {
		return err
	}

	return u.insert(&ir.Record{
		Name:   u.qualified(),
		Fields: fields,
		Doc:    s.Doc,
		Line:   s.Line,
	}, s.Line)
}

func (u *unit) orType(def *ast.Definition) error {
	var (
		s        = def.Section
		q        = u.qualified()
		id       = u.st.bag.Intern(q)
		t        = &ir.OrType{Name: q, Doc: s.Doc, Line: s.Line}
		variants []*ir.OrTypeVariant
	)

	for _, c := range s.Children {
		v := &ir.OrTypeVariant{Name: q + "." + c.Name, OrType: id, Line: c.Line}

		if c.Kind == "record" {
			fields, err := u.fields(c, nil, nil)
			if err != nil {
				return err
			}

			v.Fields = fields
		} else {
			field, err := u.variantValue(c)
			if err != nil {
				return err
			}

			v.Fields = []ir.Field{field}
		}

		variants = append(variants, v)
		t.Variants = append(t.Variants, ir.Kind{
			Tag:  ir.TagVariant,
			Ref:  u.st.bag.Intern(v.Name),
			Name: v.Name,
		})
	}

	if len(variants) == 0 {
		return u.mismatch(s.Line, q, "or-type "+u.def+" has no variants")
	}

	for _, v := range variants {
		if err := u.st.bag.Insert(v.Name, v); err != nil {
			return u.fail(Diagnostic{
				Code:    CodeDuplicateDefinition,
				Line:    v.Line,
				Message: err.Error(),
				Symbol:  v.Name,
			})
		}
	}

	return u.insert(t, s.Line)
}

// variantValue is the single field of a variant written as a kinded
// section, such as "-- integer pixel:".
func (u *unit) variantValue(s *section.Section) (ir.Field, error) {
	kd, err := u.parseKind(s.Kind, s.Line)
	if err != nil {
		return ir.Field{}, err
	}

	kd.Caption = true
	field := ir.Field{Name: "value", Kind: kd, Line: s.Line}

	if s.Caption != nil {
		pv, err := u.value(s.Caption.Value, kd, nil, s.Line)
		if err != nil {
			return ir.Field{}, err
		}

		field.Default = &pv
	}

	return field, nil
}

func (u *unit) parseKind(text string, line int) (ir.KindData, error) {
	kd, err := ir.ParseKind(text)
	if err != nil {
		return ir.KindData{}, u.mismatch(line, u.qualified(), "invalid kind "+quote(text))
	}

	kd.Kind, err = u.kind(kd.Kind, line)

	return kd, err
}

// fields resolves the kinded headers of s as record fields or arguments.
// Headers named in skip are ignored.
func (u *unit) fields(s *section.Section, skip []string, sc *scope) ([]ir.Field, error) {
	var fields []ir.Field

	for _, h := range s.Headers {
		if isReserved(h.Key, skip) {
			continue
		}

		if h.Kind == "" {
			return nil, u.mismatch(h.Line, u.qualified(), "field "+h.Key+" has no kind")
		}

		if _, dup := ir.FindField(fields, h.Key); dup {
			return nil, u.fail(Diagnostic{
				Code:    CodeDuplicateDefinition,
				Line:    h.Line,
				Message: "field " + h.Key + " declared twice",
				Symbol:  u.qualified() + "." + h.Key,
			})
		}

		kd, err := u.parseKind(h.Kind, h.Line)
		if err != nil {
			return nil, err
		}

		field := ir.Field{Name: h.Key, Kind: kd, Line: h.Line}

		if h.Value != "" {
			pv, err := u.value(h.Value, kd, sc, h.Line)
			if err != nil {
				return nil, err
			}

			field.Default = &pv
		}

		fields = append(fields, field)
	}

	return fields, nil
}

func isReserved(key string, skip []string) bool {
	if key == headerProcessor || key == headerLoop || key == headerIf {
		return true
	}

	for _, k := range skip {
		if k == key {
			return true
		}
	}

	return false
}

func (u *unit) variable(def *ast.Definition) error {
	s := def.Section

	kd, err := u.parseKind(s.Kind, s.Line)
	if err != nil {
		return err
	}

	v := &ir.Variable{Name: u.qualified(), Kind: kd, Doc: s.Doc, Line: s.Line}

	if h, ok := s.Header(headerProcessor); ok {
		v.Processor = h.Value

		val, err := u.processor(s, h)
		if err != nil {
			return err
		}

		val, err = u.convert(val, kd.Kind, s.Line)
		if err != nil {
			return err
		}

		v.Value = ir.Literal(val, s.Line)
	} else {
		v.Value, err = u.sectionValue(s, kd.Kind, nil)
		if err != nil {
			return err
		}
	}

	return u.insert(v, s.Line)
}

// sectionValue resolves the value a section spells out for the kind want:
// its caption or body for scalars, its headers for records, its child
// sections for lists, variants and UI values.
func (u *unit) sectionValue(s *section.Section, want ir.Kind, sc *scope) (ir.PropertyValue, error) {
	if text, ok := sectionText(s); ok && isValueText(text) {
		return u.value(text, ir.KindData{Kind: want}, sc, s.Line)
	}

	b := want.Base()

	switch b.Tag {
	case ir.TagOptional:
		if isEmpty(s) {
			return ir.Literal(ir.VoidValue(want), s.Line), nil
		}

		pv, err := u.sectionValue(s, *b.Elem, sc)
		if err == nil && pv.Value != nil {
			pv.Value.Kind = want
		}

		return pv, err

	case ir.TagList:
		items := make([]ir.PropertyValue, 0, len(s.Children))

		for _, c := range s.Children {
			item, err := u.element(c, *b.Elem, sc)
			if err != nil {
				return ir.PropertyValue{}, err
			}

			if item != nil {
				items = append(items, *item)
			}
		}

		return ir.Literal(ir.Value{Kind: want, Data: items}, s.Line), nil

	case ir.TagRecord, ir.TagVariant:
		rec, err := u.recordLiteral(s, b, sc)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		return ir.Literal(ir.Value{Kind: want, Data: rec}, s.Line), nil

	case ir.TagOrType:
		if len(s.Children) != 1 {
			return ir.PropertyValue{}, u.mismatch(s.Line, b.Name,
				"a "+b.Name+" value needs exactly one variant section")
		}

		c := s.Children[0]

		vk, err := u.variantKind(b, c.Name, c.Line)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		rec, err := u.recordLiteral(c, vk, sc)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		return ir.Literal(ir.Value{Kind: vk, Data: rec}, s.Line), nil

	case ir.TagUI:
		if len(s.Children) != 1 {
			return ir.PropertyValue{}, u.mismatch(s.Line, "", "a ftd.ui value needs exactly one component section")
		}

		inv, err := u.invocation(s.Children[0], sc)
		if err != nil {
			return ir.PropertyValue{}, err
		}

		if inv == nil {
			return ir.Literal(ir.VoidValue(want), s.Line), nil
		}

		return ir.Literal(ir.Value{Kind: want, Data: inv}, s.Line), nil

	default:
		text, ok := sectionText(s)
		if !ok {
			return ir.PropertyValue{}, u.mismatch(s.Line, u.qualified(), "missing "+want.String()+" value")
		}

		return u.value(text, ir.KindData{Kind: want}, sc, s.Line)
	}
}

// element resolves one child section of a list value. A nil result is an
// item omitted by a false condition.
func (u *unit) element(s *section.Section, want ir.Kind, sc *scope) (*ir.PropertyValue, error) {
	if want.Base().Tag == ir.TagUI {
		inv, err := u.invocation(s, sc)
		if err != nil || inv == nil {
			return nil, err
		}

		pv := ir.Literal(ir.Value{Kind: want, Data: inv}, s.Line)

		return &pv, nil
	}

	if b := want.Base(); b.Tag == ir.TagOrType {
		if text, ok := sectionText(s); !ok || !isValueText(text) {
			vk, err := u.variantKind(b, s.Name, s.Line)
			if err != nil {
				return nil, err
			}

			rec, err := u.recordLiteral(s, vk, sc)
			if err != nil {
				return nil, err
			}

			pv := ir.Literal(ir.Value{Kind: vk, Data: rec}, s.Line)

			return &pv, nil
		}
	}

	pv, err := u.sectionValue(s, want, sc)
	if err != nil {
		return nil, err
	}

	return &pv, nil
}

// recordLiteral builds a record value from a section: the caption and body
// go to the fields marked for them, headers and child sections to the
// fields they name, and the rest take their defaults.
func (u *unit) recordLiteral(s *section.Section, k ir.Kind, sc *scope) (*ir.RecordValue, error) {
	fields, err := u.recordFields(k, s.Line)
	if err != nil {
		return nil, err
	}

	given := make(map[string]ir.PropertyValue)

	set := func(name string, pv ir.PropertyValue, line int) error {
		if _, dup := given[name]; dup {
			return u.fail(Diagnostic{
				Code:    CodeDuplicateDefinition,
				Line:    line,
				Message: "field " + name + " given twice",
				Symbol:  k.Name + "." + name,
			})
		}

		given[name] = pv

		return nil
	}

	if s.Caption != nil {
		f, ok := markedField(fields, true)
		if !ok {
			return nil, u.mismatch(s.Line, k.Name, k.Name+" has no caption field")
		}

		pv, err := u.value(s.Caption.Value, f.Kind, sc, s.Line)
		if err != nil {
			return nil, err
		}

		if err := set(f.Name, pv, s.Line); err != nil {
			return nil, err
		}
	}

	if s.Body != nil {
		f, ok := markedField(fields, false)
		if !ok {
			return nil, u.mismatch(s.Body.Line, k.Name, k.Name+" has no body field")
		}

		pv, err := u.value(s.Body.Value, f.Kind, sc, s.Body.Line)
		if err != nil {
			return nil, err
		}

		if err := set(f.Name, pv, s.Body.Line); err != nil {
			return nil, err
		}
	}

	for _, h := range s.Headers {
		f, ok := ir.FindField(fields, h.Key)
		if !ok {
			return nil, u.fail(Diagnostic{
				Code:    CodeUnresolvedSymbol,
				Line:    h.Line,
				Message: k.Name + " has no field " + h.Key,
				Symbol:  k.Name + "." + h.Key,
				Hint:    suggest(h.Key, fieldNames(fields)),
			})
		}

		pv, err := u.value(h.Value, f.Kind, sc, h.Line)
		if err != nil {
			return nil, err
		}

		if err := set(f.Name, pv, h.Line); err != nil {
			return nil, err
		}
	}

	for _, c := range s.Children {
		f, ok := ir.FindField(fields, c.Name)
		if !ok {
			return nil, u.fail(Diagnostic{
				Code:    CodeUnresolvedSymbol,
				Line:    c.Line,
				Message: k.Name + " has no field " + c.Name,
				Symbol:  k.Name + "." + c.Name,
				Hint:    suggest(c.Name, fieldNames(fields)),
			})
		}

		pv, err := u.sectionValue(c, f.Kind.Kind, sc)
		if err != nil {
			return nil, err
		}

		if err := set(f.Name, pv, c.Line); err != nil {
			return nil, err
		}
	}

	rec := &ir.RecordValue{}

	for _, f := range fields {
		pv, ok := given[f.Name]

		switch {
		case ok:
		case f.Default != nil:
			pv = *f.Default
		case !f.Required():
			pv = ir.Literal(emptyValue(f.Kind.Kind), s.Line)
		default:
			return nil, u.mismatch(s.Line, k.Name, "missing field "+f.Name+" of "+k.Name)
		}

		rec.Fields = append(rec.Fields, ir.FieldValue{Name: f.Name, Value: pv})
	}

	return rec, nil
}

// variantKind resolves a variant section name, such as "shape.circle" or
// "circle", against an or-type. An or-type of the same document that is
// not resolved yet blocks the unit.
func (u *unit) variantKind(orType ir.Kind, name string, line int) (ir.Kind, error) {
	local := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		local = name[i+1:]
	}

	t, ok := u.st.bag.Thing(orType.Ref)
	if !ok {
		module, owner, _ := strings.Cut(orType.Name, "#")
		if module == u.doc().Name && u.f.phase == phaseDefinitions &&
			!u.f.failed[owner] && owner != u.def {
			return ir.Kind{}, blockedError{on: owner}
		}

		return ir.Kind{}, u.derived(orType.Name, line)
	}

	var (
		names []string
		ot, _ = t.(*ir.OrType)
	)

	if ot == nil {
		return ir.Kind{}, u.mismatch(line, orType.Name, orType.Name+" is not an or-type")
	}

	for _, v := range ot.Variants {
		if v.Name == orType.Name+"."+local {
			return v, nil
		}

		names = append(names, strings.TrimPrefix(v.Name, orType.Name+"."))
	}

	return ir.Kind{}, u.fail(Diagnostic{
		Code:    CodeUnresolvedSymbol,
		Line:    line,
		Message: "or-type " + orType.Name + " has no variant " + local,
		Symbol:  orType.Name + "." + local,
		Hint:    suggest(local, names),
	})
}

func markedField(fields []ir.Field, caption bool) (ir.Field, bool) {
	for _, f := range fields {
		if caption && f.Kind.Caption || !caption && f.Kind.Body {
			return f, true
		}
	}

	return ir.Field{}, false
}

// sectionText returns the caption, or else the body, of s.
func sectionText(s *section.Section) (string, bool) {
	switch {
	case s.Caption != nil:
		return s.Caption.Value, true
	case s.Body != nil:
		return s.Body.Value, true
	default:
		return "", false
	}
}

func isValueText(text string) bool {
	text = strings.TrimSpace(text)

	return isReference(text) || strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}

func isEmpty(s *section.Section) bool {
	return s.Caption == nil && s.Body == nil && len(s.Children) == 0 &&
		len(s.Headers) == 0
}

func (u *unit) component(def *ast.Definition) error {
	s := def.Section
	q := u.qualified()

	args, err := u.fields(s, nil, nil)
	if err != nil {
		return err
	}

	u.self = &selfComponent{name: u.def, id: u.st.bag.Intern(q), args: args}

	c := &ir.Component{Name: q, Arguments: args, Doc: s.Doc, Line: s.Line}

	switch len(s.Children) {
	case 0:
	case 1:
		sc := (*scope)(nil).withArgs(u.def, args)

		c.Definition, err = u.invocation(s.Children[0], sc)
		if err != nil {
			return err
		}

	default:
		return u.mismatch(s.Children[1].Line, q, "component "+u.def+" must have a single root")
	}

	return u.insert(c, s.Line)
}

func (u *unit) webComponent(def *ast.Definition) error {
	s := def.Section

	args, err := u.fields(s, []string{headerJS}, nil)
	if err != nil {
		return err
	}

	w := &ir.WebComponent{Name: u.qualified(), Arguments: args, Doc: s.Doc, Line: s.Line}

	if h, ok := s.Header(headerJS); ok {
		w.JS = h.Value
	}

	return u.insert(w, s.Line)
}

// function checks a function's parameters and body. The body is evaluated
// only when called; here its references are bound.
func (u *unit) function(def *ast.Definition) error {
	s := def.Section
	q := u.qualified()

	ret, err := u.parseKind(s.Kind, s.Line)
	if err != nil {
		return err
	}

	declared, err := u.fields(s, nil, nil)
	if err != nil {
		return err
	}

	fn := &ir.Function{Name: q, ReturnKind: ret, Doc: s.Doc, Line: s.Line}

	for _, p := range s.Params {
		arg, ok := ir.FindField(declared, p)
		if !ok {
			return u.mismatch(s.Line, q, "parameter "+p+" of "+u.def+" has no kind")
		}

		fn.Arguments = append(fn.Arguments, arg)
	}

	if s.Body == nil || strings.TrimSpace(s.Body.Value) == "" {
		return u.mismatch(s.Line, q, "function "+u.def+" has no body")
	}

	fn.Expression = s.Body.Value
	line := s.Body.Line

	e, err := eval.Parse(fn.Expression, eval.WithFunctions(u.userFunction))
	if err != nil {
		return u.evalFailed(err, fn.Expression, line)
	}

	sc := (*scope)(nil).withArgs(u.def, fn.Arguments)

	for _, name := range e.Refs() {
		head, _, _ := strings.Cut(name, ".")
		if _, local := sc.lookup(head); local {
			continue
		}

		ref, err := u.reference(name, sc, line)
		if err != nil {
			return err
		}

		fn.Refs = append(fn.Refs, ref)
	}

	for _, name := range e.Calls() {
		if name == u.def {
			fn.Refs = append(fn.Refs, ir.Reference{
				Name:   name,
				Target: u.st.bag.Intern(q),
				Symbol: q,
				Kind:   ret.Kind,
			})

			continue
		}

		ref, _, err := u.functionRef(name, line)
		if err != nil {
			return err
		}

		fn.Refs = append(fn.Refs, ref)
	}

	return u.insert(fn, s.Line)
}

func (u *unit) export(def *ast.Definition) error {
	s := def.Section
	target := s.Caption.Value

	sym, err := u.lookup(target, s.Line)
	if err == errNotFound {
		return u.unresolved(target, s.Line)
	}

	if err != nil {
		return err
	}

	if sym.thing == nil {
		return u.selfCycle(sym.name, s.Line)
	}

	if len(sym.rest) > 0 {
		return u.mismatch(s.Line, sym.name, "cannot export field "+strings.Join(sym.rest, "."))
	}

	return u.insert(&ir.Export{
		Name:       u.qualified(),
		Target:     sym.id,
		TargetName: sym.name,
		Line:       s.Line,
	}, s.Line)
}
