package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBag_InsertLookup(t *testing.T) {
	bag := NewBag()

	v := &Variable{
		Name:  "a.b/c#greeting",
		Kind:  KindData{Kind: Primitive(TagString)},
		Value: Literal(StringValue("Hi"), 1),
	}

	if err := bag.Insert(v.Name, v); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, ok := bag.Lookup("a.b/c#greeting")
	if !ok {
		t.Fatal("expected greeting to be defined")
	}

	if got != Thing(v) {
		t.Errorf("lookup returned %v, want %v", got, v)
	}

	if !bag.Contains("a.b/c#greeting") || bag.Contains("a.b/c#other") {
		t.Error("unexpected Contains result")
	}

	if bag.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bag.Len())
	}
}

func TestBag_InternDoesNotDefine(t *testing.T) {
	bag := NewBag()

	id := bag.Intern("doc#later")
	if id == 0 {
		t.Fatal("intern returned the zero ID")
	}

	if again := bag.Intern("doc#later"); again != id {
		t.Errorf("intern not stable: %d != %d", again, id)
	}

	if bag.Contains("doc#later") {
		t.Error("interned name should not be defined")
	}

	if bag.Name(id) != "doc#later" {
		t.Errorf("Name(%d) = %q", id, bag.Name(id))
	}
}

func TestBag_Duplicate(t *testing.T) {
	bag := NewBag()

	first := &Variable{Name: "doc#x", Kind: KindData{Kind: Primitive(TagInteger)}, Value: Literal(IntegerValue(1), 1)}
	same := &Variable{Name: "doc#x", Kind: KindData{Kind: Primitive(TagInteger)}, Value: Literal(IntegerValue(1), 1)}
	other := &Variable{Name: "doc#x", Kind: KindData{Kind: Primitive(TagInteger)}, Value: Literal(IntegerValue(2), 1)}

	if err := bag.Insert("doc#x", first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := bag.Insert("doc#x", same); err != nil {
		t.Errorf("identical re-insert should be a no-op, got %v", err)
	}

	err := bag.Insert("doc#x", other)
	if !errors.Is(err, ErrDuplicateSymbol) {
		t.Fatalf("expected ErrDuplicateSymbol, got %v", err)
	}

	if got, _ := bag.Lookup("doc#x"); got != Thing(first) {
		t.Error("duplicate insert replaced the original Thing")
	}

	if bag.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bag.Len())
	}
}

func TestBag_RecursiveRecordsAndClosure(t *testing.T) {
	bag := NewBag()

	person := bag.Intern("doc#person")
	pet := bag.Intern("doc#pet")

	err := bag.Insert("doc#person", &Record{
		Name: "doc#person",
		Fields: []Field{
			{Name: "name", Kind: KindData{Kind: Primitive(TagString), Caption: true}},
			{Name: "parent", Kind: KindData{Kind: OptionalOf(Kind{Tag: TagRecord, Ref: person, Name: "doc#person"})}},
			{Name: "pets", Kind: KindData{Kind: ListOf(Kind{Tag: TagRecord, Ref: pet, Name: "doc#pet"})}},
		},
	})
	if err != nil {
		t.Fatalf("insert person: %v", err)
	}

	err = bag.Insert("doc#pet", &Record{
		Name:   "doc#pet",
		Fields: []Field{{Name: "owner", Kind: KindData{Kind: Kind{Tag: TagRecord, Ref: person, Name: "doc#person"}}}},
	})
	if err != nil {
		t.Fatalf("insert pet: %v", err)
	}

	if err := bag.Insert("doc#unused", &Record{Name: "doc#unused"}); err != nil {
		t.Fatalf("insert unused: %v", err)
	}

	if diff := cmp.Diff([]ID{person, pet}, bag.Deps(person)); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, id := range bag.Closure(pet) {
		names = append(names, bag.Name(id))
	}

	if diff := cmp.Diff([]string{"doc#person", "doc#pet"}, names); diff != "" {
		t.Errorf("closure mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"doc#person", "doc#pet", "doc#unused"}, bag.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
