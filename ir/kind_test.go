package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want KindData
	}{
		{"string", KindData{Kind: Primitive(TagString)}},
		{"caption", KindData{Kind: Primitive(TagString), Caption: true}},
		{"caption or body", KindData{Kind: Primitive(TagString), Caption: true, Body: true}},
		{"body integer", KindData{Kind: Primitive(TagInteger), Body: true}},
		{"optional decimal", KindData{Kind: OptionalOf(Primitive(TagDecimal))}},
		{"string list", KindData{Kind: ListOf(Primitive(TagString))}},
		{"constant boolean", KindData{Kind: ConstantOf(Primitive(TagBoolean))}},
		{"optional person", KindData{Kind: OptionalOf(Named("person"))}},
		{"ftd.ui", KindData{Kind: Primitive(TagUI)}},
		{"children", KindData{Kind: ListOf(Primitive(TagUI))}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if err != nil {
				t.Fatalf("ParseKind(%q): %v", tt.in, err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKindData_String(t *testing.T) {
	for _, in := range []string{"caption or body string", "optional person", "integer list", "constant boolean"} {
		kd, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}

		if kd.String() != in {
			t.Errorf("String() = %q, want %q", kd.String(), in)
		}
	}
}

func TestParseKind_Invalid(t *testing.T) {
	for _, in := range []string{"", "optional", "string integer", "or string"} {
		if _, err := ParseKind(in); !errors.Is(err, ErrInvalidKind) {
			t.Errorf("ParseKind(%q) error = %v, want ErrInvalidKind", in, err)
		}
	}
}

func TestCompatible(t *testing.T) {
	bag := NewBag()

	shape := bag.Intern("doc#shape")
	circle := bag.Intern("doc#shape.circle")

	if err := bag.Insert("doc#shape.circle", &OrTypeVariant{Name: "doc#shape.circle", OrType: shape}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	orType := Kind{Tag: TagOrType, Ref: shape, Name: "doc#shape"}
	variant := Kind{Tag: TagVariant, Ref: circle, Name: "doc#shape.circle"}

	tests := []struct {
		name       string
		have, want Kind
		ok         bool
	}{
		{"same", Primitive(TagString), Primitive(TagString), true},
		{"integer as decimal", Primitive(TagInteger), Primitive(TagDecimal), true},
		{"decimal as integer", Primitive(TagDecimal), Primitive(TagInteger), false},
		{"optional accepts elem", Primitive(TagString), OptionalOf(Primitive(TagString)), true},
		{"optional accepts void", Primitive(TagVoid), OptionalOf(Primitive(TagString)), true},
		{"constant transparent", ConstantOf(Primitive(TagInteger)), Primitive(TagInteger), true},
		{"list elements", ListOf(Primitive(TagInteger)), ListOf(Primitive(TagDecimal)), true},
		{"list mismatch", ListOf(Primitive(TagString)), ListOf(Primitive(TagBoolean)), false},
		{"variant as or-type", variant, orType, true},
		{"or-type as variant", orType, variant, false},
		{"ui", Primitive(TagUI), Primitive(TagUI), true},
		{"string as ui", Primitive(TagString), Primitive(TagUI), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.have, tt.want, bag); got != tt.ok {
				t.Errorf("Compatible(%v, %v) = %v, want %v", tt.have, tt.want, got, tt.ok)
			}
		})
	}
}

func TestParseLiteral(t *testing.T) {
	v, err := ParseLiteral(Primitive(TagInteger), " 42 ")
	if err != nil || v.Data != int64(42) {
		t.Errorf("integer literal = %v, %v", v, err)
	}

	v, err = ParseLiteral(OptionalOf(Primitive(TagBoolean)), "")
	if err != nil || v.Data != nil {
		t.Errorf("empty optional = %v, %v", v, err)
	}

	if _, err := ParseLiteral(Primitive(TagDecimal), "abc"); !errors.Is(err, ErrInvalidLiteral) {
		t.Errorf("expected ErrInvalidLiteral, got %v", err)
	}
}
