package model

import (
	"testing"

	"github.com/coopernurse/barrister/idl"
)

func personContract() idl.Contract {
	return idl.Contract{
		&idl.Struct{Name: "Base", Fields: []idl.Field{{Name: "id", Type: "string"}}},
		&idl.Struct{Name: "Person", Extends: "Base", Fields: []idl.Field{
			{Name: "age", Type: "int"},
			{Name: "tags", Type: "string", IsArray: true},
			{Name: "nickname", Type: "string", Optional: true},
			{Name: "status", Type: "Status"},
		}},
		&idl.Enum{Name: "Status", Values: []idl.EnumValue{{Value: "ok"}, {Value: "error"}}},
	}
}

func TestFieldResolvesThroughExtends(t *testing.T) {
	m := New(personContract())
	f, ok := m.Field("Person", "id")
	if !ok {
		t.Fatalf("expected inherited field id to resolve")
	}
	if f.Type != "string" {
		t.Errorf("unexpected type: %s", f.Type)
	}
}

func TestValidateValue_ValidStruct(t *testing.T) {
	m := New(personContract())
	value := map[string]any{
		"id":     "abc",
		"age":    float64(30),
		"tags":   []any{"a", "b"},
		"status": "ok",
	}
	ok, msg := m.ValidateValue("Person", false, false, value, false)
	if !ok {
		t.Fatalf("expected valid, got error: %s", msg)
	}
}

func TestValidateValue_MissingRequiredField(t *testing.T) {
	m := New(personContract())
	value := map[string]any{
		"age":    float64(30),
		"tags":   []any{},
		"status": "ok",
	}
	ok, _ := m.ValidateValue("Person", false, false, value, false)
	if ok {
		t.Fatalf("expected failure for missing required field id")
	}
}

func TestValidateValue_AllowMissingAcceptsPartial(t *testing.T) {
	m := New(personContract())
	value := map[string]any{"status": "ok"}
	ok, msg := m.ValidateValue("Person", false, false, value, true)
	if !ok {
		t.Fatalf("expected allow_missing to accept a partial payload, got: %s", msg)
	}
}

func TestValidateValue_OptionalFieldMayBeAbsent(t *testing.T) {
	m := New(personContract())
	value := map[string]any{
		"id": "abc", "age": float64(1), "tags": []any{}, "status": "ok",
	}
	ok, msg := m.ValidateValue("Person", false, false, value, false)
	if !ok {
		t.Fatalf("expected success with nickname absent, got: %s", msg)
	}
}

func TestValidateValue_IntRejectsNonIntegralFloat(t *testing.T) {
	m := New(personContract())
	ok, _ := m.ValidateValue("int", false, false, float64(3.3), false)
	if ok {
		t.Fatalf("expected non-integral float to be rejected for int")
	}
}

func TestValidateValue_EnumRejectsUnknownValue(t *testing.T) {
	m := New(personContract())
	ok, _ := m.ValidateValue("Status", false, false, "blah", false)
	if ok {
		t.Fatalf("expected unknown enum value to be rejected")
	}
}

func TestValidateValue_ArrayElementsValidatedIndividually(t *testing.T) {
	m := New(personContract())
	ok, msg := m.ValidateValue("string", true, false, []any{"a", float64(1)}, false)
	if ok {
		t.Fatalf("expected array element type mismatch to fail")
	}
	if msg == "" {
		t.Errorf("expected a message describing the failing element")
	}
}
