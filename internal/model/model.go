// Package model indexes a parsed contract for runtime use: name lookup
// across struct/enum/interface, field resolution through extends chains,
// and the recursive value validator the server and client both call.
package model

import (
	"fmt"
	"sync"

	"github.com/coopernurse/barrister/idl"
)

// Model is a read-only index over a contract. It is safe to share across
// any number of concurrent clients and servers: nothing on it mutates
// after construction except the lazily-built field cache, which is
// guarded by a mutex.
type Model struct {
	contract   idl.Contract
	structs    map[string]*idl.Struct
	enums      map[string]*idl.Enum
	interfaces map[string]*idl.Interface

	mu         sync.Mutex
	fieldCache map[string]map[string]idl.Field
}

// New builds a Model over an already-validated contract.
func New(c idl.Contract) *Model {
	m := &Model{
		contract:   c,
		structs:    map[string]*idl.Struct{},
		enums:      map[string]*idl.Enum{},
		interfaces: map[string]*idl.Interface{},
		fieldCache: map[string]map[string]idl.Field{},
	}
	for _, e := range c {
		switch t := e.(type) {
		case *idl.Struct:
			m.structs[t.Name] = t
		case *idl.Enum:
			m.enums[t.Name] = t
		case *idl.Interface:
			m.interfaces[t.Name] = t
		}
	}
	return m
}

// Contract returns the underlying contract JSON entities, in source order.
func (m *Model) Contract() idl.Contract { return m.contract }

func (m *Model) Struct(name string) (*idl.Struct, bool) { s, ok := m.structs[name]; return s, ok }
func (m *Model) Enum(name string) (*idl.Enum, bool)     { e, ok := m.enums[name]; return e, ok }
func (m *Model) Interface(name string) (*idl.Interface, bool) {
	i, ok := m.interfaces[name]
	return i, ok
}

// Get performs a generic lookup across all three maps, returning whichever
// entity matches first. Struct/enum/interface names are a single
// namespace per the semantic validator's duplicate-name rule, so at most
// one of these can match.
func (m *Model) Get(name string) (idl.Entity, bool) {
	if s, ok := m.structs[name]; ok {
		return s, true
	}
	if e, ok := m.enums[name]; ok {
		return e, true
	}
	if i, ok := m.interfaces[name]; ok {
		return i, true
	}
	return nil, false
}

// Field resolves a field by name on the named struct, checking local
// fields first and then recursing through extends.
func (m *Model) Field(structName, fieldName string) (idl.Field, bool) {
	f, ok := m.fields(structName)[fieldName]
	return f, ok
}

// fields returns every field visible on structName -- local fields plus
// everything inherited through extends -- computed once and cached.
func (m *Model) fields(structName string) map[string]idl.Field {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.fieldCache[structName]; ok {
		return cached
	}

	out := map[string]idl.Field{}
	visited := map[string]bool{}
	cur, ok := m.structs[structName]
	for ok && !visited[cur.Name] {
		visited[cur.Name] = true
		for _, f := range cur.Fields {
			if _, already := out[f.Name]; !already {
				out[f.Name] = f
			}
		}
		if cur.Extends == "" {
			break
		}
		cur, ok = m.structs[cur.Extends]
	}

	m.fieldCache[structName] = out
	return out
}

// ValidateValue recursively validates value against typ/isArray/optional,
// returning (true, "") on success or (false, path-qualified message) on
// the first failure encountered. allowMissing is true for request-side
// validation (partial payloads with optional fields absent are fine) and
// false for response-side validation (responses must fully satisfy the
// contract).
func (m *Model) ValidateValue(typ string, isArray, optional bool, value any, allowMissing bool) (bool, string) {
	if value == nil {
		if optional || allowMissing {
			return true, ""
		}
		return false, fmt.Sprintf("expected %s, got null", typ)
	}
	if isArray {
		arr, ok := value.([]any)
		if !ok {
			return false, fmt.Sprintf("expected an array of %s, got %T", typ, value)
		}
		for i, elem := range arr {
			if ok, msg := m.validateScalar(typ, elem, allowMissing); !ok {
				return false, fmt.Sprintf("[%d]: %s", i, msg)
			}
		}
		return true, ""
	}
	return m.validateScalar(typ, value, allowMissing)
}

func (m *Model) validateScalar(typ string, value any, allowMissing bool) (bool, string) {
	switch typ {
	case "int":
		n, ok := value.(float64)
		if !ok {
			return false, fmt.Sprintf("expected int, got %T", value)
		}
		if n != float64(int64(n)) {
			return false, fmt.Sprintf("expected int, got non-integral number: %v", n)
		}
		return true, ""
	case "float":
		if _, ok := value.(float64); !ok {
			return false, fmt.Sprintf("expected float, got %T", value)
		}
		return true, ""
	case "bool":
		if _, ok := value.(bool); !ok {
			return false, fmt.Sprintf("expected bool, got %T", value)
		}
		return true, ""
	case "string":
		if _, ok := value.(string); !ok {
			return false, fmt.Sprintf("expected string, got %T", value)
		}
		return true, ""
	default:
		if s, ok := m.structs[typ]; ok {
			return m.validateStruct(s, value, allowMissing)
		}
		if e, ok := m.enums[typ]; ok {
			return m.validateEnum(e, value)
		}
		return false, fmt.Sprintf("unknown type: %s", typ)
	}
}

func (m *Model) validateStruct(s *idl.Struct, value any, allowMissing bool) (bool, string) {
	obj, ok := value.(map[string]any)
	if !ok {
		return false, fmt.Sprintf("expected struct %s, got %T", s.Name, value)
	}
	fields := m.fields(s.Name)

	for key, fv := range obj {
		f, ok := fields[key]
		if !ok {
			return false, fmt.Sprintf("%s: unknown field %q", s.Name, key)
		}
		if ok, msg := m.ValidateValue(f.Type, f.IsArray, f.Optional, fv, allowMissing); !ok {
			return false, fmt.Sprintf("field %s: %s", key, msg)
		}
	}

	if !allowMissing {
		for name, f := range fields {
			if f.Optional {
				continue
			}
			if v, present := obj[name]; !present || v == nil {
				return false, fmt.Sprintf("%s: missing required field %q", s.Name, name)
			}
		}
	}
	return true, ""
}

func (m *Model) validateEnum(e *idl.Enum, value any) (bool, string) {
	s, ok := value.(string)
	if !ok {
		return false, fmt.Sprintf("expected enum %s value as string, got %T", e.Name, value)
	}
	for _, v := range e.Values {
		if v.Value == s {
			return true, ""
		}
	}
	return false, fmt.Sprintf("invalid value for enum %s: %q", e.Name, s)
}
