// Package semantic validates a parsed Contract against the rules in the
// IDL specification: name uniqueness, type resolution, extends rules,
// struct cycle detection, and the interface-as-type restriction. It runs
// after parsing and never mutates the contract it is given.
package semantic

import (
	"fmt"
	"sort"

	"github.com/coopernurse/barrister/idl"
)

// Error is a single semantic validation failure, identified by the name
// of the type it concerns. It carries no source position.
type Error struct {
	Name    string
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("%s: %s", e.Name, e.Message) }

// ErrorList aggregates every Error found during a single validation pass.
type ErrorList []Error

func (l ErrorList) Error() string {
	s := ""
	for _, e := range l {
		if s != "" {
			s += "; "
		}
		s += e.Error()
	}
	return s
}

type validator struct {
	structs    map[string]*idl.Struct
	enums      map[string]*idl.Enum
	interfaces map[string]*idl.Interface
	errors     ErrorList
}

// Validate runs every semantic check in the specification against the
// given contract and returns the accumulated errors, if any.
func Validate(c idl.Contract) ErrorList {
	v := &validator{
		structs:    map[string]*idl.Struct{},
		enums:      map[string]*idl.Enum{},
		interfaces: map[string]*idl.Interface{},
	}

	seen := map[string]bool{}
	for _, e := range c {
		switch t := e.(type) {
		case *idl.Struct:
			if seen[t.Name] {
				v.errorf(t.Name, "duplicate type name: %s", t.Name)
			}
			seen[t.Name] = true
			v.structs[t.Name] = t
		case *idl.Enum:
			if seen[t.Name] {
				v.errorf(t.Name, "duplicate type name: %s", t.Name)
			}
			seen[t.Name] = true
			v.enums[t.Name] = t
		case *idl.Interface:
			if seen[t.Name] {
				v.errorf(t.Name, "duplicate type name: %s", t.Name)
			}
			seen[t.Name] = true
			v.interfaces[t.Name] = t
		}
	}

	for _, s := range v.structs {
		v.checkExtends(s)
	}
	for _, s := range v.structs {
		v.checkFieldTypes(s)
	}
	for _, i := range v.interfaces {
		v.checkInterfaceTypes(i)
	}
	for name := range v.structs {
		v.checkCycle(name, nil)
	}

	sort.Slice(v.errors, func(i, j int) bool {
		if v.errors[i].Name != v.errors[j].Name {
			return v.errors[i].Name < v.errors[j].Name
		}
		return v.errors[i].Message < v.errors[j].Message
	})
	return v.errors
}

func (v *validator) errorf(name, format string, args ...any) {
	v.errors = append(v.errors, Error{Name: name, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) checkExtends(s *idl.Struct) {
	if s.Extends == "" {
		return
	}
	parent, ok := v.structs[s.Extends]
	if !ok {
		v.errorf(s.Name, "extends target does not exist or is not a struct: %s", s.Extends)
		return
	}

	inherited := v.inheritedFields(parent)
	for _, f := range s.Fields {
		if _, dup := inherited[f.Name]; dup {
			v.errorf(s.Name, "field %q redefines a field inherited from %s", f.Name, s.Extends)
		}
	}
}

// inheritedFields walks the extends chain collecting every field name
// visible from s, cycle-safe via a visited set local to this call.
func (v *validator) inheritedFields(s *idl.Struct) map[string]bool {
	out := map[string]bool{}
	visited := map[string]bool{}
	cur := s
	for cur != nil {
		if visited[cur.Name] {
			break
		}
		visited[cur.Name] = true
		for _, f := range cur.Fields {
			out[f.Name] = true
		}
		if cur.Extends == "" {
			break
		}
		cur = v.structs[cur.Extends]
	}
	return out
}

func (v *validator) resolvesToStructOrEnum(typ string) bool {
	if idl.NativeTypes[typ] {
		return true
	}
	if _, ok := v.structs[typ]; ok {
		return true
	}
	if _, ok := v.enums[typ]; ok {
		return true
	}
	return false
}

func (v *validator) checkFieldTypes(s *idl.Struct) {
	for _, f := range s.Fields {
		if _, isIface := v.interfaces[f.Type]; isIface {
			v.errorf(s.Name, "field %q references an interface type: %s", f.Name, f.Type)
			continue
		}
		if !v.resolvesToStructOrEnum(f.Type) {
			v.errorf(s.Name, "field %q has an unresolved type: %s", f.Name, f.Type)
		}
	}
}

func (v *validator) checkInterfaceTypes(i *idl.Interface) {
	for _, fn := range i.Functions {
		for _, p := range fn.Params {
			if _, isIface := v.interfaces[p.Type]; isIface {
				v.errorf(i.Name, "function %s parameter %q references an interface type: %s", fn.Name, p.Name, p.Type)
				continue
			}
			if !v.resolvesToStructOrEnum(p.Type) {
				v.errorf(i.Name, "function %s parameter %q has an unresolved type: %s", fn.Name, p.Name, p.Type)
			}
		}
		if fn.Returns == nil {
			continue
		}
		if _, isIface := v.interfaces[fn.Returns.Type]; isIface {
			v.errorf(i.Name, "function %s return references an interface type: %s", fn.Name, fn.Returns.Type)
			continue
		}
		if !v.resolvesToStructOrEnum(fn.Returns.Type) {
			v.errorf(i.Name, "function %s return has an unresolved type: %s", fn.Name, fn.Returns.Type)
		}
	}
}

// checkCycle performs a depth-first traversal over required struct
// references. path carries path-local marks only -- array and optional
// edges never extend the path, so recursive shapes like linked lists via
// "[]T" or "T [optional]" are permitted.
func (v *validator) checkCycle(name string, path []string) {
	for _, seen := range path {
		if seen == name {
			v.errorf(name, fmt.Sprintf("cycle detected in struct: %s", name))
			return
		}
	}
	s, ok := v.structs[name]
	if !ok {
		return
	}
	nextPath := append(append([]string{}, path...), name)

	if s.Extends != "" {
		v.checkCycle(s.Extends, nextPath)
	}
	for _, f := range s.Fields {
		if f.IsArray || f.Optional {
			continue
		}
		if _, isStruct := v.structs[f.Type]; isStruct {
			v.checkCycle(f.Type, nextPath)
		}
	}
}
