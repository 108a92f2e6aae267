// Package conform bundles a small demo contract and handler set used by
// cmd/barrister's serve command and as an end-to-end fixture for the RPC
// runtime. The functions mirror the reference conformance suite's "A" and
// "B" services (add/calc/sqrt/repeat/sayHi/putPerson, echo), plus a
// UserService exercising the repeated-create-then-count batch scenario.
package conform

import "github.com/coopernurse/barrister/idl"

// Contract returns the demo contract: Person/User/Status types and the
// MyService, Echo, and UserService interfaces.
func Contract() idl.Contract {
	return idl.Contract{
		&idl.Struct{
			Name: "Person",
			Fields: []idl.Field{
				{Name: "personId", Type: "string"},
				{Name: "email", Type: "string"},
				{Name: "age", Type: "int", Optional: true},
			},
		},
		&idl.Struct{
			Name: "RepeatRequest",
			Fields: []idl.Field{
				{Name: "to_repeat", Type: "string"},
				{Name: "count", Type: "int"},
				{Name: "force_uppercase", Type: "bool"},
			},
		},
		&idl.Struct{
			Name: "RepeatResponse",
			Fields: []idl.Field{
				{Name: "status", Type: "string"},
				{Name: "count", Type: "int"},
				{Name: "items", Type: "string", IsArray: true},
			},
		},
		&idl.Interface{
			Name: "MyService",
			Functions: []idl.Function{
				{Name: "add", Params: []idl.Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}, Returns: &idl.Return{Type: "int"}},
				{Name: "sqrt", Params: []idl.Param{{Name: "a", Type: "float"}}, Returns: &idl.Return{Type: "float"}},
				{Name: "calc", Params: []idl.Param{{Name: "nums", Type: "float", IsArray: true}, {Name: "op", Type: "string"}}, Returns: &idl.Return{Type: "float"}},
				{Name: "repeat", Params: []idl.Param{{Name: "req", Type: "RepeatRequest"}}, Returns: &idl.Return{Type: "RepeatResponse"}},
				{Name: "sayHi", Returns: &idl.Return{Type: "string"}},
				{Name: "putPerson", Params: []idl.Param{{Name: "person", Type: "Person"}}, Returns: &idl.Return{Type: "string"}},
			},
		},
		&idl.Interface{
			Name: "Echo",
			Functions: []idl.Function{
				{Name: "echo", Params: []idl.Param{{Name: "s", Type: "string"}}, Returns: &idl.Return{Type: "string", Optional: true}},
			},
		},
		&idl.Struct{
			Name: "User",
			Fields: []idl.Field{
				{Name: "email", Type: "string"},
				{Name: "name", Type: "string"},
			},
		},
		&idl.Enum{
			Name:   "Status",
			Values: []idl.EnumValue{{Value: "ok"}, {Value: "invalid"}, {Value: "error"}},
		},
		&idl.Struct{
			Name: "CreateResult",
			Fields: []idl.Field{
				{Name: "status", Type: "Status"},
				{Name: "userId", Type: "string", Optional: true},
			},
		},
		&idl.Struct{
			Name: "CountResult",
			Fields: []idl.Field{
				{Name: "status", Type: "Status"},
				{Name: "count", Type: "int"},
			},
		},
		&idl.Interface{
			Name: "UserService",
			Functions: []idl.Function{
				{Name: "create", Params: []idl.Param{{Name: "user", Type: "User"}}, Returns: &idl.Return{Type: "CreateResult"}},
				{Name: "countUsers", Returns: &idl.Return{Type: "CountResult"}},
			},
		},
	}
}
