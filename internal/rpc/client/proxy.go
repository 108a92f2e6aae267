package client

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unicode"

	"github.com/coopernurse/barrister/idl"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Proxy populates the function-typed fields of dst -- a pointer to a
// struct whose field names match function names on ifaceName, either
// exactly or with the field's first letter lower-cased (field Add binds
// to function add) -- with implementations that call through the client.
// Arguments are round-tripped through JSON before the call, so Go ints
// reach validation and the transport as JSON numbers. Go cannot synthesize
// methods on an arbitrary interface at runtime the way dynamic languages
// can generate a proxy object from a spec; reflect.MakeFunc against a
// user-supplied struct's function fields is the idiomatic substitute.
func (c *Client) Proxy(ifaceName string, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("proxy target must be a pointer to a struct, got %T", dst)
	}
	elem := v.Elem()
	t := elem.Type()

	iface, ok := c.model.Interface(ifaceName)
	if !ok {
		return fmt.Errorf("unknown interface: %s", ifaceName)
	}
	byName := make(map[string]idl.Function, len(iface.Functions))
	for _, fn := range iface.Functions {
		byName[fn.Name] = fn
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		fnSpec, ok := byName[field.Name]
		if !ok {
			r := []rune(field.Name)
			r[0] = unicode.ToLower(r[0])
			fnSpec, ok = byName[string(r)]
		}
		if !ok {
			continue
		}
		fieldVal := elem.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		method := ifaceName + "." + fnSpec.Name
		fieldType := field.Type
		fieldVal.Set(reflect.MakeFunc(fieldType, func(args []reflect.Value) []reflect.Value {
			params := make([]any, len(args))
			for j, a := range args {
				params[j] = a.Interface()
			}
			if b, merr := json.Marshal(params); merr == nil {
				_ = json.Unmarshal(b, &params)
			}
			result, err := c.Call(method, params)
			return decodeResults(fieldType, result, err)
		}))
	}
	return nil
}

// decodeResults maps a Call's (result, error) onto fnType's actual
// return values, JSON round-tripping result into whatever concrete Go
// type the proxy field declares.
func decodeResults(fnType reflect.Type, result any, err error) []reflect.Value {
	numOut := fnType.NumOut()
	out := make([]reflect.Value, numOut)

	errIdx := -1
	if numOut > 0 && fnType.Out(numOut-1) == errorType {
		errIdx = numOut - 1
	}

	for i := 0; i < numOut; i++ {
		if i == errIdx {
			continue
		}
		outType := fnType.Out(i)
		ptr := reflect.New(outType)
		if result != nil {
			if b, merr := json.Marshal(result); merr == nil {
				_ = json.Unmarshal(b, ptr.Interface())
			}
		}
		out[i] = ptr.Elem()
	}

	if errIdx >= 0 {
		if err != nil {
			out[errIdx] = reflect.ValueOf(err)
		} else {
			out[errIdx] = reflect.Zero(fnType.Out(errIdx))
		}
	}
	return out
}
