package conform

import (
	"fmt"
	"math"
	"strings"

	"github.com/coopernurse/barrister/internal/rpc/server"
)

// MyServiceHandlers implements add/sqrt/calc/repeat/sayHi/putPerson the
// way the reference conformance fixture's "A" service does.
func MyServiceHandlers() server.InterfaceHandler {
	return server.InterfaceHandler{
		"add":       handleAdd,
		"sqrt":      handleSqrt,
		"calc":      handleCalc,
		"repeat":    handleRepeat,
		"sayHi":     handleSayHi,
		"putPerson": handlePutPerson,
	}
}

// EchoHandlers implements echo the way the fixture's "B" service does:
// the sentinel string "return-null" maps to a nil result.
func EchoHandlers() server.InterfaceHandler {
	return server.InterfaceHandler{
		"echo": handleEcho,
	}
}

func handleAdd(params []any) (any, error) {
	a := params[0].(float64)
	b := params[1].(float64)
	return a + b, nil
}

func handleSqrt(params []any) (any, error) {
	a := params[0].(float64)
	return math.Sqrt(a), nil
}

func handleCalc(params []any) (any, error) {
	nums, _ := params[0].([]any)
	op, _ := params[1].(string)

	var total float64
	if op == "multiply" {
		total = 1
	}
	for _, n := range nums {
		v := n.(float64)
		switch op {
		case "add":
			total += v
		case "multiply":
			total *= v
		default:
			return nil, fmt.Errorf("unknown op: %s", op)
		}
	}
	return total, nil
}

func handleRepeat(params []any) (any, error) {
	req, ok := params[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("repeat: expected a RepeatRequest object")
	}
	s, _ := req["to_repeat"].(string)
	count := int(req["count"].(float64))
	if up, _ := req["force_uppercase"].(bool); up {
		s = strings.ToUpper(s)
	}
	items := make([]any, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, s)
	}
	return map[string]any{"status": "ok", "count": count, "items": items}, nil
}

func handleSayHi(params []any) (any, error) {
	return "hi", nil
}

func handlePutPerson(params []any) (any, error) {
	person, ok := params[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("putPerson: expected a Person object")
	}
	id, _ := person["personId"].(string)
	return id, nil
}

func handleEcho(params []any) (any, error) {
	s, _ := params[0].(string)
	if s == "return-null" {
		return nil, nil
	}
	return s, nil
}
