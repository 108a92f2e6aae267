// Package checksum computes the canonical, order- and comment-insensitive
// digest stamped onto a contract as its terminal "meta" entity.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/coopernurse/barrister/idl"
)

// BarristerVersion is the protocol version stamped into every meta entity.
const BarristerVersion = "2.0"

// Compute returns the canonical checksum of the contract: a sorted set of
// schema-driven text lines (one per struct/enum/interface), MD5-hashed
// over their JSON-encoded array form. The result depends only on names,
// types, array-ness, optionality, and parameter order -- never on
// comments, declaration order, or whitespace.
func Compute(c idl.Contract) string {
	var lines []string
	for _, e := range c {
		switch t := e.(type) {
		case *idl.Struct:
			lines = append(lines, structLine(t))
		case *idl.Enum:
			lines = append(lines, enumLine(t))
		case *idl.Interface:
			lines = append(lines, interfaceLine(t))
		}
	}
	sort.Strings(lines)

	b, err := json.Marshal(lines)
	if err != nil {
		// lines are plain strings; Marshal cannot fail.
		panic(err)
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func structLine(s *idl.Struct) string {
	fields := append([]idl.Field{}, s.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	line := fmt.Sprintf("struct\t%s\t%s\t", s.Name, s.Extends)
	for _, f := range fields {
		line += fmt.Sprintf("\t%s\t%s\t%t\t%t", f.Name, f.Type, f.IsArray, f.Optional)
	}
	return line
}

func enumLine(e *idl.Enum) string {
	values := append([]idl.EnumValue{}, e.Values...)
	sort.Slice(values, func(i, j int) bool { return values[i].Value < values[j].Value })

	line := fmt.Sprintf("enum\t%s", e.Name)
	for _, v := range values {
		line += fmt.Sprintf("\t%s", v.Value)
	}
	return line
}

func interfaceLine(i *idl.Interface) string {
	funcs := append([]idl.Function{}, i.Functions...)
	sort.Slice(funcs, func(a, b int) bool { return funcs[a].Name < funcs[b].Name })

	line := fmt.Sprintf("interface\t%s", i.Name)
	for _, fn := range funcs {
		line += "[" + fn.Name
		for _, p := range fn.Params {
			line += fmt.Sprintf("\t%s\t%t", p.Type, p.IsArray)
		}
		if fn.Returns != nil {
			line += fmt.Sprintf("(%s\t%t\t%t)", fn.Returns.Type, fn.Returns.IsArray, fn.Returns.Optional)
		} else {
			line += "(\t\t)"
		}
		line += "]"
	}
	return line
}

// Stamp appends a meta entity carrying the checksum and generation
// timestamp (milliseconds since epoch) to the contract.
func Stamp(c idl.Contract, nowMillis int64) idl.Contract {
	return append(c, &idl.Meta{
		BarristerVersion: BarristerVersion,
		DateGenerated:    nowMillis,
		Checksum:         Compute(c),
	})
}
