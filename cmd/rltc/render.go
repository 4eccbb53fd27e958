package main

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relishfmt/relish"
)

// plainValue converts v into the generic tree encoding/json understands.
//
// 128-bit integers and floats become json.Number so no precision is lost.
// Non-finite floats, which JSON cannot carry, become the strings "NaN",
// "+Inf" and "-Inf". Struct fields are keyed by decimal field id. A map
// whose keys are all strings becomes an object; any other map becomes a
// list of [key, value] pairs. An enum becomes {"variant": n, "value": v}.
func plainValue(v relish.Value) any {
	switch x := v.(type) {
	case relish.Null:
		return nil
	case relish.Bool:
		return bool(x)
	case relish.U8:
		return uint64(x)
	case relish.U16:
		return uint64(x)
	case relish.U32:
		return uint64(x)
	case relish.U64:
		return uint64(x)
	case relish.I8:
		return int64(x)
	case relish.I16:
		return int64(x)
	case relish.I32:
		return int64(x)
	case relish.I64:
		return int64(x)
	case relish.U128:
		return json.Number(x.String())
	case relish.I128:
		return json.Number(x.String())
	case relish.F32:
		return plainFloat(float64(x), 32)
	case relish.F64:
		return plainFloat(float64(x), 64)
	case relish.String:
		return string(x)
	case relish.Timestamp:
		return x.Time().Format(time.RFC3339)
	case relish.Array:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	case relish.Map:
		if obj, ok := stringKeyed(x); ok {
			return obj
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = []any{plainValue(e.Key), plainValue(e.Value)}
		}
		return out
	case relish.Struct:
		out := make(map[string]any, len(x))
		for _, f := range x {
			out[strconv.Itoa(int(f.ID))] = plainValue(f.Value)
		}
		return out
	case relish.Enum:
		return map[string]any{"variant": int(x.Variant), "value": plainValue(x.Value)}
	}
	return nil
}

func stringKeyed(m relish.Map) (map[string]any, bool) {
	out := make(map[string]any, len(m))
	for _, e := range m {
		k, ok := e.Key.(relish.String)
		if !ok {
			return nil, false
		}
		out[string(k)] = plainValue(e.Value)
	}
	return out, true
}

func plainFloat(f float64, bits int) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, bits))
}

// yamlNode builds a YAML document for v. Unlike JSON, YAML keeps map
// order and allows non-string keys, so maps and structs become mappings
// in wire order.
func yamlNode(v relish.Value) *yaml.Node {
	switch x := v.(type) {
	case relish.Null:
		return scalar("!!null", "null")
	case relish.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(x)))
	case relish.U8:
		return scalar("!!int", strconv.FormatUint(uint64(x), 10))
	case relish.U16:
		return scalar("!!int", strconv.FormatUint(uint64(x), 10))
	case relish.U32:
		return scalar("!!int", strconv.FormatUint(uint64(x), 10))
	case relish.U64:
		return scalar("!!int", strconv.FormatUint(uint64(x), 10))
	case relish.U128:
		return scalar("!!int", x.String())
	case relish.I8:
		return scalar("!!int", strconv.FormatInt(int64(x), 10))
	case relish.I16:
		return scalar("!!int", strconv.FormatInt(int64(x), 10))
	case relish.I32:
		return scalar("!!int", strconv.FormatInt(int64(x), 10))
	case relish.I64:
		return scalar("!!int", strconv.FormatInt(int64(x), 10))
	case relish.I128:
		return scalar("!!int", x.String())
	case relish.F32:
		return scalar("!!float", yamlFloat(float64(x), 32))
	case relish.F64:
		return scalar("!!float", yamlFloat(float64(x), 64))
	case relish.String:
		return scalar("!!str", string(x))
	case relish.Timestamp:
		return scalar("!!timestamp", x.Time().Format(time.RFC3339))
	case relish.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case relish.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range x {
			n.Content = append(n.Content, yamlNode(e.Key), yamlNode(e.Value))
		}
		return n
	case relish.Struct:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range x {
			n.Content = append(n.Content, scalar("!!int", strconv.Itoa(int(f.ID))), yamlNode(f.Value))
		}
		return n
	case relish.Enum:
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
			scalar("!!str", "variant"), scalar("!!int", strconv.Itoa(int(x.Variant))),
			scalar("!!str", "value"), yamlNode(x.Value),
		}}
	}
	return scalar("!!null", "null")
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
