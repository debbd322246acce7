// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package filter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SnellerInc/odata/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Each JSON object carries a "node" discriminator;
// children are decoded in a second phase from raw
// messages once the discriminator is known.

type rawNode struct {
	Node string `json:"node"`
}

type rawLogical struct {
	Node  string          `json:"node"`
	Op    string          `json:"op"`
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

type rawNot struct {
	Node string          `json:"node"`
	Expr json.RawMessage `json:"expr"`
}

type rawComparison struct {
	Node  string          `json:"node"`
	Op    string          `json:"op"`
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

type rawMember struct {
	Node   string            `json:"node"`
	Arg    json.RawMessage   `json:"arg"`
	Values []json.RawMessage `json:"values"`
}

type rawCall struct {
	Node     string            `json:"node"`
	Function string            `json:"function"`
	Args     []json.RawMessage `json:"args"`
}

type rawLambda struct {
	Node       string          `json:"node"`
	Collection json.RawMessage `json:"collection"`
	Op         string          `json:"op"`
	Var        string          `json:"var"`
	Cond       json.RawMessage `json:"cond"`
}

type rawName struct {
	Node string `json:"node"`
	Name string `json:"name"`
}

type rawValue struct {
	Node string `json:"node"`
	Type Type   `json:"type"`
	// Value is the canonical textual form of the
	// constant; absent for the null literal.
	Value string `json:"value,omitempty"`
}

// EncodeJSON encodes the expression tree as JSON.
// The encoding round-trips through DecodeJSON to an
// Equals-identical tree.
func EncodeJSON(n Node) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("cannot encode nil node")
	}
	return encodeNode(n)
}

func encodeNode(n Node) (json.RawMessage, error) {
	switch e := n.(type) {
	case *Logical:
		left, err := encodeNode(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeNode(e.Right)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&rawLogical{Node: "logical", Op: e.Op.String(), Left: left, Right: right})
	case *Not:
		expr, err := encodeNode(e.Expr)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&rawNot{Node: "not", Expr: expr})
	case *Comparison:
		left, err := encodeNode(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeNode(e.Right)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&rawComparison{Node: "compare", Op: e.Op.String(), Left: left, Right: right})
	case *Member:
		arg, err := encodeNode(e.Arg)
		if err != nil {
			return nil, err
		}
		values, err := encodeList(e.Values)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&rawMember{Node: "in", Arg: arg, Values: values})
	case *Call:
		args, err := encodeList(e.Args)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&rawCall{Node: "call", Function: e.Function, Args: args})
	case *Lambda:
		coll, err := encodeNode(e.Collection)
		if err != nil {
			return nil, err
		}
		cond, err := encodeNode(e.Cond)
		if err != nil {
			return nil, err
		}
		return json.Marshal(&rawLambda{Node: "lambda", Collection: coll, Op: e.Op.String(), Var: e.Var, Cond: cond})
	case Ident:
		return json.Marshal(&rawName{Node: "ident", Name: string(e)})
	case Alias:
		return json.Marshal(&rawName{Node: "alias", Name: string(e)})
	case Null:
		return json.Marshal(&rawValue{Node: "value", Type: NullType})
	case Bool:
		return json.Marshal(&rawValue{Node: "value", Type: BoolType, Value: ToString(e)})
	case Number:
		return json.Marshal(&rawValue{Node: "value", Type: NumberType, Value: ToString(e)})
	case UUID:
		return json.Marshal(&rawValue{Node: "value", Type: UUIDType, Value: e.String()})
	case String:
		return json.Marshal(&rawValue{Node: "value", Type: StringType, Value: string(e)})
	case *Timestamp:
		// full precision here; Equals compares timestamps
		// at nanosecond resolution
		return json.Marshal(&rawValue{Node: "value", Type: DateTimeType, Value: e.Value.UTC().Format(time.RFC3339Nano)})
	case *Date:
		return json.Marshal(&rawValue{Node: "value", Type: DateType, Value: e.Value.String()})
	case *Time:
		return json.Marshal(&rawValue{Node: "value", Type: TimeType, Value: e.Value.String()})
	default:
		return nil, fmt.Errorf("cannot encode node %T", n)
	}
}

func encodeList(nodes []Node) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(nodes))
	for i := range nodes {
		raw, err := encodeNode(nodes[i])
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// DecodeJSON decodes an expression tree
// produced by EncodeJSON.
func DecodeJSON(buf []byte) (Node, error) {
	return decodeNode(buf)
}

func decodeNode(buf json.RawMessage) (Node, error) {
	var head rawNode
	if err := json.Unmarshal(buf, &head); err != nil {
		return nil, err
	}
	switch head.Node {
	case "logical":
		var raw rawLogical
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		left, err := decodeNode(raw.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(raw.Right)
		if err != nil {
			return nil, err
		}
		switch raw.Op {
		case "or":
			return Or(left, right), nil
		case "and":
			return And(left, right), nil
		default:
			return nil, fmt.Errorf("unknown logical op %q", raw.Op)
		}
	case "not":
		var raw rawNot
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		expr, err := decodeNode(raw.Expr)
		if err != nil {
			return nil, err
		}
		return &Not{Expr: expr}, nil
	case "compare":
		var raw rawComparison
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		op, ok := cmpOp(raw.Op)
		if !ok {
			return nil, fmt.Errorf("unknown comparison op %q", raw.Op)
		}
		left, err := decodeNode(raw.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(raw.Right)
		if err != nil {
			return nil, err
		}
		return Compare(op, left, right), nil
	case "in":
		var raw rawMember
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		arg, err := decodeNode(raw.Arg)
		if err != nil {
			return nil, err
		}
		values, err := decodeList(raw.Values)
		if err != nil {
			return nil, err
		}
		return In(arg, values...), nil
	case "call":
		var raw rawCall
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		args, err := decodeList(raw.Args)
		if err != nil {
			return nil, err
		}
		return &Call{Function: raw.Function, Args: args}, nil
	case "lambda":
		var raw rawLambda
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		coll, err := decodeNode(raw.Collection)
		if err != nil {
			return nil, err
		}
		cond, err := decodeNode(raw.Cond)
		if err != nil {
			return nil, err
		}
		var op LambdaOp
		switch raw.Op {
		case "any":
			op = OpAny
		case "all":
			op = OpAll
		default:
			return nil, fmt.Errorf("unknown lambda op %q", raw.Op)
		}
		lam, ok := coll.(Ident)
		if !ok {
			return nil, fmt.Errorf("lambda collection must be an identifier, got %T", coll)
		}
		return &Lambda{Collection: lam, Op: op, Var: raw.Var, Cond: cond}, nil
	case "ident":
		var raw rawName
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		return Ident(raw.Name), nil
	case "alias":
		var raw rawName
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		return Alias(raw.Name), nil
	case "value":
		var raw rawValue
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, err
		}
		return decodeValue(&raw)
	default:
		return nil, fmt.Errorf("unknown node kind %q", head.Node)
	}
}

func decodeList(raws []json.RawMessage) ([]Node, error) {
	out := make([]Node, len(raws))
	for i := range raws {
		n, err := decodeNode(raws[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decodeValue(raw *rawValue) (Node, error) {
	switch raw.Type {
	case NullType:
		return Null{}, nil
	case BoolType:
		switch raw.Value {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		default:
			return nil, fmt.Errorf("invalid boolean %q", raw.Value)
		}
	case NumberType:
		d, err := decimal.NewFromString(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", raw.Value)
		}
		return Number(d), nil
	case UUIDType:
		id, err := uuid.Parse(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q", raw.Value)
		}
		return UUID(id), nil
	case DateTimeType:
		t, err := time.Parse(time.RFC3339Nano, raw.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid datetime %q", raw.Value)
		}
		return &Timestamp{Value: t.UTC()}, nil
	case DateType:
		t, err := time.Parse("2006-01-02", raw.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", raw.Value)
		}
		return &Date{Value: date.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}}, nil
	case TimeType:
		t, err := time.Parse("15:04:05.999999999", raw.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q", raw.Value)
		}
		return &Time{Value: date.Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}}, nil
	case StringType:
		return String(raw.Value), nil
	default:
		return nil, fmt.Errorf("unknown value type %q", raw.Type)
	}
}
