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
	"strings"
	"time"

	"github.com/SnellerInc/odata/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Node is a node in a filter expression tree.
type Node interface {
	// Equals returns whether this node is
	// structurally equivalent to another node.
	Equals(other Node) bool
	// text writes the canonical textual representation
	// of this node to dst; when redact is set, constants
	// are replaced with stable pseudorandom surrogates,
	// and when nested is set, binary logical expressions
	// are parenthesized.
	text(dst *strings.Builder, redact, nested bool)
	// walk visits the children of this node
	walk(v Visitor)
}

// Constant is a Node that is a literal value.
type Constant interface {
	Node
	// Type returns the type of the constant.
	Type() Type
}

// Equal is shorthand for a.Equals(b) that tolerates nil.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// Visitor is an interface that must be
// satisfied by arguments to Walk.
type Visitor interface {
	// Visit is called with the node currently
	// being visited, and should return the
	// visitor that will be used to visit the
	// children of the node. If Visit returns
	// nil, the children of the node are not
	// visited.
	Visit(Node) Visitor
}

// Walk performs a depth-first traversal of n,
// calling v.Visit on n and each sub-node of n.
// See also: Visitor.
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Visit(n)
	if w == nil {
		return
	}
	n.walk(w)
	w.Visit(nil)
}

// Rewriter accepts a node and returns
// a new node (or simply the same node)
type Rewriter interface {
	// Rewrite is applied to nodes
	// in depth-first order, and each
	// node is re-written to use the
	// returned value.
	Rewrite(Node) Node
	// Walk is called during node traversal
	// with the current node, and the
	// returned Rewriter is used for all
	// the children of the node. If Walk
	// returns nil, the children are not
	// traversed.
	Walk(Node) Rewriter
}

// nonleaf nodes know how to rewrite their children
type nonleaf interface {
	rewrite(r Rewriter) Node
}

// Rewrite recursively applies a Rewriter in depth-first order.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return n
	}
	if sub := r.Walk(n); sub != nil {
		if nl, ok := n.(nonleaf); ok {
			n = nl.rewrite(sub)
		}
	}
	return r.Rewrite(n)
}

func rewriteNode(r Rewriter, n Node) Node {
	if n == nil {
		return n
	}
	return Rewrite(r, n)
}

// LogicalOp is a logical join operator (or, and).
type LogicalOp int

const (
	OpOr LogicalOp = iota
	OpAnd
)

func (l LogicalOp) String() string {
	switch l {
	case OpOr:
		return "or"
	case OpAnd:
		return "and"
	default:
		return "<unknown-op>"
	}
}

// CmpOp is a comparison operation relating two values.
type CmpOp int

const (
	OpEquals CmpOp = iota
	OpNotEquals
	OpGreater
	OpGreaterEquals
	OpLess
	OpLessEquals
	OpHas
)

func (c CmpOp) String() string {
	switch c {
	case OpEquals:
		return "eq"
	case OpNotEquals:
		return "ne"
	case OpGreater:
		return "gt"
	case OpGreaterEquals:
		return "ge"
	case OpLess:
		return "lt"
	case OpLessEquals:
		return "le"
	case OpHas:
		return "has"
	default:
		return "<unknown-op>"
	}
}

func cmpOp(s string) (CmpOp, bool) {
	switch s {
	case "eq":
		return OpEquals, true
	case "ne":
		return OpNotEquals, true
	case "gt":
		return OpGreater, true
	case "ge":
		return OpGreaterEquals, true
	case "lt":
		return OpLess, true
	case "le":
		return OpLessEquals, true
	case "has":
		return OpHas, true
	default:
		return 0, false
	}
}

// LambdaOp selects the quantifier of a collection lambda.
type LambdaOp int

const (
	OpAny LambdaOp = iota
	OpAll
)

func (l LambdaOp) String() string {
	switch l {
	case OpAny:
		return "any"
	case OpAll:
		return "all"
	default:
		return "<unknown-op>"
	}
}

// Logical is a binary logical expression (or, and).
// The right operand of a chain of joins at the same
// nesting depth holds the rest of the chain, so
// "a1 or b1 or c1" parses as Or(a1, Or(b1, c1)).
type Logical struct {
	Op          LogicalOp
	Left, Right Node
}

// Or returns the logical disjunction of two expressions.
func Or(left, right Node) Node {
	return &Logical{Op: OpOr, Left: left, Right: right}
}

// And returns the logical conjunction of two expressions.
func And(left, right Node) Node {
	return &Logical{Op: OpAnd, Left: left, Right: right}
}

func (l *Logical) Equals(e Node) bool {
	o, ok := e.(*Logical)
	return ok && l.Op == o.Op && l.Left.Equals(o.Left) && l.Right.Equals(o.Right)
}

func (l *Logical) walk(v Visitor) {
	Walk(v, l.Left)
	Walk(v, l.Right)
}

func (l *Logical) rewrite(r Rewriter) Node {
	return &Logical{
		Op:    l.Op,
		Left:  rewriteNode(r, l.Left),
		Right: rewriteNode(r, l.Right),
	}
}

// Not is a logical negation.
type Not struct {
	Expr Node
}

func (n *Not) Equals(e Node) bool {
	o, ok := e.(*Not)
	return ok && n.Expr.Equals(o.Expr)
}

func (n *Not) walk(v Visitor) {
	Walk(v, n.Expr)
}

func (n *Not) rewrite(r Rewriter) Node {
	return &Not{Expr: rewriteNode(r, n.Expr)}
}

// Comparison relates two values with a CmpOp.
type Comparison struct {
	Op          CmpOp
	Left, Right Node
}

// Compare constructs a comparison of two values.
func Compare(op CmpOp, left, right Node) Node {
	return &Comparison{Op: op, Left: left, Right: right}
}

func (c *Comparison) Equals(e Node) bool {
	o, ok := e.(*Comparison)
	return ok && c.Op == o.Op && c.Left.Equals(o.Left) && c.Right.Equals(o.Right)
}

func (c *Comparison) walk(v Visitor) {
	Walk(v, c.Left)
	Walk(v, c.Right)
}

func (c *Comparison) rewrite(r Rewriter) Node {
	return &Comparison{
		Op:    c.Op,
		Left:  rewriteNode(r, c.Left),
		Right: rewriteNode(r, c.Right),
	}
}

// Member is a membership test ("x in (a, b, c)").
// The list of candidate values may be empty.
type Member struct {
	Arg    Node
	Values []Node
}

// In constructs a membership test of arg against values.
func In(arg Node, values ...Node) Node {
	return &Member{Arg: arg, Values: values}
}

func (m *Member) Equals(e Node) bool {
	o, ok := e.(*Member)
	return ok && m.Arg.Equals(o.Arg) &&
		slices.EqualFunc(m.Values, o.Values, Equal)
}

func (m *Member) walk(v Visitor) {
	Walk(v, m.Arg)
	for i := range m.Values {
		Walk(v, m.Values[i])
	}
}

func (m *Member) rewrite(r Rewriter) Node {
	values := make([]Node, len(m.Values))
	for i := range m.Values {
		values[i] = rewriteNode(r, m.Values[i])
	}
	return &Member{Arg: rewriteNode(r, m.Arg), Values: values}
}

// Call is a function application. The argument
// list may be empty, and each argument may be an
// arbitrary sub-expression.
type Call struct {
	Function string
	Args     []Node
}

func (c *Call) Equals(e Node) bool {
	o, ok := e.(*Call)
	return ok && c.Function == o.Function &&
		slices.EqualFunc(c.Args, o.Args, Equal)
}

func (c *Call) walk(v Visitor) {
	for i := range c.Args {
		Walk(v, c.Args[i])
	}
}

func (c *Call) rewrite(r Rewriter) Node {
	args := make([]Node, len(c.Args))
	for i := range c.Args {
		args[i] = rewriteNode(r, c.Args[i])
	}
	return &Call{Function: c.Function, Args: args}
}

// Lambda is a quantified condition over a collection,
// e.g. "tags/any(t1: t1 eq 'gold')". Var is bound inside
// Cond and shadows any schema identifier of the same name.
type Lambda struct {
	Collection Node
	Op         LambdaOp
	Var        string
	Cond       Node
}

func (l *Lambda) Equals(e Node) bool {
	o, ok := e.(*Lambda)
	return ok && l.Op == o.Op && l.Var == o.Var &&
		l.Collection.Equals(o.Collection) && l.Cond.Equals(o.Cond)
}

func (l *Lambda) walk(v Visitor) {
	Walk(v, l.Collection)
	Walk(v, l.Cond)
}

func (l *Lambda) rewrite(r Rewriter) Node {
	return &Lambda{
		Collection: rewriteNode(r, l.Collection),
		Op:         l.Op,
		Var:        l.Var,
		Cond:       rewriteNode(r, l.Cond),
	}
}

// Ident is a reference to a named field.
type Ident string

func (i Ident) Equals(e Node) bool {
	o, ok := e.(Ident)
	return ok && i == o
}

func (i Ident) walk(v Visitor) {}

// Alias is a query parameter alias reference,
// including the leading '@'.
type Alias string

func (a Alias) Equals(e Node) bool {
	o, ok := e.(Alias)
	return ok && a == o
}

func (a Alias) walk(v Visitor) {}

// Null is the null literal.
type Null struct{}

func (n Null) Equals(e Node) bool {
	_, ok := e.(Null)
	return ok
}

func (n Null) walk(v Visitor) {}

func (n Null) Type() Type { return NullType }

// Bool is a boolean literal.
type Bool bool

func (b Bool) Equals(e Node) bool {
	o, ok := e.(Bool)
	return ok && b == o
}

func (b Bool) walk(v Visitor) {}

func (b Bool) Type() Type { return BoolType }

// String is a string literal.
type String string

func (s String) Equals(e Node) bool {
	o, ok := e.(String)
	return ok && s == o
}

func (s String) walk(v Visitor) {}

func (s String) Type() Type { return StringType }

// Number is an arbitrary-precision decimal literal.
// Equality is by numeric value, so 50.0 equals 50.
type Number decimal.Decimal

// Num constructs a Number from a decimal value.
func Num(d decimal.Decimal) Number { return Number(d) }

// Decimal returns the value of n as a decimal.Decimal.
func (n Number) Decimal() decimal.Decimal { return decimal.Decimal(n) }

func (n Number) Equals(e Node) bool {
	o, ok := e.(Number)
	return ok && n.Decimal().Equal(o.Decimal())
}

func (n Number) walk(v Visitor) {}

func (n Number) Type() Type { return NumberType }

// UUID is a UUID literal.
type UUID uuid.UUID

func (u UUID) Equals(e Node) bool {
	o, ok := e.(UUID)
	return ok && u == o
}

func (u UUID) walk(v Visitor) {}

func (u UUID) Type() Type { return UUIDType }

// Timestamp is a point-in-time literal. The value
// is always stored in UTC; source expressions with
// an offset or a zone name are resolved during parsing.
type Timestamp struct {
	Value time.Time
}

func (t *Timestamp) Equals(e Node) bool {
	o, ok := e.(*Timestamp)
	return ok && t.Value.Equal(o.Value)
}

func (t *Timestamp) walk(v Visitor) {}

func (t *Timestamp) Type() Type { return DateTimeType }

// Date is a calendar date literal without a time component.
type Date struct {
	Value date.Date
}

func (d *Date) Equals(e Node) bool {
	o, ok := e.(*Date)
	return ok && d.Value == o.Value
}

func (d *Date) walk(v Visitor) {}

func (d *Date) Type() Type { return DateType }

// Time is a time-of-day literal without a date component.
type Time struct {
	Value date.Clock
}

func (t *Time) Equals(e Node) bool {
	o, ok := e.(*Time)
	return ok && t.Value == o.Value
}

func (t *Time) walk(v Visitor) {}

func (t *Time) Type() Type { return TimeType }
