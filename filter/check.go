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

import "fmt"

// BooleanJoinError indicates an "or" or "and" with a
// non-boolean operand.
type BooleanJoinError struct {
	Left, Right Type
}

func (e *BooleanJoinError) Error() string {
	return fmt.Sprintf("logical join requires boolean operands: lhs is %s and rhs is %s", e.Left, e.Right)
}

// BooleanCondError indicates a "not" or a lambda
// condition whose operand is not boolean.
type BooleanCondError struct {
	Given Type
}

func (e *BooleanCondError) Error() string {
	return fmt.Sprintf("condition must be boolean, got %s", e.Given)
}

// IncompatibleTypesError indicates a comparison or a
// membership test over values that cannot be compared.
type IncompatibleTypesError struct {
	Left, Right Type
}

func (e *IncompatibleTypesError) Error() string {
	return fmt.Sprintf("cannot compare %s with %s", e.Left, e.Right)
}

// UndefinedIdentifierError indicates a reference to an
// identifier or alias the schema does not define.
type UndefinedIdentifierError struct {
	Name string
}

func (e *UndefinedIdentifierError) Error() string {
	return fmt.Sprintf("undefined identifier %q", e.Name)
}

// UndefinedFunctionError indicates a call to a function
// the schema does not define.
type UndefinedFunctionError struct {
	Name string
}

func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("undefined function %q", e.Name)
}

// ArgumentCountError indicates a call with the wrong
// number of arguments.
type ArgumentCountError struct {
	Function string
	// Variadic is set when the function accepts
	// Expected or more arguments rather than
	// exactly Expected.
	Variadic bool
	Expected int
	Given    int
}

func (e *ArgumentCountError) Error() string {
	if e.Variadic {
		return fmt.Sprintf("function %q expects at least %d arguments, got %d", e.Function, e.Expected, e.Given)
	}
	return fmt.Sprintf("function %q expects %d arguments, got %d", e.Function, e.Expected, e.Given)
}

// ArgumentTypeError indicates a call argument of the
// wrong type. Position counts from one.
type ArgumentTypeError struct {
	Function string
	Position int
	Expected Type
	Given    Type
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("function %q argument %d expects %s, got %s", e.Function, e.Position, e.Expected, e.Given)
}

// scope is a linked overlay of lambda-bound variables.
// Bound variables shadow schema identifiers and have
// type NullType, so they compare with anything.
type scope struct {
	name string
	next *scope
}

func (s *scope) bound(name string) bool {
	for ; s != nil; s = s.next {
		if s.name == name {
			return true
		}
	}
	return false
}

// TypeOf checks n against the schema and returns its type.
// Checking is depth-first and left-to-right and stops at
// the first error.
func TypeOf(n Node, s *Schema) (Type, error) {
	if s == nil {
		s = &Schema{}
	}
	return typeOf(n, s, nil)
}

// IsBoolean returns whether n checks against the schema
// with type boolean. Only an expression that is boolean
// in this exact sense may be used as a complete filter;
// a bare null literal is not accepted even though null
// compares with anything.
func IsBoolean(n Node, s *Schema) (bool, error) {
	t, err := TypeOf(n, s)
	if err != nil {
		return false, err
	}
	return t == BoolType, nil
}

func typeOf(n Node, s *Schema, sc *scope) (Type, error) {
	switch e := n.(type) {
	case *Logical:
		lt, err := typeOf(e.Left, s, sc)
		if err != nil {
			return 0, err
		}
		rt, err := typeOf(e.Right, s, sc)
		if err != nil {
			return 0, err
		}
		// joins demand exact booleans; the null
		// wildcard does not apply here
		if lt != BoolType || rt != BoolType {
			return 0, &BooleanJoinError{Left: lt, Right: rt}
		}
		return BoolType, nil
	case *Not:
		t, err := typeOf(e.Expr, s, sc)
		if err != nil {
			return 0, err
		}
		if t != BoolType {
			return 0, &BooleanCondError{Given: t}
		}
		return BoolType, nil
	case *Comparison:
		lt, err := typeOf(e.Left, s, sc)
		if err != nil {
			return 0, err
		}
		rt, err := typeOf(e.Right, s, sc)
		if err != nil {
			return 0, err
		}
		if !lt.Comparable(rt) {
			return 0, &IncompatibleTypesError{Left: lt, Right: rt}
		}
		return BoolType, nil
	case *Member:
		lt, err := typeOf(e.Arg, s, sc)
		if err != nil {
			return 0, err
		}
		for i := range e.Values {
			vt, err := typeOf(e.Values[i], s, sc)
			if err != nil {
				return 0, err
			}
			if !lt.Comparable(vt) {
				return 0, &IncompatibleTypesError{Left: lt, Right: vt}
			}
		}
		return BoolType, nil
	case *Call:
		sig, ok := s.Functions[e.Function]
		if !ok {
			return 0, &UndefinedFunctionError{Name: e.Function}
		}
		variadic := sig.Variadic != nil
		if (!variadic && len(e.Args) != len(sig.Params)) ||
			(variadic && len(e.Args) < len(sig.Params)) {
			return 0, &ArgumentCountError{
				Function: e.Function,
				Variadic: variadic,
				Expected: len(sig.Params),
				Given:    len(e.Args),
			}
		}
		for i := range e.Args {
			want := NullType
			if i < len(sig.Params) {
				want = sig.Params[i]
			} else {
				want = *sig.Variadic
			}
			at, err := typeOf(e.Args[i], s, sc)
			if err != nil {
				return 0, err
			}
			if !at.Comparable(want) {
				return 0, &ArgumentTypeError{
					Function: e.Function,
					Position: i + 1,
					Expected: want,
					Given:    at,
				}
			}
		}
		return sig.Result, nil
	case *Lambda:
		if _, err := typeOf(e.Collection, s, sc); err != nil {
			return 0, err
		}
		t, err := typeOf(e.Cond, s, &scope{name: e.Var, next: sc})
		if err != nil {
			return 0, err
		}
		if t != BoolType {
			return 0, &BooleanCondError{Given: t}
		}
		return BoolType, nil
	case Ident:
		if sc.bound(string(e)) {
			return NullType, nil
		}
		t, ok := s.Identifiers[string(e)]
		if !ok {
			return 0, &UndefinedIdentifierError{Name: string(e)}
		}
		return t, nil
	case Alias:
		// aliases carry the '@' prefix, so they can
		// never collide with lambda-bound variables
		t, ok := s.Identifiers[string(e)]
		if !ok {
			return 0, &UndefinedIdentifierError{Name: string(e)}
		}
		return t, nil
	case Constant:
		return e.Type(), nil
	default:
		return 0, fmt.Errorf("unexpected node %T", n)
	}
}
