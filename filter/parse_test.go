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
	"errors"
	"testing"
	"time"

	"github.com/SnellerInc/odata/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func num(t *testing.T, s string) Number {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad test number %q: %s", s, err)
	}
	return Number(d)
}

func ts(t *testing.T, s string) *Timestamp {
	t.Helper()
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %s", s, err)
	}
	return &Timestamp{Value: v.UTC()}
}

func TestParse(t *testing.T) {
	n := func(s string) Number { return num(t, s) }
	tcs := []struct {
		in   string
		want Node
	}{
		{
			in: "name eq 'John' or isActive eq true",
			want: Or(
				Compare(OpEquals, Ident("name"), String("John")),
				Compare(OpEquals, Ident("isActive"), Bool(true)),
			),
		},
		{
			in: "labels/any(label: label eq 'Architecture') or labels/any(label: label eq 'Structural') or labels/any(label: label eq 'Heating')",
			want: Or(
				&Lambda{Collection: Ident("labels"), Op: OpAny, Var: "label",
					Cond: Compare(OpEquals, Ident("label"), String("Architecture"))},
				Or(
					&Lambda{Collection: Ident("labels"), Op: OpAny, Var: "label",
						Cond: Compare(OpEquals, Ident("label"), String("Structural"))},
					&Lambda{Collection: Ident("labels"), Op: OpAny, Var: "label",
						Cond: Compare(OpEquals, Ident("label"), String("Heating"))},
				),
			),
		},
		{
			in: "name eq 'John' and isActive eq true",
			want: And(
				Compare(OpEquals, Ident("name"), String("John")),
				Compare(OpEquals, Ident("isActive"), Bool(true)),
			),
		},
		{
			in:   "not (name eq 'John')",
			want: &Not{Expr: Compare(OpEquals, Ident("name"), String("John"))},
		},
		{
			in: "(name eq 'John' and isActive eq true) or age gt 30",
			want: Or(
				And(
					Compare(OpEquals, Ident("name"), String("John")),
					Compare(OpEquals, Ident("isActive"), Bool(true)),
				),
				Compare(OpGreater, Ident("age"), n("30")),
			),
		},
		{
			in: "((name eq 'John' and isActive eq true) or (age gt 30 and age lt 50))",
			want: Or(
				And(
					Compare(OpEquals, Ident("name"), String("John")),
					Compare(OpEquals, Ident("isActive"), Bool(true)),
				),
				And(
					Compare(OpGreater, Ident("age"), n("30")),
					Compare(OpLess, Ident("age"), n("50")),
				),
			),
		},
		{
			in:   "endswith(name, 'Smith')",
			want: &Call{Function: "endswith", Args: []Node{Ident("name"), String("Smith")}},
		},
		{
			// a gap before the opening paren is fine
			in:   "endswith (name, 'Smith')",
			want: &Call{Function: "endswith", Args: []Node{Ident("name"), String("Smith")}},
		},
		{
			in: "concat(concat(city, ', '), country) eq 'Berlin, Germany'",
			want: Compare(OpEquals,
				&Call{Function: "concat", Args: []Node{
					&Call{Function: "concat", Args: []Node{Ident("city"), String(", ")}},
					Ident("country"),
				}},
				String("Berlin, Germany"),
			),
		},
		{
			in:   "name in ('John', 'Jane', 'Doe')",
			want: In(Ident("name"), String("John"), String("Jane"), String("Doe")),
		},
		{
			in: "not (not (isActive eq false))",
			want: &Not{Expr: &Not{
				Expr: Compare(OpEquals, Ident("isActive"), Bool(false)),
			}},
		},
		{
			in: "((name eq 'John' and isActive eq true) or (age gt 30 and age lt 50)) and (city eq 'Berlin' or city eq 'Paris')",
			want: And(
				Or(
					And(
						Compare(OpEquals, Ident("name"), String("John")),
						Compare(OpEquals, Ident("isActive"), Bool(true)),
					),
					And(
						Compare(OpGreater, Ident("age"), n("30")),
						Compare(OpLess, Ident("age"), n("50")),
					),
				),
				Or(
					Compare(OpEquals, Ident("city"), String("Berlin")),
					Compare(OpEquals, Ident("city"), String("Paris")),
				),
			),
		},
		{
			in: "substring(name, 1, 3) eq 'Joh'",
			want: Compare(OpEquals,
				&Call{Function: "substring", Args: []Node{Ident("name"), n("1"), n("3")}},
				String("Joh"),
			),
		},
		{
			in: "concat(substring(name, 1, 3), ' Doe') eq 'Joh Doe'",
			want: Compare(OpEquals,
				&Call{Function: "concat", Args: []Node{
					&Call{Function: "substring", Args: []Node{Ident("name"), n("1"), n("3")}},
					String(" Doe"),
				}},
				String("Joh Doe"),
			),
		},
		{
			in: "not endswith(name, 'Smith')",
			want: &Not{Expr: &Call{
				Function: "endswith",
				Args:     []Node{Ident("name"), String("Smith")},
			}},
		},
		{
			in: "price gt 50.0 and (name eq 'John' or endswith(name, 'Doe'))",
			want: And(
				Compare(OpGreater, Ident("price"), n("50.0")),
				Or(
					Compare(OpEquals, Ident("name"), String("John")),
					&Call{Function: "endswith", Args: []Node{Ident("name"), String("Doe")}},
				),
			),
		},
		{
			in: "not name in ('John', 'Jane', 'Doe')",
			want: &Not{Expr: In(Ident("name"),
				String("John"), String("Jane"), String("Doe"))},
		},
		{
			in: "((price gt 50.0 and price lt 100.0) or (discount eq 10.0 and isAvailable eq true))",
			want: Or(
				And(
					Compare(OpGreater, Ident("price"), n("50.0")),
					Compare(OpLess, Ident("price"), n("100.0")),
				),
				And(
					Compare(OpEquals, Ident("discount"), n("10.0")),
					Compare(OpEquals, Ident("isAvailable"), Bool(true)),
				),
			),
		},
		{
			in: "startswith(name, 'J') and length(name) gt 3",
			want: And(
				&Call{Function: "startswith", Args: []Node{Ident("name"), String("J")}},
				Compare(OpGreater,
					&Call{Function: "length", Args: []Node{Ident("name")}},
					n("3"),
				),
			),
		},
		{
			in: "isActive eq true and not contains(name, 'Admin')",
			want: And(
				Compare(OpEquals, Ident("isActive"), Bool(true)),
				&Not{Expr: &Call{
					Function: "contains",
					Args:     []Node{Ident("name"), String("Admin")},
				}},
			),
		},
		{
			in: "not ((price gt 50.0 or price lt 30.0) and not (discount eq 5.0 or discount eq 10.0))",
			want: &Not{Expr: And(
				Or(
					Compare(OpGreater, Ident("price"), n("50.0")),
					Compare(OpLess, Ident("price"), n("30.0")),
				),
				&Not{Expr: Or(
					Compare(OpEquals, Ident("discount"), n("5.0")),
					Compare(OpEquals, Ident("discount"), n("10.0")),
				)},
			)},
		},
		{
			in: "concat(concat(city, ', '), country) eq 'Berlin, Germany' and contains(description, 'sample')",
			want: And(
				Compare(OpEquals,
					&Call{Function: "concat", Args: []Node{
						&Call{Function: "concat", Args: []Node{Ident("city"), String(", ")}},
						Ident("country"),
					}},
					String("Berlin, Germany"),
				),
				&Call{Function: "contains", Args: []Node{Ident("description"), String("sample")}},
			),
		},
		{
			// joins group to the right regardless of operator
			in: "a1 or b1 and c1",
			want: Or(Ident("a1"),
				And(Ident("b1"), Ident("c1"))),
		},
		{
			in: "a1 and b1 or c1",
			want: And(Ident("a1"),
				Or(Ident("b1"), Ident("c1"))),
		},
		{
			// keywords are matched by prefix without a word boundary
			in:   "notactive",
			want: &Not{Expr: Ident("active")},
		},
		{
			in:   "items/all(it: it ge 10)",
			want: &Lambda{Collection: Ident("items"), Op: OpAll, Var: "it", Cond: Compare(OpGreaterEquals, Ident("it"), n("10"))},
		},
		{
			in:   "flags has 'archived'",
			want: Compare(OpHas, Ident("flags"), String("archived")),
		},
		{
			in:   "name eq @p1",
			want: Compare(OpEquals, Ident("name"), Alias("@p1")),
		},
		{
			in:   "now()",
			want: &Call{Function: "now", Args: []Node{}},
		},
		{
			in:   "score in ()",
			want: &Member{Arg: Ident("score"), Values: []Node{}},
		},
		{
			in:   "deleted eq null",
			want: Compare(OpEquals, Ident("deleted"), Null{}),
		},
		{
			// boolean and null keywords fold case per letter
			in:   "ok eq TrUe and gone ne NULL",
			want: And(Compare(OpEquals, Ident("ok"), Bool(true)), Compare(OpNotEquals, Ident("gone"), Null{})),
		},
		{
			in: "id eq 123e4567-e89b-12d3-a456-426614174000",
			want: Compare(OpEquals, Ident("id"),
				UUID(uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"))),
		},
		{
			in:   "born eq 1990-05-14",
			want: Compare(OpEquals, Ident("born"), &Date{Value: date.Date{Year: 1990, Month: 5, Day: 14}}),
		},
		{
			in:   "opens eq 9:30",
			want: Compare(OpEquals, Ident("opens"), &Time{Value: date.Clock{Hour: 9, Minute: 30}}),
		},
		{
			in:   "at eq 08:02:03.123",
			want: Compare(OpEquals, Ident("at"), &Time{Value: date.Clock{Hour: 8, Minute: 2, Second: 3, Nanosecond: 123000000}}),
		},
		{
			// a fraction without seconds is consumed but discarded
			in:   "at eq 12:30.5",
			want: Compare(OpEquals, Ident("at"), &Time{Value: date.Clock{Hour: 12, Minute: 30}}),
		},
		{
			in:   "ts eq 2023-01-15T10:30:00Z",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-01-15T10:30:00Z")),
		},
		{
			in:   "ts eq 2023-01-15T10:30:00+02:00",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-01-15T08:30:00Z")),
		},
		{
			in:   "ts eq 2023-01-15T10:30:00-0330",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-01-15T14:00:00Z")),
		},
		{
			in:   "ts eq 2023-01-15T10:30:00+05",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-01-15T05:30:00Z")),
		},
		{
			in:   "ts eq 2023-07-24T08:02:03.123Z",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-07-24T08:02:03.123Z")),
		},
		{
			in:   "ts eq 2023-06-15T12:00:00Europe/Warsaw",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-06-15T10:00:00Z")),
		},
		{
			// ambiguous wall time resolves to the earlier instant
			in:   "ts eq 2023-10-29T02:30:00Europe/Warsaw",
			want: Compare(OpEquals, Ident("ts"), ts(t, "2023-10-29T00:30:00Z")),
		},
		{
			in:   "  name eq 'padded'  ",
			want: Compare(OpEquals, Ident("name"), String("padded")),
		},
		{
			in:   `msg eq 'a \u2603\n snowman'`,
			want: Compare(OpEquals, Ident("msg"), String("a \u2603\n snowman")),
		},
		{
			// a backslash before an unknown escape is literal
			in:   `path eq 'c:\x'`,
			want: Compare(OpEquals, Ident("path"), String(`c:\x`)),
		},
	}
	for i := range tcs {
		tc := &tcs[i]
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("unexpected error %s", err)
			}
			if !got.Equals(tc.want) {
				t.Logf("got  = %s", ToString(got))
				t.Logf("want = %s", ToString(tc.want))
				t.Errorf("wrong tree")
			}
			// the canonical form must re-parse to the same tree
			again, err := Parse(ToString(got))
			if err != nil {
				t.Fatalf("cannot re-parse %q: %s", ToString(got), err)
			}
			if !again.Equals(got) {
				t.Errorf("%q does not round-trip", ToString(got))
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tcs := []struct {
		in   string
		want error
	}{
		{"", ErrSyntax},
		{"name eq", ErrSyntax},
		{"x", ErrSyntax},
		{"x eq 5", ErrSyntax},
		{"name eq 'John' garbage", ErrSyntax},
		{"(name eq 'John'", ErrSyntax},
		{"name eq 'unterminated", ErrSyntax},
		{"price eq 12.", ErrNumber},
		{"when eq 2023-02-30", ErrDate},
		{"when eq 2023-13-01", ErrDate},
		{"at eq 25:00", ErrTime},
		{"at eq 12:61", ErrTime},
		{"ts eq 2023-06-20T12:00:00+25:00", ErrTimeZone},
		{"ts eq 2023-06-20T12:00:00Mars/Olympus", ErrTimeZoneName},
		// wall time skipped by the spring-forward transition
		{"ts eq 2023-03-26T02:30:00Europe/Warsaw", ErrDateTime},
		{`msg eq '\uFFFFFFFF'`, ErrCodePoint},
		{`msg eq '\uD800'`, ErrCodePoint},
		// conversion errors on the right side of a comparison win
		{"12. eq 2023-02-30", ErrDate},
		// joins surface the error of the left side first
		{"a1 eq 12. or b1 eq 2023-02-30", ErrNumber},
		{"a1 eq 2023-02-30 and b1 eq 12.", ErrDate},
		// list errors win over the tested value
		{"12. in (2023-02-30)", ErrDate},
	}
	for i := range tcs {
		tc := &tcs[i]
		t.Run(tc.in, func(t *testing.T) {
			n, err := Parse(tc.in)
			if err == nil {
				t.Fatalf("expected an error, got %s", ToString(n))
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error %T is not a *ParseError", err)
			}
		})
	}
}

// a grammatical failure is reported as a plain syntax error
// even when a malformed literal was seen along the way
func TestParseSyntaxBeatsLiteral(t *testing.T) {
	n, err := Parse("price eq 12. or")
	if err == nil {
		t.Fatalf("expected an error, got %s", ToString(n))
	}
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("got %v, want %v", err, ErrSyntax)
	}
}

// a quote is escaped with a backslash on input but doubled
// on output, and the doubled form does not re-parse
func TestParseQuoteEscape(t *testing.T) {
	n, err := Parse(`msg eq 'it\'s'`)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	want := Compare(OpEquals, Ident("msg"), String("it's"))
	if !n.Equals(want) {
		t.Fatalf("got %s, want %s", ToString(n), ToString(want))
	}
	out := ToString(n)
	if out != `msg eq 'it''s'` {
		t.Errorf("got %q", out)
	}
	if _, err := Parse(out); !errors.Is(err, ErrSyntax) {
		t.Errorf("doubled quote should not re-parse, got %v", err)
	}
}

func TestParseIdentifierLength(t *testing.T) {
	// single-character identifiers do not exist
	for _, in := range []string{"a", "a eq 5", "items/any(x: x eq 1)"} {
		if n, err := Parse(in); err == nil {
			t.Errorf("%q: expected an error, got %s", in, ToString(n))
		}
	}
	n, err := Parse("ab eq 5")
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	want := Compare(OpEquals, Ident("ab"), num(t, "5"))
	if !n.Equals(want) {
		t.Errorf("got %s, want %s", ToString(n), ToString(want))
	}
}
