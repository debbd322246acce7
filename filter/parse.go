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
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SnellerInc/odata/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error kinds reported by Parse. Use errors.Is to
// classify a returned *ParseError.
var (
	// ErrSyntax indicates the input does not match
	// the filter grammar at all.
	ErrSyntax = errors.New("cannot parse filter")
	// ErrUUID indicates a malformed UUID literal.
	ErrUUID = errors.New("cannot parse uuid")
	// ErrNumber indicates a malformed number literal.
	ErrNumber = errors.New("cannot parse number")
	// ErrDate indicates a date literal that does not
	// name a valid calendar day.
	ErrDate = errors.New("cannot parse date")
	// ErrTime indicates a time literal with
	// out-of-range components.
	ErrTime = errors.New("cannot parse time")
	// ErrDateTime indicates a datetime literal that does
	// not name a representable instant in its zone.
	ErrDateTime = errors.New("cannot parse datetime")
	// ErrTimeZone indicates an out-of-range UTC offset.
	ErrTimeZone = errors.New("cannot parse time zone")
	// ErrTimeZoneName indicates an unknown IANA zone name.
	ErrTimeZoneName = errors.New("unknown time zone name")
	// ErrCodePoint indicates a \u escape that does not
	// denote a valid Unicode scalar value.
	ErrCodePoint = errors.New("invalid unicode code point")
)

// ParseError is the error type returned by Parse.
type ParseError struct {
	// Position is the byte offset into the trimmed
	// input at which the offending token begins.
	Position int
	// Err is one of the Err* kinds above.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("position %d: %s", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a filter expression into a Node tree.
//
// Leading and trailing whitespace is ignored. If the input
// does not match the grammar, the returned error wraps
// ErrSyntax; if the expression is grammatically well-formed
// but contains an invalid literal, the error wraps the kind
// of the first invalid literal in evaluation order.
func Parse(text string) (Node, error) {
	p := &parser{buf: strings.TrimSpace(text)}
	n, lit, ok := p.filter()
	if !ok || p.pos != len(p.buf) {
		return nil, &ParseError{Position: p.pos, Err: ErrSyntax}
	}
	if lit != nil {
		return nil, lit
	}
	return n, nil
}

// parser is a recursive-descent matcher with ordered-choice
// semantics: each rule tries its alternatives in a fixed
// order and commits to the first one that matches, restoring
// the input position before trying the next.
//
// Rules return a literal-conversion error separately from
// the match result: a malformed literal inside an otherwise
// well-formed expression still matches grammatically, and
// the error is carried up so that Parse can report it only
// when the whole input parses.
type parser struct {
	buf string
	pos int
}

func (p *parser) peek() byte {
	if p.pos < len(p.buf) {
		return p.buf[p.pos]
	}
	return 0
}

// eat consumes s if the input starts with it.
// Matching is case-sensitive and does not require
// a token boundary after the match.
func (p *parser) eat(s string) bool {
	if strings.HasPrefix(p.buf[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

// eatFold is eat with ASCII-case-insensitive matching.
func (p *parser) eatFold(s string) bool {
	rest := p.buf[p.pos:]
	if len(rest) < len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if lower(rest[i]) != lower(s[i]) {
			return false
		}
	}
	p.pos += len(s)
	return true
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isspace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isdigit(c byte) bool { return c >= '0' && c <= '9' }

func isalpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func ishex(c byte) bool {
	return isdigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexval(c byte) uint32 {
	switch {
	case c <= '9':
		return uint32(c - '0')
	case c <= 'F':
		return uint32(c-'A') + 10
	default:
		return uint32(c-'a') + 10
	}
}

func (p *parser) space() {
	for p.pos < len(p.buf) && isspace(p.buf[p.pos]) {
		p.pos++
	}
}

// digits matches exactly n decimal digits
// and returns their integer value.
func (p *parser) digits(n int) (int, bool) {
	if p.pos+n > len(p.buf) {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		c := p.buf[p.pos+i]
		if !isdigit(c) {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	p.pos += n
	return v, true
}

// firstLit returns the first non-nil literal error.
func firstLit(errs ...*ParseError) *ParseError {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// filter matches, in order:
//
//	"not" filter
//	anyExpr "or" filter
//	anyExpr "and" filter
//	anyExpr
//
// The right recursion makes joins at the same nesting
// depth group to the right regardless of operator, so
// "a1 or b1 and c1" parses as Or(a1, And(b1, c1)).
func (p *parser) filter() (Node, *ParseError, bool) {
	start := p.pos
	if p.eat("not") {
		p.space()
		if e, lit, ok := p.filter(); ok {
			return &Not{Expr: e}, lit, true
		}
		p.pos = start
	}
	left, leftLit, ok := p.anyExpr()
	if !ok {
		p.pos = start
		return nil, nil, false
	}
	p.space()
	after := p.pos
	if p.eat("or") {
		p.space()
		if right, rightLit, ok := p.filter(); ok {
			return Or(left, right), firstLit(leftLit, rightLit), true
		}
		p.pos = after
	}
	if p.eat("and") {
		p.space()
		if right, rightLit, ok := p.filter(); ok {
			return And(left, right), firstLit(leftLit, rightLit), true
		}
		p.pos = after
	}
	return left, leftLit, true
}

// anyExpr matches a parenthesized filter, or a value
// expression optionally followed by a comparison or a
// membership test.
func (p *parser) anyExpr() (Node, *ParseError, bool) {
	start := p.pos
	if p.eat("(") {
		p.space()
		if e, lit, ok := p.filter(); ok {
			p.space()
			if p.eat(")") {
				return e, lit, true
			}
		}
		p.pos = start
	}
	left, leftLit, ok := p.valueExpr()
	if !ok {
		p.pos = start
		return nil, nil, false
	}
	p.space()
	after := p.pos
	if op, ok := p.compareOp(); ok {
		p.space()
		if right, rightLit, ok := p.valueExpr(); ok {
			// conversion errors on the right-hand side
			// take precedence over the left-hand side
			return Compare(op, left, right), firstLit(rightLit, leftLit), true
		}
		p.pos = after
	}
	if p.eat("in") {
		p.space()
		if p.eat("(") {
			p.space()
			if values, listLit, ok := p.filterList(); ok {
				p.space()
				if p.eat(")") {
					return In(left, values...), firstLit(listLit, leftLit), true
				}
			}
		}
		p.pos = after
	}
	return left, leftLit, true
}

func (p *parser) compareOp() (CmpOp, bool) {
	ops := []string{"eq", "ne", "gt", "ge", "lt", "le", "has"}
	for _, s := range ops {
		if p.eat(s) {
			op, _ := cmpOp(s)
			return op, true
		}
	}
	return 0, false
}

// valueExpr matches, in order: a function call, a
// collection lambda, a literal value, an alias, or
// a plain identifier.
func (p *parser) valueExpr() (Node, *ParseError, bool) {
	start := p.pos
	if name, ok := p.identifier(); ok {
		p.space()
		if p.eat("(") {
			p.space()
			if args, lit, ok := p.filterList(); ok {
				p.space()
				if p.eat(")") {
					return &Call{Function: name, Args: args}, lit, true
				}
			}
		}
		p.pos = start
	}
	if e, lit, ok := p.lambda(); ok {
		return e, lit, true
	}
	if e, lit, ok := p.value(); ok {
		return e, lit, true
	}
	if p.eat("@") {
		if name, ok := p.identifier(); ok {
			return Alias("@" + name), nil, true
		}
		p.pos = start
	}
	if name, ok := p.identifier(); ok {
		return Ident(name), nil, true
	}
	p.pos = start
	return nil, nil, false
}

func (p *parser) lambda() (Node, *ParseError, bool) {
	start := p.pos
	name, ok := p.identifier()
	if !ok {
		return nil, nil, false
	}
	if !p.eat("/") {
		p.pos = start
		return nil, nil, false
	}
	var op LambdaOp
	switch {
	case p.eat("any"):
		op = OpAny
	case p.eat("all"):
		op = OpAll
	default:
		p.pos = start
		return nil, nil, false
	}
	if !p.eat("(") {
		p.pos = start
		return nil, nil, false
	}
	p.space()
	v, ok := p.identifier()
	if !ok {
		p.pos = start
		return nil, nil, false
	}
	p.space()
	if !p.eat(":") {
		p.pos = start
		return nil, nil, false
	}
	p.space()
	cond, lit, ok := p.filter()
	if !ok {
		p.pos = start
		return nil, nil, false
	}
	p.space()
	if !p.eat(")") {
		p.pos = start
		return nil, nil, false
	}
	return &Lambda{Collection: Ident(name), Op: op, Var: v, Cond: cond}, lit, true
}

// identifier matches [A-Za-z_][A-Za-z0-9_]+ greedily;
// single-character names do not match.
func (p *parser) identifier() (string, bool) {
	start := p.pos
	if p.pos >= len(p.buf) {
		return "", false
	}
	c := p.buf[p.pos]
	if !isalpha(c) && c != '_' {
		return "", false
	}
	p.pos++
	for p.pos < len(p.buf) {
		c = p.buf[p.pos]
		if !isalpha(c) && !isdigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	if p.pos-start < 2 {
		p.pos = start
		return "", false
	}
	return p.buf[start:p.pos], true
}

// filterList matches zero or more comma-separated filter
// expressions; each element may be an arbitrary filter.
func (p *parser) filterList() ([]Node, *ParseError, bool) {
	e, lit, ok := p.filter()
	if !ok {
		return nil, nil, true
	}
	list := []Node{e}
	for {
		save := p.pos
		p.space()
		if !p.eat(",") {
			p.pos = save
			break
		}
		p.space()
		e, elit, ok := p.filter()
		if !ok {
			p.pos = save
			break
		}
		list = append(list, e)
		lit = firstLit(lit, elit)
	}
	return list, lit, true
}

// value matches literal values in order: string, datetime,
// date, time, uuid, number, boolean, null. The ordering
// matters: datetime must be tried before date, and date
// and time before number, so that the longest literal wins.
func (p *parser) value() (Node, *ParseError, bool) {
	if v, lit, ok := p.stringValue(); ok {
		return v, lit, true
	}
	if v, lit, ok := p.datetimeValue(); ok {
		return v, lit, true
	}
	if v, lit, ok := p.dateValue(); ok {
		return v, lit, true
	}
	if v, lit, ok := p.timeValue(); ok {
		return v, lit, true
	}
	if v, lit, ok := p.uuidValue(); ok {
		return v, lit, true
	}
	if v, lit, ok := p.numberValue(); ok {
		return v, lit, true
	}
	if p.eatFold("true") {
		return Bool(true), nil, true
	}
	if p.eatFold("false") {
		return Bool(false), nil, true
	}
	if p.eatFold("null") {
		return Null{}, nil, true
	}
	return nil, nil, false
}

// stringValue matches a single-quoted string. Escapes:
// \' \n \r \t \\ and \u followed by up to eight hex digits.
// A backslash before any other character is literal. A \u
// escape naming a surrogate or an out-of-range code point
// carries ErrCodePoint.
func (p *parser) stringValue() (Node, *ParseError, bool) {
	start := p.pos
	if !p.eat("'") {
		return nil, nil, false
	}
	var sb strings.Builder
	var lit *ParseError
	for {
		if p.pos >= len(p.buf) {
			// unterminated
			p.pos = start
			return nil, nil, false
		}
		c := p.buf[p.pos]
		if c == '\'' {
			break
		}
		if c == '\\' && p.pos+1 < len(p.buf) {
			switch p.buf[p.pos+1] {
			case '\'':
				sb.WriteByte('\'')
				p.pos += 2
				continue
			case 'n':
				sb.WriteByte('\n')
				p.pos += 2
				continue
			case 'r':
				sb.WriteByte('\r')
				p.pos += 2
				continue
			case 't':
				sb.WriteByte('\t')
				p.pos += 2
				continue
			case '\\':
				sb.WriteByte('\\')
				p.pos += 2
				continue
			case 'u':
				end := p.pos + 2
				for end < len(p.buf) && end < p.pos+2+8 && ishex(p.buf[end]) {
					end++
				}
				if end > p.pos+2 {
					v := uint32(0)
					for i := p.pos + 2; i < end; i++ {
						v = v*16 + hexval(p.buf[i])
					}
					r := rune(v)
					if r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
						if lit == nil {
							lit = &ParseError{Position: p.pos, Err: ErrCodePoint}
						}
					} else {
						sb.WriteRune(r)
					}
					p.pos = end
					continue
				}
				// \u without hex digits: literal backslash
			}
		}
		r, size := utf8.DecodeRuneInString(p.buf[p.pos:])
		sb.WriteRune(r)
		p.pos += size
	}
	p.pos++ // closing quote
	return String(sb.String()), lit, true
}

// datetimeValue matches date "T" time followed by either
// a numeric UTC offset or an IANA zone name. The instant
// is resolved to UTC; an ambiguous wall time in a named
// zone resolves to the earlier instant, and a wall time
// skipped by a zone transition carries ErrDateTime.
func (p *parser) datetimeValue() (Node, *ParseError, bool) {
	start := p.pos
	d, dateLit, ok := p.date()
	if !ok {
		return nil, nil, false
	}
	if !p.eat("T") {
		p.pos = start
		return nil, nil, false
	}
	c, timeLit, ok := p.clock()
	if !ok {
		p.pos = start
		return nil, nil, false
	}
	zonePos := p.pos
	if off, zoneLit, ok := p.zoneOffset(); ok {
		if lit := firstLit(dateLit, timeLit, zoneLit); lit != nil {
			return &Timestamp{}, lit, true
		}
		t, ok := date.Resolve(d, c, time.FixedZone("", off))
		if !ok {
			return &Timestamp{}, &ParseError{Position: start, Err: ErrDateTime}, true
		}
		return &Timestamp{Value: t}, nil, true
	}
	if name, ok := p.zoneName(); ok {
		loc, err := date.LoadZone(name)
		if err != nil {
			return &Timestamp{}, firstLit(dateLit, timeLit,
				&ParseError{Position: zonePos, Err: ErrTimeZoneName}), true
		}
		if lit := firstLit(dateLit, timeLit); lit != nil {
			return &Timestamp{}, lit, true
		}
		t, ok := date.Resolve(d, c, loc)
		if !ok {
			return &Timestamp{}, &ParseError{Position: start, Err: ErrDateTime}, true
		}
		return &Timestamp{Value: t}, nil, true
	}
	p.pos = start
	return nil, nil, false
}

func (p *parser) dateValue() (Node, *ParseError, bool) {
	d, lit, ok := p.date()
	if !ok {
		return nil, nil, false
	}
	return &Date{Value: d}, lit, true
}

func (p *parser) timeValue() (Node, *ParseError, bool) {
	c, lit, ok := p.clock()
	if !ok {
		return nil, nil, false
	}
	return &Time{Value: c}, lit, true
}

// date matches YYYY-MM-DD; values that do not name a
// valid calendar day carry ErrDate.
func (p *parser) date() (date.Date, *ParseError, bool) {
	start := p.pos
	year, ok := p.digits(4)
	if !ok || !p.eat("-") {
		p.pos = start
		return date.Date{}, nil, false
	}
	month, ok := p.digits(2)
	if !ok || !p.eat("-") {
		p.pos = start
		return date.Date{}, nil, false
	}
	day, ok := p.digits(2)
	if !ok {
		p.pos = start
		return date.Date{}, nil, false
	}
	d := date.Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return d, &ParseError{Position: start, Err: ErrDate}, true
	}
	return d, nil, true
}

// clock matches H:MM or HH:MM with optional :SS and an
// optional fraction of up to nine digits. A fraction
// without preceding seconds is consumed but discarded.
// Out-of-range components carry ErrTime.
func (p *parser) clock() (date.Clock, *ParseError, bool) {
	start := p.pos
	hour, ok := p.digits(2)
	if !ok || !p.eat(":") {
		p.pos = start
		hour, ok = p.digits(1)
		if !ok || !p.eat(":") {
			p.pos = start
			return date.Clock{}, nil, false
		}
	}
	minute, ok := p.digits(2)
	if !ok {
		p.pos = start
		return date.Clock{}, nil, false
	}
	c := date.Clock{Hour: hour, Minute: minute}
	hasSeconds := false
	save := p.pos
	if p.eat(":") {
		if sec, ok := p.digits(2); ok {
			c.Second = sec
			hasSeconds = true
		} else {
			p.pos = save
		}
	}
	save = p.pos
	if p.eat(".") {
		n, frac := 0, 0
		for n < 9 && p.pos < len(p.buf) && isdigit(p.buf[p.pos]) {
			frac = frac*10 + int(p.buf[p.pos]-'0')
			p.pos++
			n++
		}
		if n == 0 {
			p.pos = save
		} else if hasSeconds {
			for ; n < 9; n++ {
				frac *= 10
			}
			c.Nanosecond = frac
		}
	}
	if !c.Valid() {
		return c, &ParseError{Position: start, Err: ErrTime}, true
	}
	return c, nil, true
}

// zoneOffset matches "Z", ±HH:MM, ±HHMM or ±HH and
// returns the offset east of UTC in seconds. Hours
// above 23 or minutes above 59 carry ErrTimeZone.
func (p *parser) zoneOffset() (int, *ParseError, bool) {
	if p.eat("Z") {
		return 0, nil, true
	}
	start := p.pos
	sign := 0
	switch p.peek() {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, nil, false
	}
	p.pos++
	hh, ok := p.digits(2)
	if !ok {
		p.pos = start
		return 0, nil, false
	}
	mm := 0
	save := p.pos
	p.eat(":")
	if v, ok := p.digits(2); ok {
		mm = v
	} else {
		p.pos = save
	}
	if hh > 23 || mm > 59 {
		return 0, &ParseError{Position: start, Err: ErrTimeZone}, true
	}
	return sign * (hh*3600 + mm*60), nil, true
}

// zoneName matches an IANA-style zone name such as
// "Europe/Warsaw" or "Etc/GMT+5".
func (p *parser) zoneName() (string, bool) {
	first := func(c byte) bool {
		return isalpha(c) || c == '-' || c == '_' || c == '/' || c == '+'
	}
	start := p.pos
	if p.pos >= len(p.buf) || !first(p.buf[p.pos]) {
		return "", false
	}
	p.pos++
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		if !first(c) && !isdigit(c) {
			break
		}
		p.pos++
	}
	if p.pos-start < 2 {
		p.pos = start
		return "", false
	}
	return p.buf[start:p.pos], true
}

// uuidValue matches 8-4-4-4-12 hex digit groups.
// Shapes that match the grammar but are rejected by
// the UUID decoder carry ErrUUID.
func (p *parser) uuidValue() (Node, *ParseError, bool) {
	start := p.pos
	for i, n := range []int{8, 4, 4, 4, 12} {
		if i > 0 && !p.eat("-") {
			p.pos = start
			return nil, nil, false
		}
		if !p.hexDigits(n) {
			p.pos = start
			return nil, nil, false
		}
	}
	id, err := uuid.Parse(p.buf[start:p.pos])
	if err != nil {
		return UUID{}, &ParseError{Position: start, Err: ErrUUID}, true
	}
	return UUID(id), nil, true
}

func (p *parser) hexDigits(n int) bool {
	if p.pos+n > len(p.buf) {
		return false
	}
	for i := 0; i < n; i++ {
		if !ishex(p.buf[p.pos+i]) {
			return false
		}
	}
	p.pos += n
	return true
}

// numberValue matches \d+(\.\d*)? and converts the
// matched text to a decimal. A trailing dot matches
// the grammar but carries ErrNumber.
func (p *parser) numberValue() (Node, *ParseError, bool) {
	start := p.pos
	if !isdigit(p.peek()) {
		return nil, nil, false
	}
	for p.pos < len(p.buf) && isdigit(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.buf) && p.buf[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.buf) && isdigit(p.buf[p.pos]) {
			p.pos++
		}
	}
	d, err := decimal.NewFromString(p.buf[start:p.pos])
	if err != nil {
		return Number{}, &ParseError{Position: start, Err: ErrNumber}, true
	}
	return Number(d), nil, true
}
