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
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ToString returns the canonical query-string
// representation of the expression. The output
// re-parses to a tree that is Equals-identical
// to the input, except for string constants that
// contain a single quote (see quote).
func ToString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	var dst strings.Builder
	n.text(&dst, false, false)
	return dst.String()
}

// ToRedacted works identically to ToString, except that
// all constants in the query are replaced with
// pseudorandom values (produced deterministically from
// the original constants). The identifier structure of
// the expression is preserved.
func ToRedacted(n Node) string {
	if n == nil {
		return "<nil>"
	}
	var dst strings.Builder
	n.text(&dst, true, false)
	return dst.String()
}

// timestampLayout renders instants in UTC with
// forced millisecond precision and a 'Z' suffix.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// quote writes s as a single-quoted literal.
// The only escape on output is the doubled quote;
// backslashes and control characters pass through
// verbatim. The grammar gives '' no special meaning
// inside a string, so a doubled quote terminates the
// literal when fed back to Parse.
func quote(dst *strings.Builder, s string) {
	dst.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		dst.WriteByte(c)
		if c == '\'' {
			dst.WriteByte('\'')
		}
	}
	dst.WriteByte('\'')
}

func (l *Logical) text(dst *strings.Builder, redact, nested bool) {
	if nested {
		dst.WriteByte('(')
	}
	l.Left.text(dst, redact, true)
	dst.WriteByte(' ')
	dst.WriteString(l.Op.String())
	dst.WriteByte(' ')
	l.Right.text(dst, redact, true)
	if nested {
		dst.WriteByte(')')
	}
}

func (n *Not) text(dst *strings.Builder, redact, nested bool) {
	dst.WriteString("not ")
	n.Expr.text(dst, redact, true)
}

func (c *Comparison) text(dst *strings.Builder, redact, nested bool) {
	c.Left.text(dst, redact, true)
	dst.WriteByte(' ')
	dst.WriteString(c.Op.String())
	dst.WriteByte(' ')
	c.Right.text(dst, redact, true)
}

func (m *Member) text(dst *strings.Builder, redact, nested bool) {
	m.Arg.text(dst, redact, true)
	dst.WriteString(" in (")
	for i := range m.Values {
		if i > 0 {
			dst.WriteString(", ")
		}
		m.Values[i].text(dst, redact, true)
	}
	dst.WriteByte(')')
}

func (c *Call) text(dst *strings.Builder, redact, nested bool) {
	dst.WriteString(c.Function)
	dst.WriteByte('(')
	for i := range c.Args {
		if i > 0 {
			dst.WriteString(", ")
		}
		c.Args[i].text(dst, redact, true)
	}
	dst.WriteByte(')')
}

func (l *Lambda) text(dst *strings.Builder, redact, nested bool) {
	l.Collection.text(dst, redact, true)
	dst.WriteByte('/')
	dst.WriteString(l.Op.String())
	dst.WriteByte('(')
	dst.WriteString(l.Var)
	dst.WriteByte(':')
	l.Cond.text(dst, redact, true)
	dst.WriteByte(')')
}

func (i Ident) text(dst *strings.Builder, redact, nested bool) {
	dst.WriteString(string(i))
}

func (a Alias) text(dst *strings.Builder, redact, nested bool) {
	dst.WriteString(string(a))
}

func (n Null) text(dst *strings.Builder, redact, nested bool) {
	dst.WriteString("null")
}

func (b Bool) text(dst *strings.Builder, redact, nested bool) {
	dst.WriteString(strconv.FormatBool(bool(b)))
}

func (s String) text(dst *strings.Builder, redact, nested bool) {
	if redact {
		quote(dst, redactString(string(s)))
		return
	}
	quote(dst, string(s))
}

func (n Number) text(dst *strings.Builder, redact, nested bool) {
	if redact {
		dst.WriteString(redactNumber(n.Decimal()).String())
		return
	}
	dst.WriteString(n.Decimal().String())
}

func (u UUID) text(dst *strings.Builder, redact, nested bool) {
	if redact {
		dst.WriteString(redactUUID(u))
		return
	}
	dst.WriteString(u.String())
}

// String returns the canonical lowercase
// hyphenated form of the UUID.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

func (t *Timestamp) text(dst *strings.Builder, redact, nested bool) {
	if redact {
		dst.WriteString(redactTime(t.Value).UTC().Format(timestampLayout))
		return
	}
	dst.WriteString(t.Value.UTC().Format(timestampLayout))
}

func (d *Date) text(dst *strings.Builder, redact, nested bool) {
	if redact {
		dst.WriteString(redactDate(d.Value).String())
		return
	}
	dst.WriteString(d.Value.String())
}

func (t *Time) text(dst *strings.Builder, redact, nested bool) {
	if redact {
		dst.WriteString(redactClock(t.Value).String())
		return
	}
	dst.WriteString(t.Value.String())
}
