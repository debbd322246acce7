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

// Type classifies the value a filter expression evaluates to.
type Type int

const (
	// NullType is the type of the null literal and of
	// lambda-bound variables; it is a wildcard that is
	// Comparable with every other Type.
	NullType Type = iota
	BoolType
	NumberType
	UUIDType
	DateTimeType
	DateType
	TimeType
	StringType
)

// Comparable returns whether values of type t may be compared
// with values of type other. NullType is a wildcard: it is
// Comparable with everything, and everything is Comparable
// with it. Any other pair is Comparable only when equal, so
// the relation is reflexive and symmetric but deliberately
// not transitive through NullType.
func (t Type) Comparable(other Type) bool {
	return t == other || t == NullType || other == NullType
}

func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "boolean"
	case NumberType:
		return "number"
	case UUIDType:
		return "uuid"
	case DateTimeType:
		return "datetime"
	case DateType:
		return "date"
	case TimeType:
		return "time"
	case StringType:
		return "string"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if t < NullType || t > StringType {
		return nil, fmt.Errorf("cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	switch string(text) {
	case "null":
		*t = NullType
	case "boolean":
		*t = BoolType
	case "number":
		*t = NumberType
	case "uuid":
		*t = UUIDType
	case "datetime":
		*t = DateTimeType
	case "date":
		*t = DateType
	case "time":
		*t = TimeType
	case "string":
		*t = StringType
	default:
		return fmt.Errorf("unknown type name %q", text)
	}
	return nil
}
