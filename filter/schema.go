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
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// Signature describes a function known to the schema.
type Signature struct {
	// Params are the declared parameter types,
	// in order. The list may be empty.
	Params []Type `json:"params,omitempty"`
	// Variadic, when non-nil, is the type accepted
	// for any number of extra trailing arguments.
	Variadic *Type `json:"variadic,omitempty"`
	// Result is the type a call evaluates to.
	Result Type `json:"result"`
}

// Schema declares the identifiers and functions an
// expression may reference. The zero value declares
// nothing, which makes every identifier reference
// and every call a checking error.
type Schema struct {
	// Identifiers maps field names, and alias names
	// including their '@' prefix, to their types.
	Identifiers map[string]Type `json:"identifiers,omitempty"`
	// Functions maps function names to signatures.
	Functions map[string]Signature `json:"functions,omitempty"`
}

// Ident adds an identifier to the schema and
// returns the schema for chaining.
func (s *Schema) Ident(name string, t Type) *Schema {
	if s.Identifiers == nil {
		s.Identifiers = make(map[string]Type)
	}
	s.Identifiers[name] = t
	return s
}

// Func adds a fixed-arity function to the schema
// and returns the schema for chaining.
func (s *Schema) Func(name string, result Type, params ...Type) *Schema {
	if s.Functions == nil {
		s.Functions = make(map[string]Signature)
	}
	s.Functions[name] = Signature{Params: params, Result: result}
	return s
}

// VariadicFunc adds a function accepting any number of
// trailing arguments of type extra after params.
func (s *Schema) VariadicFunc(name string, result, extra Type, params ...Type) *Schema {
	if s.Functions == nil {
		s.Functions = make(map[string]Signature)
	}
	s.Functions[name] = Signature{Params: params, Variadic: &extra, Result: result}
	return s
}

// the user's schema definition must fit in memory
// (and a larger one would almost certainly be malicious)
const maxSchemaSize = 1024 * 1024

// DecodeSchema decodes a schema definition from src.
// The definition may be JSON or YAML; unknown fields
// are rejected.
func DecodeSchema(src io.Reader) (*Schema, error) {
	buf, err := io.ReadAll(io.LimitReader(src, maxSchemaSize+1))
	if err != nil {
		return nil, err
	}
	if len(buf) > maxSchemaSize {
		return nil, fmt.Errorf("schema definition larger than %d bytes", maxSchemaSize)
	}
	s := new(Schema)
	if err := yaml.UnmarshalStrict(buf, s); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	return s, nil
}

// EncodeSchema writes the schema definition
// to dst as YAML.
func EncodeSchema(dst io.Writer, s *Schema) error {
	buf, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = dst.Write(buf)
	return err
}
