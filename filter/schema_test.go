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
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeSchema(t *testing.T) {
	text := `
identifiers:
  name: string
  age: number
  isActive: boolean
  "@p1": uuid
functions:
  length:
    params: [string]
    result: number
  concat:
    params: [string]
    variadic: string
    result: string
  now:
    result: datetime
`
	got, err := DecodeSchema(strings.NewReader(text))
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	want := new(Schema)
	want.Ident("name", StringType)
	want.Ident("age", NumberType)
	want.Ident("isActive", BoolType)
	want.Ident("@p1", UUIDType)
	want.Func("length", NumberType, StringType)
	want.VariadicFunc("concat", StringType, StringType, StringType)
	want.Func("now", DateTimeType)
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", d)
	}
}

func TestDecodeSchemaJSON(t *testing.T) {
	// JSON is a subset of YAML, so JSON definitions decode too
	text := `{"identifiers": {"name": "string"}, "functions": {"now": {"result": "datetime"}}}`
	got, err := DecodeSchema(strings.NewReader(text))
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if got.Identifiers["name"] != StringType {
		t.Errorf("wrong identifier type %s", got.Identifiers["name"])
	}
	if got.Functions["now"].Result != DateTimeType {
		t.Errorf("wrong result type %s", got.Functions["now"].Result)
	}
}

func TestDecodeSchemaErrors(t *testing.T) {
	tcs := []struct {
		name string
		text string
	}{
		{"unknown-field", "identifiers: {}\nbogus: 1\n"},
		{"unknown-type", "identifiers: {name: integer}\n"},
		{"not-yaml", ":::"},
	}
	for i := range tcs {
		tc := &tcs[i]
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeSchema(strings.NewReader(tc.text)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	want := testSchema()
	var buf bytes.Buffer
	if err := EncodeSchema(&buf, want); err != nil {
		t.Fatalf("encode: %s", err)
	}
	got, err := DecodeSchema(&buf)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", d)
	}
}
