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

// Package filter parses, checks and serializes
// OData-style $filter query expressions.
//
// Parse turns a query string such as
//
//	name eq 'Milk' and price lt 2.55
//
// into a Node tree. TypeOf checks a tree against a
// caller-provided Schema of identifier and function
// types, and IsBoolean reports whether the tree can
// serve as a complete filter. ToString renders a tree
// back to canonical query-string form; see ToString
// for the one caveat about string constants that
// contain a single quote. ToRedacted renders the same
// shape with all
// constants replaced by deterministic surrogates so
// that queries can be logged without leaking values.
//
// Binary joins group to the right regardless of
// operator, so "a1 or b1 and c1" parses as
// Or(a1, And(b1, c1)); "or" does not bind looser
// than "and". Sub-expressions should be grouped
// explicitly with parentheses.
package filter
