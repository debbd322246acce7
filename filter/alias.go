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

type aliasBinder struct {
	params map[string]Node
}

func (b *aliasBinder) Walk(n Node) Rewriter { return b }

func (b *aliasBinder) Rewrite(n Node) Node {
	if a, ok := n.(Alias); ok {
		if v, ok := b.params[string(a)]; ok {
			return v
		}
	}
	return n
}

// BindAliases returns a copy of n with every alias
// reference that has an entry in params replaced by
// the corresponding expression. Keys in params include
// the '@' prefix, e.g. "@p1". Aliases without an entry
// are left in place, so they can still be reported by
// TypeOf if the schema does not declare them.
func BindAliases(n Node, params map[string]Node) Node {
	if len(params) == 0 {
		return n
	}
	return Rewrite(&aliasBinder{params: params}, n)
}
