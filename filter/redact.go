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
	"encoding/base32"
	"encoding/binary"
	"time"

	"github.com/SnellerInc/odata/date"
	"github.com/dchest/siphash"
	"github.com/shopspring/decimal"
)

const (
	k0, k1 = 0, 1
)

func redactBuf(buf []byte) uint64 {
	return siphash.Hash(k0, k1, buf)
}

func redactString(s string) string {
	res := redactBuf([]byte(s))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], res)
	return base32.StdEncoding.EncodeToString(buf[:])
}

func redactNumber(d decimal.Decimal) decimal.Decimal {
	res := redactBuf([]byte(d.String()))
	// keep the surrogate small enough to stay readable
	return decimal.NewFromInt(int64(res % 1e9))
}

func redactUUID(u UUID) string {
	res := redactBuf(u[:])
	var surrogate UUID
	binary.LittleEndian.PutUint64(surrogate[:8], res)
	binary.LittleEndian.PutUint64(surrogate[8:], res)
	return surrogate.String()
}

func redactTime(t time.Time) time.Time {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(t.UnixNano()))
	res := redactBuf(buf[:])
	// map onto the range [1970, ~2106)
	return time.Unix(int64(res%(1<<32)), 0).UTC()
}

func redactDate(d date.Date) date.Date {
	res := redactBuf([]byte(d.String()))
	return date.Date{
		Year:  1970 + int(res%200),
		Month: 1 + int((res>>8)%12),
		Day:   1 + int((res>>16)%28),
	}
}

func redactClock(c date.Clock) date.Clock {
	res := redactBuf([]byte(c.String()))
	return date.Clock{
		Hour:   int(res % 24),
		Minute: int((res >> 8) % 60),
		Second: int((res >> 16) % 60),
	}
}

// Fingerprint returns a stable 64-bit hash of the
// canonical representation of the expression. Two
// expressions that are Equals-identical after parsing
// always produce the same fingerprint.
func Fingerprint(n Node) uint64 {
	return redactBuf([]byte(ToString(n)))
}
