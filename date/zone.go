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

package date

import (
	"time"
	// filter literals may name IANA zones; embed the database
	// so resolution does not depend on the host environment
	_ "time/tzdata"
)

// LoadZone returns the IANA time zone with the given name.
func LoadZone(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// Resolve maps the wall-clock reading (d, c) in loc to an
// instant in UTC. When a DST transition makes the reading
// ambiguous, the earliest matching instant is chosen; when the
// transition makes the reading nonexistent, Resolve reports
// false.
func Resolve(d Date, c Clock, loc *time.Location) (time.Time, bool) {
	// wall is the reading reinterpreted as a UTC epoch count;
	// the instant we want satisfies instant = wall - offset(instant)
	wall := time.Date(d.Year, time.Month(d.Month), d.Day, c.Hour, c.Minute, c.Second, 0, time.UTC).Unix()

	var best time.Time
	found := false
	seen := make(map[int]struct{}, 3)
	for _, probe := range []int64{wall - 86400, wall, wall + 86400} {
		_, off := time.Unix(probe, 0).In(loc).Zone()
		if _, ok := seen[off]; ok {
			continue
		}
		seen[off] = struct{}{}
		cand := time.Unix(wall-int64(off), int64(c.Nanosecond)).In(loc)
		if cand.Year() != d.Year || cand.Month() != time.Month(d.Month) || cand.Day() != d.Day ||
			cand.Hour() != c.Hour || cand.Minute() != c.Minute || cand.Second() != c.Second {
			continue
		}
		if !found || cand.Before(best) {
			best = cand
			found = true
		}
	}
	if !found {
		return time.Time{}, false
	}
	return best.UTC(), true
}
