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

// Package date provides the calendar-date and time-of-day
// value types used by OData filter literals, plus resolution
// of wall-clock readings against time zones.
package date

// A Date is a calendar date without a time or zone component.
type Date struct {
	Year  int
	Month int
	Day   int
}

// A Clock is a time of day with optional sub-second precision
// and no date or zone component.
type Clock struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

func isleap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var monthdays = [12]int{
	31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31,
}

func daysin(y, m int) int {
	d := monthdays[m-1]
	if m == 2 && isleap(y) {
		d++
	}
	return d
}

// Valid returns whether d names a real calendar date.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	return d.Day >= 1 && d.Day <= daysin(d.Year, d.Month)
}

// Before returns whether d precedes d2.
func (d Date) Before(d2 Date) bool {
	if d.Year != d2.Year {
		return d.Year < d2.Year
	}
	if d.Month != d2.Month {
		return d.Month < d2.Month
	}
	return d.Day < d2.Day
}

// AppendText appends d formatted as YYYY-MM-DD to b.
func (d Date) AppendText(b []byte) []byte {
	b = appendInt(b, d.Year, 4)
	b = append(b, '-')
	b = appendInt(b, d.Month, 2)
	b = append(b, '-')
	return appendInt(b, d.Day, 2)
}

// String returns d formatted as YYYY-MM-DD.
func (d Date) String() string {
	return string(d.AppendText(nil))
}

// Valid returns whether c names a real time of day.
// Leap seconds are not representable.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 &&
		c.Minute >= 0 && c.Minute <= 59 &&
		c.Second >= 0 && c.Second <= 59 &&
		c.Nanosecond >= 0 && c.Nanosecond < 1e9
}

// AppendText appends c formatted as HH:MM:SS to b, followed
// by a fractional-second component in 3, 6 or 9 digits when
// the nanosecond field is nonzero.
func (c Clock) AppendText(b []byte) []byte {
	b = appendInt(b, c.Hour, 2)
	b = append(b, ':')
	b = appendInt(b, c.Minute, 2)
	b = append(b, ':')
	b = appendInt(b, c.Second, 2)
	if ns := c.Nanosecond; ns != 0 {
		b = append(b, '.')
		switch {
		case ns%1e6 == 0:
			b = appendInt(b, ns/1e6, 3)
		case ns%1e3 == 0:
			b = appendInt(b, ns/1e3, 6)
		default:
			b = appendInt(b, ns, 9)
		}
	}
	return b
}

// String returns c formatted as HH:MM:SS plus any fraction.
func (c Clock) String() string {
	return string(c.AppendText(nil))
}

// appendInt appends the decimal form of x to b,
// padded with leading zeroes to at least width digits.
func appendInt(b []byte, x, width int) []byte {
	var buf [20]byte
	i := len(buf)
	u := uint(x)
	for u >= 10 {
		q := u / 10
		i--
		buf[i] = byte('0' + u - q*10)
		u = q
	}
	i--
	buf[i] = byte('0' + u)
	for w := len(buf) - i; w < width; w++ {
		b = append(b, '0')
	}
	return append(b, buf[i:]...)
}
