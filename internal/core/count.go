// Package core provides count parsing for the entry form.
//
// Numeric form fields are parsed fail-soft: anything that is not a usable
// non-negative integer becomes zero instead of an error, so data entry is
// never blocked by a half-typed value.
package core

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MaxCount is the largest count a record field may hold. It keeps per-record
// population and revenue far below the int64 limit.
const MaxCount int64 = 1_000_000_000

// ParseCount converts a raw form value into a non-negative count.
//
// The leading integer of the trimmed input is used and trailing characters
// are ignored. Empty input, input without leading digits, negative values and
// values above MaxCount all yield 0.
//
// Examples:
//
//	ParseCount("12")    -> 12
//	ParseCount(" 7 ")   -> 7
//	ParseCount("12abc") -> 12
//	ParseCount("3.7")   -> 3
//	ParseCount("-4")    -> 0
//	ParseCount("abc")   -> 0
//	ParseCount("2000000000") -> 0
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	negative := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		negative = true
		s = s[1:]
	}

	var n int64
	digits := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
		if n > MaxCount {
			return 0
		}
		digits++
	}
	if digits == 0 || negative {
		return 0
	}
	return n
}

// RawCount is a form count as typed by the user. In JSON it accepts either a
// number or a string, mirroring inputs that hold interim text while typing.
type RawCount string

// UnmarshalJSON accepts numbers, strings and null.
func (c *RawCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = RawCount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Booleans, objects and arrays degrade to an unparsable value.
		*c = RawCount(data)
		return nil
	}
	*c = RawCount(n.String())
	return nil
}

// Value returns the coerced count.
func (c RawCount) Value() int64 {
	return ParseCount(string(c))
}
