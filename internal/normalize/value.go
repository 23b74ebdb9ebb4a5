// Package normalize converts values scanned from a store into the small set
// of types every serializer in leapgate understands: nil, bool, int64,
// float64, string, []any and map[string]any.
//
// Classification goes through a closed sum type (Value) so that each kind of
// input has exactly one conversion rule.
package normalize

import (
	"math"
	"time"

	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/shopspring/decimal"
)

// Value is a classified store value. The set of implementations is closed.
type Value interface {
	// Native returns the serialization-safe representation.
	Native() any

	isValue()
}

type (
	// Null is SQL NULL or a nil pointer.
	Null struct{}

	// Bool is a boolean.
	Bool bool

	// Int is any integer that fits in int64.
	Int int64

	// Float is a binary floating point number.
	Float float64

	// Decimal is an arbitrary-precision number.
	Decimal struct{ decimal.Decimal }

	// Text is a string or byte slice.
	Text string

	// Timestamp is a point in time, or a calendar date when DateOnly is set.
	Timestamp struct {
		time.Time
		DateOnly bool
	}

	// Array is an ordered collection of unclassified elements.
	Array []any

	// Object is a string-keyed collection of unclassified values.
	Object map[string]any

	// Opaque carries values with no conversion rule unchanged.
	Opaque struct{ V any }
)

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Float) isValue()     {}
func (Decimal) isValue()   {}
func (Text) isValue()      {}
func (Timestamp) isValue() {}
func (Array) isValue()     {}
func (Object) isValue()    {}
func (Opaque) isValue()    {}

func (Null) Native() any   { return nil }
func (b Bool) Native() any { return bool(b) }
func (i Int) Native() any  { return int64(i) }
func (t Text) Native() any { return string(t) }

// Native returns the float, or nil for NaN and infinities which have no JSON
// representation.
func (f Float) Native() any {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Native converts to float64. Digits beyond float64 precision are lost.
func (d Decimal) Native() any {
	return Float(d.InexactFloat64()).Native()
}

// Native formats as ISO-8601: YYYY-MM-DD for dates, RFC 3339 otherwise.
func (t Timestamp) Native() any {
	if t.DateOnly {
		return t.Format(core.DateLayout)
	}
	return t.Format(time.RFC3339Nano)
}

func (a Array) Native() any {
	out := make([]any, len(a))
	for i, v := range a {
		out[i] = Normalize(v)
	}
	return out
}

func (o Object) Native() any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = Normalize(v)
	}
	return out
}

func (o Opaque) Native() any { return o.V }
