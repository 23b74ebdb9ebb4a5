package normalize

import (
	"database/sql/driver"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/shopspring/decimal"
)

// ratPrecision is the number of fractional digits kept when a *big.Rat is
// turned into a decimal.
const ratPrecision = 18

// Normalize returns v in serialization-safe form. It recurses into slices,
// arrays and maps, never mutates its input, and is idempotent.
func Normalize(v any) any {
	return Classify(v).Native()
}

// Classify maps a raw value onto the Value sum type.
func Classify(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint:
		return classifyUint(uint64(x))
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint64:
		return classifyUint(x)
	case float32:
		// Go through the shortest decimal form so 0.1f stays 0.1.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		return Float(f)
	case float64:
		return Float(x)
	case decimal.Decimal:
		return Decimal{x}
	case *decimal.Decimal:
		if x == nil {
			return Null{}
		}
		return Decimal{*x}
	case decimal.NullDecimal:
		if !x.Valid {
			return Null{}
		}
		return Decimal{x.Decimal}
	case *big.Int:
		if x == nil {
			return Null{}
		}
		if x.IsInt64() {
			return Int(x.Int64())
		}
		return Decimal{decimal.NewFromBigInt(x, 0)}
	case *big.Rat:
		if x == nil {
			return Null{}
		}
		return Decimal{decimal.NewFromBigRat(x, ratPrecision)}
	case *big.Float:
		if x == nil {
			return Null{}
		}
		f, _ := x.Float64()
		return Float(f)
	case string:
		return Text(x)
	case []byte:
		return Text(x)
	case time.Time:
		return Timestamp{Time: x}
	case core.Date:
		return Timestamp{Time: x.Time, DateOnly: true}
	case []any:
		return Array(x)
	case map[string]any:
		return Object(x)
	case driver.Valuer:
		// sql.NullString, sql.NullInt64 and friends
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}
		}
		dv, err := x.Value()
		if err != nil {
			return Opaque{v}
		}
		return Classify(dv)
	}
	return classifyReflect(v)
}

func classifyUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Decimal{decimal.NewFromUint64(u)}
	}
	return Int(int64(u))
}

// classifyReflect handles named types, typed slices, typed maps and
// pointers that the type switch cannot enumerate.
func classifyReflect(v any) Value {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}
		}
		return Classify(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return classifyUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return Text(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Text(rv.Bytes())
		}
		return arrayOf(rv)
	case reflect.Array:
		return arrayOf(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null{}
		}
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[keyString(iter.Key())] = iter.Value().Interface()
		}
		return obj
	}
	return Opaque{v}
}

func arrayOf(rv reflect.Value) Array {
	out := make(Array, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// keyString renders a map key. Temporal keys use ISO-8601, everything else
// uses its fmt representation.
func keyString(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	switch key := k.Interface().(type) {
	case time.Time:
		return key.Format(time.RFC3339Nano)
	case core.Date:
		return key.String()
	case decimal.Decimal:
		return key.String()
	}
	return fmt.Sprint(k.Interface())
}

// NormalizeRows returns a normalized copy of rs. The input is left untouched.
func NormalizeRows(rs *core.ResultSet) *core.ResultSet {
	if rs == nil {
		return nil
	}
	out := &core.ResultSet{
		Columns:      append([]string(nil), rs.Columns...),
		Rows:         make([]map[string]any, len(rs.Rows)),
		Command:      rs.Command,
		RowsAffected: rs.RowsAffected,
	}
	for i, row := range rs.Rows {
		nr := make(map[string]any, len(row))
		for k, v := range row {
			nr[k] = Normalize(v)
		}
		out.Rows[i] = nr
	}
	return out
}
