package formula

import (
	"fmt"
	"strconv"
	"time"
)

// Value represents the primitive result types a formula can produce.
// types:
//   - nil: empty/null values
//   - bool: boolean values (TRUE/FALSE)
//   - int64: integer numbers (literals, counts)
//   - float64: floating point numbers (arithmetic results)
//   - string: text values
//   - time.Time: date and time values (NOW, TODAY)
type Value any

// serial date conversion: day numbers with serial 1 = January 1, 1900.
// the standard calculation, without reproducing the 1900 leap-year bug
const (
	EXCEL_EPOCH_MS = -2209075200000
	MS_PER_DAY     = 86400000
)

// timeToSerial converts a time to a spreadsheet serial day number
func timeToSerial(t time.Time) float64 {
	return float64(t.UnixMilli()-EXCEL_EPOCH_MS) / float64(MS_PER_DAY)
}

// serialToTime converts a spreadsheet serial day number to a UTC time
func serialToTime(serial float64) time.Time {
	ms := int64(serial*float64(MS_PER_DAY)) + EXCEL_EPOCH_MS
	return time.UnixMilli(ms).UTC()
}

// toNumber coerces a value to float64 for arithmetic and aggregate
// functions. Booleans count as 1/0, empty as 0, times as their serial
// day number. Text never coerces, even when it looks numeric; for text
// and anything else the result is 0 and ok is false.
func toNumber(value Value) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case time.Time:
		return timeToSerial(v), true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}

// numberOrZero coerces for scalar arithmetic, where values with no
// numeric form count as 0
func numberOrZero(value Value) float64 {
	num, _ := toNumber(value)
	return num
}

// parseNumeric is the looser coercion used by comparisons: unlike
// toNumber it does parse numeric text, so "10" compares equal to 10
func parseNumeric(value Value) (float64, bool) {
	if s, ok := value.(string); ok {
		if num, err := strconv.ParseFloat(s, 64); err == nil {
			return num, true
		}
		return 0, false
	}
	return toNumber(value)
}

// toText renders a value in its canonical text form: nil is empty,
// booleans are TRUE/FALSE, floats drop trailing zeros, times use a
// fixed layout
func toText(value Value) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}

// isTruthy follows spreadsheet truthiness: zero numbers, FALSE, empty
// text, and nil are false; everything else is true. Text is never
// implicitly numeric, so the text "0" is true.
func isTruthy(value Value) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	case nil:
		return false
	default:
		return true
	}
}

// Format renders a value the way the concatenation operator and
// CONCATENATE do. Exposed so hosts can display results consistently
// with the engine's own stringification.
func Format(value Value) string {
	return toText(value)
}
