package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Clock interface provides time functionality for testing
type Clock interface {
	Now() time.Time
}

// WallClock is the default implementation using system time
type WallClock struct{}

func (w *WallClock) Now() time.Time {
	return time.Now()
}

// builtins implements the built-in function library. Its methods are
// seeded into an engine's registry at construction, before any user
// registration; dispatch goes through the registry, so built-ins and
// host-registered functions are indistinguishable to the evaluator.
type builtins struct {
	clock     Clock
	upperCase cases.Caser
	lowerCase cases.Caser
}

func newBuiltins(clock Clock) *builtins {
	return &builtins{
		clock:     clock,
		upperCase: cases.Upper(language.Und),
		lowerCase: cases.Lower(language.Und),
	}
}

// install registers every built-in under its spreadsheet name
func (bf *builtins) install(registry *Registry) {
	registry.Register("SUM", bf.SUM)
	registry.Register("AVERAGE", bf.AVERAGE)
	registry.Register("COUNT", bf.COUNT)
	registry.Register("COUNTA", bf.COUNTA)
	registry.Register("MAX", bf.MAX)
	registry.Register("MIN", bf.MIN)
	registry.Register("MEDIAN", bf.MEDIAN)
	registry.Register("IF", bf.IF)
	registry.Register("AND", bf.AND)
	registry.Register("OR", bf.OR)
	registry.Register("NOT", bf.NOT)
	registry.Register("CONCATENATE", bf.CONCATENATE)
	registry.Register("LEN", bf.LEN)
	registry.Register("LEFT", bf.LEFT)
	registry.Register("RIGHT", bf.RIGHT)
	registry.Register("UPPER", bf.UPPER)
	registry.Register("LOWER", bf.LOWER)
	registry.Register("TRIM", bf.TRIM)
	registry.Register("ABS", bf.ABS)
	registry.Register("ROUND", bf.ROUND)
	registry.Register("FLOOR", bf.FLOOR)
	registry.Register("CEILING", bf.CEILING)
	registry.Register("SQRT", bf.SQRT)
	registry.Register("POWER", bf.POWER)
	registry.Register("MOD", bf.MOD)
	registry.Register("PI", bf.PI)
	registry.Register("NOW", bf.NOW)
	registry.Register("TODAY", bf.TODAY)
	registry.Register("YEAR", bf.YEAR)
	registry.Register("MONTH", bf.MONTH)
	registry.Register("DAY", bf.DAY)
}

func (bf *builtins) SUM(args ...Value) (Value, error) {
	sum := 0.0
	for _, arg := range args {
		if num, ok := toNumber(arg); ok && !math.IsNaN(num) {
			sum += num
		}
	}
	// hide accumulated float drift (0.1+0.2 and friends)
	rounded, _ := strconv.ParseFloat(fmt.Sprintf("%.15f", sum), 64)
	return rounded, nil
}

func (bf *builtins) AVERAGE(args ...Value) (Value, error) {
	sum := 0.0
	count := 0
	for _, arg := range args {
		if num, ok := toNumber(arg); ok && !math.IsNaN(num) {
			sum += num
			count++
		}
	}

	if count == 0 {
		return float64(0), nil
	}
	return sum / float64(count), nil
}

func (bf *builtins) COUNT(args ...Value) (Value, error) {
	count := int64(0)
	for _, arg := range args {
		// only concrete numbers count; booleans and numeric-looking
		// text do not
		switch arg.(type) {
		case float64, int64, int:
			count++
		}
	}
	return count, nil
}

func (bf *builtins) COUNTA(args ...Value) (Value, error) {
	count := int64(0)
	for _, arg := range args {
		if arg != nil {
			count++
		}
	}
	return count, nil
}

func (bf *builtins) MAX(args ...Value) (Value, error) {
	max := math.Inf(-1)
	hasValues := false

	for _, arg := range args {
		if num, ok := toNumber(arg); ok && !math.IsNaN(num) {
			if num > max {
				max = num
			}
			hasValues = true
		}
	}

	if hasValues {
		return max, nil
	}
	return float64(0), nil
}

func (bf *builtins) MIN(args ...Value) (Value, error) {
	min := math.Inf(1)
	hasValues := false

	for _, arg := range args {
		if num, ok := toNumber(arg); ok && !math.IsNaN(num) {
			if num < min {
				min = num
			}
			hasValues = true
		}
	}

	if hasValues {
		return min, nil
	}
	return float64(0), nil
}

func (bf *builtins) MEDIAN(args ...Value) (Value, error) {
	values := []float64{}
	for _, arg := range args {
		if num, ok := toNumber(arg); ok && !math.IsNaN(num) {
			values = append(values, num)
		}
	}

	if len(values) == 0 {
		return float64(0), nil
	}

	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 0 {
		// even count: average of the two middle values
		return (values[mid-1] + values[mid]) / 2, nil
	}
	return values[mid], nil
}

func (bf *builtins) IF(args ...Value) (Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, NewError(ErrorCodeArity, "IF requires 1 to 3 arguments")
	}

	if isTruthy(args[0]) {
		if len(args) >= 2 {
			return args[1], nil
		}
		return "", nil
	}

	if len(args) == 3 {
		return args[2], nil
	}
	return "", nil
}

func (bf *builtins) AND(args ...Value) (Value, error) {
	for _, arg := range args {
		if !isTruthy(arg) {
			return false, nil
		}
	}
	return true, nil
}

func (bf *builtins) OR(args ...Value) (Value, error) {
	for _, arg := range args {
		if isTruthy(arg) {
			return true, nil
		}
	}
	return false, nil
}

func (bf *builtins) NOT(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "NOT requires exactly 1 argument")
	}
	return !isTruthy(args[0]), nil
}

func (bf *builtins) CONCATENATE(args ...Value) (Value, error) {
	var result strings.Builder
	for _, arg := range args {
		result.WriteString(toText(arg))
	}
	return result.String(), nil
}

func (bf *builtins) LEN(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "LEN requires exactly 1 argument")
	}
	// character count, not byte count
	return int64(utf8.RuneCountInString(toText(args[0]))), nil
}

func (bf *builtins) LEFT(args ...Value) (Value, error) {
	if len(args) != 2 {
		return nil, NewError(ErrorCodeArity, "LEFT requires exactly 2 arguments")
	}
	runes := []rune(toText(args[0]))
	n := clampLength(numberOrZero(args[1]), len(runes))
	return string(runes[:n]), nil
}

func (bf *builtins) RIGHT(args ...Value) (Value, error) {
	if len(args) != 2 {
		return nil, NewError(ErrorCodeArity, "RIGHT requires exactly 2 arguments")
	}
	runes := []rune(toText(args[0]))
	n := clampLength(numberOrZero(args[1]), len(runes))
	return string(runes[len(runes)-n:]), nil
}

// clampLength truncates a requested character count to [0, limit]
func clampLength(num float64, limit int) int {
	n := int(num)
	if n < 0 {
		n = 0
	}
	if n > limit {
		n = limit
	}
	return n
}

func (bf *builtins) UPPER(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "UPPER requires exactly 1 argument")
	}
	return bf.upperCase.String(toText(args[0])), nil
}

func (bf *builtins) LOWER(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "LOWER requires exactly 1 argument")
	}
	return bf.lowerCase.String(toText(args[0])), nil
}

func (bf *builtins) TRIM(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "TRIM requires exactly 1 argument")
	}
	return strings.TrimSpace(toText(args[0])), nil
}

func (bf *builtins) ABS(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "ABS requires exactly 1 argument")
	}
	return math.Abs(numberOrZero(args[0])), nil
}

func (bf *builtins) ROUND(args ...Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewError(ErrorCodeArity, "ROUND requires 1 or 2 arguments")
	}

	num := numberOrZero(args[0])
	places := 0.0
	if len(args) == 2 {
		places = numberOrZero(args[1])
	}

	multiplier := math.Pow(10, places)
	return math.Round(num*multiplier) / multiplier, nil
}

func (bf *builtins) FLOOR(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "FLOOR requires exactly 1 argument")
	}
	return math.Floor(numberOrZero(args[0])), nil
}

func (bf *builtins) CEILING(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "CEILING requires exactly 1 argument")
	}
	return math.Ceil(numberOrZero(args[0])), nil
}

func (bf *builtins) SQRT(args ...Value) (Value, error) {
	if len(args) != 1 {
		return nil, NewError(ErrorCodeArity, "SQRT requires exactly 1 argument")
	}
	num := numberOrZero(args[0])
	if num < 0 {
		// negative input yields 0 rather than an error
		return float64(0), nil
	}
	return math.Sqrt(num), nil
}

func (bf *builtins) POWER(args ...Value) (Value, error) {
	if len(args) != 2 {
		return nil, NewError(ErrorCodeArity, "POWER requires exactly 2 arguments")
	}
	return math.Pow(numberOrZero(args[0]), numberOrZero(args[1])), nil
}

func (bf *builtins) MOD(args ...Value) (Value, error) {
	if len(args) != 2 {
		return nil, NewError(ErrorCodeArity, "MOD requires exactly 2 arguments")
	}
	divisor := numberOrZero(args[1])
	if divisor == 0 {
		// same leniency as the modulo operator
		return float64(0), nil
	}
	return math.Mod(numberOrZero(args[0]), divisor), nil
}

func (bf *builtins) PI(args ...Value) (Value, error) {
	if len(args) != 0 {
		return nil, NewError(ErrorCodeArity, "PI takes no arguments")
	}
	return math.Pi, nil
}

func (bf *builtins) NOW(args ...Value) (Value, error) {
	if len(args) != 0 {
		return nil, NewError(ErrorCodeArity, "NOW takes no arguments")
	}
	return bf.clock.Now(), nil
}

func (bf *builtins) TODAY(args ...Value) (Value, error) {
	if len(args) != 0 {
		return nil, NewError(ErrorCodeArity, "TODAY takes no arguments")
	}
	now := bf.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
}

func (bf *builtins) YEAR(args ...Value) (Value, error) {
	t, err := bf.dateArg("YEAR", args)
	if err != nil {
		return nil, err
	}
	return int64(t.Year()), nil
}

func (bf *builtins) MONTH(args ...Value) (Value, error) {
	t, err := bf.dateArg("MONTH", args)
	if err != nil {
		return nil, err
	}
	return int64(t.Month()), nil
}

func (bf *builtins) DAY(args ...Value) (Value, error) {
	t, err := bf.dateArg("DAY", args)
	if err != nil {
		return nil, err
	}
	return int64(t.Day()), nil
}

// dateArg resolves the optional date argument shared by YEAR, MONTH,
// and DAY: a time value, a numeric serial day number, or, when absent,
// the current date.
func (bf *builtins) dateArg(name string, args []Value) (time.Time, error) {
	switch len(args) {
	case 0:
		return bf.clock.Now(), nil
	case 1:
		if t, ok := args[0].(time.Time); ok {
			return t, nil
		}
		return serialToTime(numberOrZero(args[0])), nil
	default:
		return time.Time{}, NewError(ErrorCodeArity, name+" takes at most 1 argument")
	}
}
