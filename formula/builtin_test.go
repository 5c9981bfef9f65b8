package formula

import (
	"errors"
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestEngine() *Engine {
	return NewEngine(&Config{
		CacheEnabled: true,
		MaxCacheSize: 1000,
		Clock:        &fakeClock{now: time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)},
	})
}

func calc(t *testing.T, engine *Engine, formula string) Value {
	t.Helper()
	result, err := engine.Calculate(formula, "")
	if err != nil {
		t.Fatalf("Calculate(%s) failed: %v", formula, err)
	}
	return result
}

func assertNumber(t *testing.T, engine *Engine, formula string, expected float64) {
	t.Helper()
	result := calc(t, engine, formula)
	num, ok := result.(float64)
	if !ok {
		t.Fatalf("Calculate(%s) = %v (%T), want float64", formula, result, result)
	}
	if math.Abs(num-expected) > 1e-10 {
		t.Errorf("Calculate(%s) = %v, want %v", formula, num, expected)
	}
}

func assertValue(t *testing.T, engine *Engine, formula string, expected Value) {
	t.Helper()
	result := calc(t, engine, formula)
	if result != expected {
		t.Errorf("Calculate(%s) = %v (%T), want %v (%T)", formula, result, result, expected, expected)
	}
}

func assertErrCode(t *testing.T, engine *Engine, formula string, code ErrorCode) {
	t.Helper()
	_, err := engine.Calculate(formula, "")
	if err == nil {
		t.Fatalf("Calculate(%s) succeeded, want error code %v", formula, code)
	}
	var formulaErr *Error
	if !errors.As(err, &formulaErr) {
		t.Fatalf("Calculate(%s) error = %T, want *Error", formula, err)
	}
	if formulaErr.Code != code {
		t.Errorf("Calculate(%s) error code = %v, want %v", formula, formulaErr.Code, code)
	}
}

func TestAggregationFunctions(t *testing.T) {
	engine := newTestEngine()

	t.Run("SUM", func(t *testing.T) {
		assertNumber(t, engine, "SUM(1,2,3)", 6)
		assertNumber(t, engine, "SUM()", 0)
		assertNumber(t, engine, "SUM(1.5, 2.5)", 4)
		// text never coerces, even when numeric-looking
		assertNumber(t, engine, `SUM(1,"2",3)`, 4)
		// booleans count as 1 and 0
		assertNumber(t, engine, "SUM(TRUE,TRUE,FALSE)", 2)
		assertNumber(t, engine, "SUM(-5, 10)", 5)
	})

	t.Run("SUM hides float drift", func(t *testing.T) {
		result := calc(t, engine, "SUM(0.1, 0.2)")
		if result != float64(0.3) {
			t.Errorf("SUM(0.1, 0.2) = %v, want exactly 0.3", result)
		}
	})

	t.Run("AVERAGE", func(t *testing.T) {
		assertNumber(t, engine, "AVERAGE(2,4,6)", 4)
		assertNumber(t, engine, "AVERAGE(1)", 1)
		// no numeric values leaves nothing to divide by
		assertNumber(t, engine, "AVERAGE()", 0)
		assertNumber(t, engine, `AVERAGE("a","b")`, 0)
		assertNumber(t, engine, `AVERAGE(10, "skip", 20)`, 15)
	})

	t.Run("COUNT", func(t *testing.T) {
		// only concrete numbers count
		assertValue(t, engine, `COUNT(1, 2.5, "3", TRUE)`, int64(2))
		assertValue(t, engine, "COUNT()", int64(0))
	})

	t.Run("COUNTA", func(t *testing.T) {
		assertValue(t, engine, `COUNTA(1, "", TRUE)`, int64(3))
		assertValue(t, engine, "COUNTA()", int64(0))
	})

	t.Run("MAX", func(t *testing.T) {
		assertNumber(t, engine, "MAX(1,5,3)", 5)
		assertNumber(t, engine, "MAX(-3,-1,-7)", -1)
		assertNumber(t, engine, "MAX()", 0)
		assertNumber(t, engine, `MAX("text")`, 0)
	})

	t.Run("MIN", func(t *testing.T) {
		assertNumber(t, engine, "MIN(5,2,8)", 2)
		assertNumber(t, engine, "MIN(-3,-1)", -3)
		assertNumber(t, engine, "MIN()", 0)
	})

	t.Run("MEDIAN", func(t *testing.T) {
		assertNumber(t, engine, "MEDIAN(3,1,2)", 2)
		assertNumber(t, engine, "MEDIAN(1,2,3,4)", 2.5)
		assertNumber(t, engine, "MEDIAN(42)", 42)
		assertNumber(t, engine, "MEDIAN()", 0)
		assertNumber(t, engine, `MEDIAN(1,"x",3,5)`, 3)
	})
}

func TestLogicalFunctions(t *testing.T) {
	engine := newTestEngine()

	t.Run("IF", func(t *testing.T) {
		assertValue(t, engine, "IF(TRUE, 1, 2)", int64(1))
		assertValue(t, engine, "IF(FALSE, 1, 2)", int64(2))
		assertValue(t, engine, `IF(1>0, "yes", "no")`, "yes")
		assertValue(t, engine, "IF(0, 1, 2)", int64(2))
		// missing branches yield empty text
		assertValue(t, engine, "IF(FALSE, 1)", "")
		assertValue(t, engine, "IF(TRUE)", "")
		// the text "0" is truthy
		assertValue(t, engine, `IF("0", 1, 2)`, int64(1))
		assertErrCode(t, engine, "IF()", ErrorCodeArity)
		assertErrCode(t, engine, "IF(1, 2, 3, 4)", ErrorCodeArity)
	})

	t.Run("AND", func(t *testing.T) {
		assertValue(t, engine, "AND(TRUE, TRUE)", true)
		assertValue(t, engine, "AND(TRUE, FALSE)", false)
		assertValue(t, engine, "AND(1, 2, 3)", true)
		assertValue(t, engine, "AND(1, 0)", false)
		assertValue(t, engine, "AND()", true)
	})

	t.Run("OR", func(t *testing.T) {
		assertValue(t, engine, "OR(FALSE, TRUE)", true)
		assertValue(t, engine, "OR(FALSE, FALSE)", false)
		assertValue(t, engine, "OR(0, 0, 1)", true)
		assertValue(t, engine, "OR()", false)
	})

	t.Run("NOT", func(t *testing.T) {
		assertValue(t, engine, "NOT(TRUE)", false)
		assertValue(t, engine, "NOT(FALSE)", true)
		assertValue(t, engine, "NOT(0)", true)
		assertErrCode(t, engine, "NOT()", ErrorCodeArity)
		assertErrCode(t, engine, "NOT(1, 2)", ErrorCodeArity)
	})
}

func TestTextFunctions(t *testing.T) {
	engine := newTestEngine()

	t.Run("CONCATENATE", func(t *testing.T) {
		assertValue(t, engine, `CONCATENATE("Hello", " ", "World")`, "Hello World")
		assertValue(t, engine, `CONCATENATE("Value: ", 123, " - ", TRUE)`, "Value: 123 - TRUE")
		assertValue(t, engine, "CONCATENATE()", "")
	})

	t.Run("LEN", func(t *testing.T) {
		assertValue(t, engine, `LEN("Hello")`, int64(5))
		assertValue(t, engine, `LEN("")`, int64(0))
		// characters, not bytes
		assertValue(t, engine, `LEN("héllo")`, int64(5))
		assertValue(t, engine, "LEN(12345)", int64(5))
		assertErrCode(t, engine, "LEN()", ErrorCodeArity)
	})

	t.Run("LEFT", func(t *testing.T) {
		assertValue(t, engine, `LEFT("hello", 2)`, "he")
		assertValue(t, engine, `LEFT("héllo", 2)`, "hé")
		assertValue(t, engine, `LEFT("abc", 10)`, "abc")
		assertValue(t, engine, `LEFT("abc", 0)`, "")
		assertValue(t, engine, `LEFT("abc", -1)`, "")
		assertErrCode(t, engine, `LEFT("abc")`, ErrorCodeArity)
	})

	t.Run("RIGHT", func(t *testing.T) {
		assertValue(t, engine, `RIGHT("hello", 2)`, "lo")
		assertValue(t, engine, `RIGHT("héllo", 4)`, "éllo")
		assertValue(t, engine, `RIGHT("abc", 10)`, "abc")
		assertValue(t, engine, `RIGHT("abc", 0)`, "")
		assertErrCode(t, engine, `RIGHT("abc", 1, 2)`, ErrorCodeArity)
	})

	t.Run("UPPER", func(t *testing.T) {
		assertValue(t, engine, `UPPER("hello world")`, "HELLO WORLD")
		assertValue(t, engine, `UPPER("héllo")`, "HÉLLO")
		assertValue(t, engine, "UPPER(123)", "123")
		assertErrCode(t, engine, "UPPER()", ErrorCodeArity)
	})

	t.Run("LOWER", func(t *testing.T) {
		assertValue(t, engine, `LOWER("HELLO World")`, "hello world")
		assertValue(t, engine, "LOWER(TRUE)", "true")
	})

	t.Run("TRIM", func(t *testing.T) {
		assertValue(t, engine, `TRIM("  hello world  ")`, "hello world")
		assertValue(t, engine, `TRIM("x")`, "x")
		assertValue(t, engine, `TRIM("   ")`, "")
	})
}

func TestMathFunctions(t *testing.T) {
	engine := newTestEngine()

	t.Run("ABS", func(t *testing.T) {
		assertNumber(t, engine, "ABS(-10)", 10)
		assertNumber(t, engine, "ABS(10)", 10)
		assertNumber(t, engine, "ABS(0)", 0)
		// non-numeric input counts as zero
		assertNumber(t, engine, `ABS("text")`, 0)
	})

	t.Run("ROUND", func(t *testing.T) {
		assertNumber(t, engine, "ROUND(3.7)", 4)
		assertNumber(t, engine, "ROUND(3.4)", 3)
		assertNumber(t, engine, "ROUND(3.14159, 2)", 3.14)
		assertNumber(t, engine, "ROUND(1234.5, -2)", 1200)
		// halves round away from zero
		assertNumber(t, engine, "ROUND(-2.5)", -3)
		assertErrCode(t, engine, "ROUND()", ErrorCodeArity)
	})

	t.Run("FLOOR", func(t *testing.T) {
		assertNumber(t, engine, "FLOOR(3.7)", 3)
		assertNumber(t, engine, "FLOOR(-3.7)", -4)
	})

	t.Run("CEILING", func(t *testing.T) {
		assertNumber(t, engine, "CEILING(3.2)", 4)
		assertNumber(t, engine, "CEILING(-3.2)", -3)
	})

	t.Run("SQRT", func(t *testing.T) {
		assertNumber(t, engine, "SQRT(16)", 4)
		assertNumber(t, engine, "SQRT(0)", 0)
		// negative input yields 0 rather than an error
		assertNumber(t, engine, "SQRT(-4)", 0)
	})

	t.Run("POWER", func(t *testing.T) {
		assertNumber(t, engine, "POWER(2, 10)", 1024)
		assertNumber(t, engine, "POWER(5, 0)", 1)
		assertNumber(t, engine, "POWER(2, -2)", 0.25)
		assertErrCode(t, engine, "POWER(2)", ErrorCodeArity)
	})

	t.Run("MOD", func(t *testing.T) {
		assertNumber(t, engine, "MOD(10, 3)", 1)
		assertNumber(t, engine, "MOD(-10, 3)", -1)
		// zero divisor yields 0, matching the % operator
		assertNumber(t, engine, "MOD(10, 0)", 0)
	})

	t.Run("PI", func(t *testing.T) {
		assertNumber(t, engine, "PI()", math.Pi)
		assertErrCode(t, engine, "PI(1)", ErrorCodeArity)
	})
}

func TestDateFunctions(t *testing.T) {
	engine := newTestEngine()

	t.Run("NOW", func(t *testing.T) {
		result := calc(t, engine, "NOW()")
		now, ok := result.(time.Time)
		if !ok {
			t.Fatalf("NOW() = %v (%T), want time.Time", result, result)
		}
		want := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
		if !now.Equal(want) {
			t.Errorf("NOW() = %v, want %v", now, want)
		}
	})

	t.Run("TODAY", func(t *testing.T) {
		result := calc(t, engine, "TODAY()")
		today, ok := result.(time.Time)
		if !ok {
			t.Fatalf("TODAY() = %v (%T), want time.Time", result, result)
		}
		want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
		if !today.Equal(want) {
			t.Errorf("TODAY() = %v, want %v", today, want)
		}
	})

	t.Run("YEAR MONTH DAY of the clock", func(t *testing.T) {
		assertValue(t, engine, "YEAR()", int64(2024))
		assertValue(t, engine, "MONTH()", int64(6))
		assertValue(t, engine, "DAY()", int64(15))
	})

	t.Run("date parts of a time argument", func(t *testing.T) {
		assertValue(t, engine, "YEAR(TODAY())", int64(2024))
		assertValue(t, engine, "MONTH(NOW())", int64(6))
		assertValue(t, engine, "DAY(NOW())", int64(15))
	})

	t.Run("date parts of a serial argument", func(t *testing.T) {
		// serial 45291 is 2024-01-01
		assertValue(t, engine, "YEAR(45291)", int64(2024))
		assertValue(t, engine, "MONTH(45291)", int64(1))
		assertValue(t, engine, "DAY(45291)", int64(1))
	})

	t.Run("arity", func(t *testing.T) {
		assertErrCode(t, engine, "NOW(1)", ErrorCodeArity)
		assertErrCode(t, engine, "TODAY(1)", ErrorCodeArity)
		assertErrCode(t, engine, "YEAR(1, 2)", ErrorCodeArity)
	})
}
