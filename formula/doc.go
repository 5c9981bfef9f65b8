// Package formula tokenizes, parses, and evaluates spreadsheet
// formulas with spreadsheet semantics: loose coercion, lenient division
// by zero, and a library of built-in functions.
//
// # Overview
//
// A formula is the text after the leading "=" of a spreadsheet cell,
// e.g. "SUM(A1,B2)*2". Evaluation runs in three stages: the Lexer
// produces tokens, the Parser builds an AST honoring the fixed
// precedence table, and the tree evaluates recursively against the
// engine's state. Each Engine owns its function registry, its caches,
// and its circular reference guard; independent engines share nothing.
//
// # Quick Start
//
// Create an engine and evaluate free-standing expressions:
//
//	engine := formula.NewEngine(nil)
//
//	result, err := engine.Calculate("1+2*3", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(formula.Format(result)) // 7
//
// # Cell References
//
// References like A1 are resolved through a host-supplied callback.
// Without one, every reference is 0:
//
//	engine.SetCellResolver(func(address string) (formula.Value, error) {
//	    if address == "A1" {
//	        return int64(41), nil
//	    }
//	    return nil, nil
//	})
//
//	result, _ = engine.Calculate("A1+1", "") // 42
//
// A resolver backed by stored formulas re-enters the engine with the
// referenced cell's own address; chains that loop back surface as a
// circular reference error carrying the full address chain.
//
// # Custom Functions
//
// Hosts extend the function library at runtime. Names are
// case-insensitive and may override built-ins:
//
//	engine.AddFunction("DOUBLE", func(args ...formula.Value) (formula.Value, error) {
//	    if len(args) != 1 {
//	        return nil, formula.NewError(formula.ErrorCodeArity, "DOUBLE requires exactly 1 argument")
//	    }
//	    n, _ := args[0].(int64)
//	    return n * 2, nil
//	})
//
// # Values
//
// Results use plain Go types: nil, bool, int64, float64, string, and
// time.Time. Text never coerces to a number implicitly; SUM(1,"2",3)
// is 4 because "2" is text. Comparison operators are looser: both
// sides are compared numerically when they can be read as numbers
// (numeric text included), and as text otherwise.
//
// # Errors
//
// Failures come back as *Error values tagged with an ErrorCode:
// circular references, unknown functions and identifiers, wrong
// argument counts, and malformed syntax. Division and modulo by zero
// are not errors; both yield 0.
//
// # Caching
//
// Parsed trees and computed results are cached per engine, keyed by
// formula text (plus the active evaluation chain for results), bounded
// by Config.MaxCacheSize with older-half eviction. Failed evaluations
// are never cached. ClearCache resets both tiers; GetCacheStats
// reports occupancy.
//
// # Thread Safety
//
// An Engine is not safe for concurrent use: the guard stack and caches
// are mutated in place during Calculate. Use one engine per goroutine
// or serialize calls with an external mutex. No timeout or recursion
// budget is imposed; hosts that accept untrusted formulas should
// enforce their own around Calculate.
package formula
