package formula

import (
	"fmt"
	"strings"
)

// ErrorCode represents standard spreadsheet error codes following
// Excel conventions
type ErrorCode uint8

const (
	ErrorCodeCycle    ErrorCode = 1 // #CYCLE! - circular reference between cells
	ErrorCodeName     ErrorCode = 2 // #NAME? - unrecognized function name
	ErrorCodeArity    ErrorCode = 3 // #N/A - not enough arguments for function or operator
	ErrorCodeOperator ErrorCode = 4 // #VALUE! - operator not supported by the evaluator
	ErrorCodeParse    ErrorCode = 5 // #ERROR! - formula text could not be parsed
)

// ErrorMapper maps error code numbers to their string representations
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeCycle:    "#CYCLE!",
	ErrorCodeName:     "#NAME?",
	ErrorCodeArity:    "#N/A",
	ErrorCodeOperator: "#VALUE!",
	ErrorCodeParse:    "#ERROR!",
}

// Error preserves the error code for display in cells. Chain is only
// populated for circular reference errors and lists the addresses in
// evaluation order, ending with the address that closed the loop.
type Error struct {
	Code    ErrorCode
	Message string
	Chain   []string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.Code]
}

// Label returns the display form for the error code, e.g. "#CYCLE!".
func (e *Error) Label() string {
	return ErrorMapper[e.Code]
}

func NewError(code ErrorCode, message string) *Error {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewCycleError builds the circular reference error for the given chain
// of active addresses.
func NewCycleError(chain []string) *Error {
	return &Error{
		Code:    ErrorCodeCycle,
		Message: fmt.Sprintf("circular reference: %s", strings.Join(chain, " -> ")),
		Chain:   chain,
	}
}
