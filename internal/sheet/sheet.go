// Package sheet provides an in-memory cell store that backs the formula
// engine's cell resolver. Cells hold either literal values or formula
// text beginning with "="; formula cells are evaluated through the
// engine on demand, re-entering it at their own address so circular
// chains surface as circular reference errors.
package sheet

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/longkedev/lkcalc/formula"
)

// ErrInvalidAddress is returned for addresses that do not have the
// letters-then-digits cell shape.
var ErrInvalidAddress = errors.New("invalid cell address")

// Sheet is a named-cell store. It is not safe for concurrent use, the
// same discipline as the engine it feeds.
type Sheet struct {
	engine *formula.Engine
	cells  map[string]formula.Value
}

// New creates an empty sheet and installs it as the engine's cell
// resolver, so references in any formula the engine evaluates are
// answered from this store.
func New(engine *formula.Engine) *Sheet {
	s := &Sheet{
		engine: engine,
		cells:  make(map[string]formula.Value),
	}
	engine.SetCellResolver(s.Resolve)
	return s
}

// Set stores a value at an address. A string beginning with "=" is
// stored as formula text and evaluated lazily on resolution. Addresses
// are case-insensitive and normalized to upper case.
func (s *Sheet) Set(address string, value formula.Value) error {
	if !formula.IsCellAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	s.cells[strings.ToUpper(address)] = value
	return nil
}

// SetText stores a value given as user-entered text, the way the REPL
// assignment syntax supplies it: formulas keep their "=" prefix,
// numbers and booleans are parsed to typed values, everything else is
// stored as plain text.
func (s *Sheet) SetText(address, text string) error {
	return s.Set(address, parseLiteral(text))
}

// parseLiteral coerces entered text to a stored value. Quoted text
// stays text with the quotes stripped, so a literal "42" can be forced.
func parseLiteral(text string) formula.Value {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "=") {
		return trimmed
	}
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return trimmed[1 : len(trimmed)-1]
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if intVal, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return intVal
	}
	if floatVal, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return floatVal
	}
	return trimmed
}

// Get returns the stored value at an address: the literal, or the
// formula text for formula cells. ok is false for empty cells.
func (s *Sheet) Get(address string) (formula.Value, bool) {
	value, ok := s.cells[strings.ToUpper(address)]
	return value, ok
}

// Remove deletes a cell. Removing an empty cell is a no-op.
func (s *Sheet) Remove(address string) {
	delete(s.cells, strings.ToUpper(address))
}

// Len returns the number of stored cells.
func (s *Sheet) Len() int {
	return len(s.cells)
}

// Resolve is the formula.CellResolver for this store. Empty cells
// resolve to nil; formula cells re-enter the engine at their own
// address.
func (s *Sheet) Resolve(address string) (formula.Value, error) {
	value, ok := s.cells[address]
	if !ok {
		return nil, nil
	}
	if text, ok := value.(string); ok && strings.HasPrefix(text, "=") {
		return s.engine.Calculate(text[1:], address)
	}
	return value, nil
}

// Value computes the current value of one cell, evaluating formula
// cells through the engine.
func (s *Sheet) Value(address string) (formula.Value, error) {
	return s.Resolve(strings.ToUpper(address))
}

// Addresses returns all stored addresses in column-then-row order:
// A1, A2, A10, B1, AA1.
func (s *Sheet) Addresses() []string {
	addresses := make([]string, 0, len(s.cells))
	for address := range s.cells {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return lessAddress(addresses[i], addresses[j])
	})
	return addresses
}

// Entry is one cell in a sheet snapshot: the stored form, the computed
// value, and the evaluation error if the cell failed.
type Entry struct {
	Address string
	Raw     formula.Value
	Value   formula.Value
	Err     error
}

// Snapshot evaluates every cell and returns the results in address
// order. A failing cell records its error in its entry; it does not
// stop the rest of the sheet from evaluating.
func (s *Sheet) Snapshot() []Entry {
	entries := make([]Entry, 0, len(s.cells))
	for _, address := range s.Addresses() {
		entry := Entry{Address: address, Raw: s.cells[address]}
		entry.Value, entry.Err = s.Resolve(address)
		entries = append(entries, entry)
	}
	return entries
}

// lessAddress orders addresses by column then row: the column letters
// compare by length first (Z before AA), rows compare numerically
// (A2 before A10).
func lessAddress(a, b string) bool {
	aCol, aRow := splitAddress(a)
	bCol, bRow := splitAddress(b)
	if aCol != bCol {
		if len(aCol) != len(bCol) {
			return len(aCol) < len(bCol)
		}
		return aCol < bCol
	}
	return aRow < bRow
}

// splitAddress splits a valid address into its column letters and
// numeric row.
func splitAddress(address string) (string, int) {
	i := 0
	for i < len(address) && address[i] >= 'A' && address[i] <= 'Z' {
		i++
	}
	row, _ := strconv.Atoi(address[i:])
	return address[:i], row
}
