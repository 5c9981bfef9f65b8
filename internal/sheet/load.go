package sheet

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/longkedev/lkcalc/formula"
)

// cellsFile is the on-disk shape of a cells file:
//
//	[cells]
//	A1 = 100
//	A2 = 2.5
//	A3 = "=SUM(A1,A2)"
//	B1 = "plain text"
//	B2 = true
//	B3 = 2024-06-15T10:30:00Z
type cellsFile struct {
	Cells map[string]any `toml:"cells"`
}

// Load reads a TOML cells file into the sheet. Existing cells at the
// same addresses are overwritten; other cells are kept.
func (s *Sheet) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading cells file: %w", err)
	}
	if err := s.Parse(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Parse loads cells from TOML data.
func (s *Sheet) Parse(data []byte) error {
	var file cellsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing cells: %w", err)
	}

	for address, raw := range file.Cells {
		value, err := cellValue(raw)
		if err != nil {
			return fmt.Errorf("cell %s: %w", address, err)
		}
		if err := s.Set(address, value); err != nil {
			return err
		}
	}
	return nil
}

// cellValue narrows a decoded TOML value to the engine's value types.
// Strings beginning with "=" become formula cells by the Set contract.
func cellValue(raw any) (formula.Value, error) {
	switch v := raw.(type) {
	case string, bool, int64, float64, time.Time:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T (want string, number, boolean, or datetime)", raw)
	}
}
