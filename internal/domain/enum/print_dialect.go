package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PrintDialect selects the output format of a print job.
type PrintDialect int

const (
	PrintDialectThermal58mm PrintDialect = 0
	PrintDialectThermal80mm PrintDialect = 1
	PrintDialectA4HTML      PrintDialect = 2
)

var printDialectNames = [...]string{"58mm", "80mm", "a4"}

// Valid reports whether d is a known dialect.
func (d PrintDialect) Valid() bool {
	return int(d) >= 0 && int(d) < len(printDialectNames)
}

// Thermal reports whether the dialect is rendered by an ESC/POS printer.
func (d PrintDialect) Thermal() bool {
	return d == PrintDialectThermal58mm || d == PrintDialectThermal80mm
}

// Columns is the number of characters per printed line. A4 output is laid
// out by the browser and reports 0.
func (d PrintDialect) Columns() int {
	switch d {
	case PrintDialectThermal58mm:
		return 32
	case PrintDialectThermal80mm:
		return 48
	default:
		return 0
	}
}

// PaperWidthMM is the physical paper width used as a layout hint.
func (d PrintDialect) PaperWidthMM() int {
	switch d {
	case PrintDialectThermal58mm:
		return 58
	case PrintDialectThermal80mm:
		return 80
	default:
		return 210
	}
}

func (d PrintDialect) String() string {
	if !d.Valid() {
		return fmt.Sprintf("PrintDialect(%d)", int(d))
	}
	return printDialectNames[d]
}

// ParsePrintDialect accepts "58mm", "80mm" or "a4".
func ParsePrintDialect(s string) (PrintDialect, error) {
	for i, name := range printDialectNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return PrintDialect(i), nil
		}
	}
	return 0, fmt.Errorf("unknown paper width %q (use 58mm, 80mm or a4)", s)
}

func (d PrintDialect) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *PrintDialect) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePrintDialect(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
