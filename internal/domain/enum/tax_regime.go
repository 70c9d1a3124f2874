package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TaxRegime is the GST registration type of the restaurant. Only Regular
// registrations collect tax; Composite and Unregistered issue a bill of supply.
type TaxRegime int

const (
	TaxRegimeRegular      TaxRegime = 0
	TaxRegimeComposite    TaxRegime = 1
	TaxRegimeUnregistered TaxRegime = 2
)

var taxRegimeNames = [...]string{"Regular", "Composite", "Unregistered"}

// Valid reports whether t is one of the known regimes.
func (t TaxRegime) Valid() bool {
	return int(t) >= 0 && int(t) < len(taxRegimeNames)
}

// CollectsTax reports whether invoices under this regime carry GST.
func (t TaxRegime) CollectsTax() bool {
	return t == TaxRegimeRegular
}

func (t TaxRegime) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TaxRegime(%d)", int(t))
	}
	return taxRegimeNames[t]
}

// ParseTaxRegime accepts the regime name as used in settings and JSON,
// ignoring case.
func ParseTaxRegime(s string) (TaxRegime, error) {
	for i, name := range taxRegimeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return TaxRegime(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tax regime %q", s)
}

func (t TaxRegime) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", t)
	}
	return json.Marshal(t.String())
}

func (t *TaxRegime) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !TaxRegime(i).Valid() {
			return fmt.Errorf("unknown tax regime %d", i)
		}
		*t = TaxRegime(i)
		return nil
	}
	regime, err := ParseTaxRegime(str)
	if err != nil {
		return err
	}
	*t = regime
	return nil
}

func (t TaxRegime) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxRegime) Scan(value interface{}) error {
	if value == nil {
		*t = TaxRegimeRegular
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = TaxRegime(v)
	case int:
		*t = TaxRegime(v)
	default:
		return fmt.Errorf("cannot scan %T into TaxRegime", value)
	}
	return nil
}
