package internship

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const unpaidMarker = "Unpaid"

// Stipend is either a monthly amount or the Unpaid marker. The zero value
// means not specified. It travels as a JSON number or the string "Unpaid"
// and is stored as text.
type Stipend struct {
	Amount *float64
	Unpaid bool
}

func Amount(v float64) Stipend { return Stipend{Amount: &v} }

func Unpaid() Stipend { return Stipend{Unpaid: true} }

func (s Stipend) IsZero() bool {
	return s.Amount == nil && !s.Unpaid
}

func (s Stipend) String() string {
	switch {
	case s.Unpaid:
		return unpaidMarker
	case s.Amount != nil:
		return strconv.FormatFloat(*s.Amount, 'f', -1, 64)
	default:
		return ""
	}
}

func (s Stipend) MarshalJSON() ([]byte, error) {
	switch {
	case s.Unpaid:
		return json.Marshal(unpaidMarker)
	case s.Amount != nil:
		return json.Marshal(*s.Amount)
	default:
		return []byte("null"), nil
	}
}

func (s *Stipend) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Stipend{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := ParseStipend(raw)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("stipend must be a number or %q", unpaidMarker)
	}
	if v < 0 {
		return fmt.Errorf("stipend cannot be negative")
	}
	*s = Amount(v)
	return nil
}

// ParseStipend accepts "", "Unpaid" in any case, or a non-negative number
// with optional thousands separators.
func ParseStipend(raw string) (Stipend, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Stipend{}, nil
	}
	if strings.EqualFold(raw, unpaidMarker) {
		return Unpaid(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || v < 0 {
		return Stipend{}, fmt.Errorf("stipend must be a number or %q", unpaidMarker)
	}
	return Amount(v), nil
}

func (s Stipend) Value() (driver.Value, error) {
	if s.IsZero() {
		return nil, nil
	}
	return s.String(), nil
}

func (s *Stipend) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Stipend{}
		return nil
	case string:
		parsed, err := ParseStipend(v)
		*s = parsed
		return err
	case []byte:
		parsed, err := ParseStipend(string(v))
		*s = parsed
		return err
	case float64:
		*s = Amount(v)
		return nil
	case int64:
		*s = Amount(float64(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Stipend", src)
	}
}
