package httpjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scalar keeps the text of a JSON string or number field. Null and absent
// fields leave it unset.
type Scalar struct {
	Text  string
	Valid bool
}

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar{Text: str, Valid: true}
		return nil
	}
	*s = Scalar{Text: string(b), Valid: true}
	return nil
}

// Ptr returns nil for an unset scalar.
func (s Scalar) Ptr() *string {
	if !s.Valid {
		return nil
	}
	t := s.Text
	return &t
}

// OptInt is an integer field that browsers send either as a number, a
// numeric string, an empty string or null. Blank values decode as absent.
type OptInt struct {
	Value int
	Valid bool
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	quoted := len(b) > 0 && b[0] == '"'
	var s Scalar
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	raw := strings.TrimSpace(s.Text)
	if !s.Valid || raw == "" {
		*o = OptInt{}
		return nil
	}
	n, err := parseLooseInt(raw, !quoted)
	if err != nil {
		return err
	}
	*o = OptInt{Value: n, Valid: true}
	return nil
}

// parseLooseInt accepts integer text. Fractions are truncated only for
// JSON numbers; strings must hold an integer.
func parseLooseInt(raw string, number bool) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	if number {
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil && f >= math.MinInt && f < math.MaxInt {
			return int(f), nil
		}
	}
	return 0, fmt.Errorf("invalid literal for int: %q", raw)
}

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

// Ptr returns nil for an absent value.
func (o OptInt) Ptr() *int {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// ID returns the value as a database id, 0 when absent.
func (o OptInt) ID() int64 {
	return int64(o.Value)
}
