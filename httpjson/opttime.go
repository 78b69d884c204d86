package httpjson

import (
	"strings"
	"time"

	"github.com/programme-lv/classroom/srvcerror"
)

// browser datetime-local inputs omit the zone and seconds
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// OptTime is a nullable timestamp field. Set records whether the key was
// present at all; null and "" decode as a present but empty value.
type OptTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptTime) UnmarshalJSON(b []byte) error {
	var s Scalar
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	raw := strings.TrimSpace(s.Text)
	if !s.Valid || raw == "" {
		*o = OptTime{Set: true}
		return nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return err
	}
	*o = OptTime{Set: true, Value: &t}
	return nil
}

// ParseTime accepts RFC 3339 and zone-less local forms, the latter read
// as UTC.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, srvcerror.ErrValidation("invalid datetime: " + raw)
}
