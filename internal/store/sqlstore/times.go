package sqlstore

import (
	"fmt"
	"time"
)

// sqliteTimeLayout is fixed width so that lexical order in TEXT columns is time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// dbTime scans a timestamp column regardless of whether the driver yields
// time.Time (pgx) or text (SQLite).
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	parsed, err := parseDBTime(src)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// nullTime is the nullable counterpart of dbTime.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (t *nullTime) Scan(src any) error {
	if src == nil {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	parsed, err := parseDBTime(src)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed, true
	return nil
}

// Ptr returns the time or nil when the column was NULL.
func (t nullTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func parseDBTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func parseTimeText(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}
