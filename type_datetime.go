package binnaculum

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeFormat is the canonical textual format of every domain timestamp.
const DateTimeFormat = "2006-01-02T15:04:05"

// DateTime is a timestamp with second precision, always in UTC.
type DateTime struct {
	t time.Time
}

// NewDateTime returns the DateTime of t, truncated to the second and converted to UTC.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t: t.UTC().Truncate(time.Second)}
}

// ParseDateTime parses the canonical format. A bare date is accepted as midnight.
func ParseDateTime(str string) (DateTime, error) {
	t, err := time.Parse(DateTimeFormat, str)
	if err != nil {
		d, derr := time.Parse(DateFormat, str)
		if derr != nil {
			return DateTime{}, fmt.Errorf("invalid timestamp %q want format %q: %w", str, DateTimeFormat, err)
		}
		t = d
	}
	return NewDateTime(t), nil
}

// MustParseDateTime is like ParseDateTime but panics on error.
func MustParseDateTime(str string) DateTime {
	dt, err := ParseDateTime(str)
	if err != nil {
		panic(err.Error())
	}
	return dt
}

// Now returns the current timestamp.
func Now() DateTime { return NewDateTime(time.Now()) }

func (d DateTime) String() string         { return d.t.Format(DateTimeFormat) }
func (d DateTime) Time() time.Time        { return d.t }
func (d DateTime) IsZero() bool           { return d.t.IsZero() }
func (d DateTime) Before(x DateTime) bool { return d.t.Before(x.t) }
func (d DateTime) After(x DateTime) bool  { return d.t.After(x.t) }
func (d DateTime) Equal(x DateTime) bool  { return d.t.Equal(x.t) }
func (d DateTime) Compare(x DateTime) int { return d.t.Compare(x.t) }

// Date returns the calendar day of the timestamp.
func (d DateTime) Date() Date { return NewDate(d.t.Date()) }

// SameDay reports whether both timestamps fall on the same calendar day.
func (d DateTime) SameDay(x DateTime) bool { return d.Date() == x.Date() }

func (d DateTime) MarshalJSON() ([]byte, error) {
	str := d.String()
	return json.Marshal(&str)
}

func (d *DateTime) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	dt, err := ParseDateTime(str)
	if err != nil {
		return err
	}
	*d = dt
	return nil
}
