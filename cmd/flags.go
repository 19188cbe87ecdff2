package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006",
}

// dateValue is a pflag.Value accepting ISO or German dates. Values without
// a zone are read in loc.
type dateValue struct {
	t   *time.Time
	loc *time.Location
}

var _ pflag.Value = (*dateValue)(nil)

func newDateValue(t *time.Time, loc *time.Location) *dateValue {
	if loc == nil {
		loc = time.UTC
	}
	return &dateValue{t: t, loc: loc}
}

func (d *dateValue) Set(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "today", "heute":
		now := time.Now().In(d.loc)
		*d.t = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc)
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, d.loc); err == nil {
			*d.t = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q (use YYYY-MM-DD or DD.MM.YYYY)", s)
}

func (d *dateValue) String() string {
	if d.t == nil || d.t.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

func (d *dateValue) Type() string {
	return "date"
}
