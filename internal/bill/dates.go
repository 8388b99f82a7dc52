package bill

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// dateLayouts are tried in order. Day-first layouts come before any
// ambiguous alternative so "05.03.24" resolves to 5 March, matching the
// convention the ledger sheets are written in.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"2.1.06",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
	"2006/01/02",
}

// ParseDate parses a calendar date from a day-first-ambiguous or ISO
// string. Time-of-day suffixes are not accepted; the ledger stores
// dates only.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, fmt.Errorf("empty date string")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
}
