package vision

import (
	"strings"
	"time"
)

// Model output is not reliable about date formats even when the prompt asks
// for ISO, so we try the layouts that show up in practice, most common first.
var receiptDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
}

// ParseReceiptDate parses a date string returned by the extraction model.
// The boolean reports whether any layout matched.
func ParseReceiptDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
