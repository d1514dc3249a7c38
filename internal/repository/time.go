package repository

import "time"

// timeLayout is RFC 3339 in UTC with a fixed nine-digit fraction. The
// width matters: ORDER BY and range comparisons run on the TEXT column,
// so byte order must equal chronological order. RFC3339Nano trims
// trailing fractional zeros and breaks that ("...00.5Z" sorts before
// "...00Z").
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface {
	Scan(dest ...interface{}) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the fixed-width layout plus plain RFC 3339 with or
// without a fraction, so rows written before the layout change still load.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}
