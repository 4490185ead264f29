package reader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseError — некорректная спецификация окна времени (--since).
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse --since value: %q. Use '24h', '7d', '2w', or 'YYYY-MM-DD'", e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Layouts ISO-8601, которые принимает ParseWindow, в порядке проверки.
// Варианты без зоны трактуются как UTC.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999Z0700", true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02 15:04", false},
	{time.DateOnly, false},
}

// ParseWindow переводит спецификацию окна в абсолютный момент отсечки.
// Порядок разбора фиксирован: суффикс h, затем d, затем w, иначе ISO-8601
// дата или дата-время (без зоны — UTC). Результат всегда в UTC.
func ParseWindow(spec string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(spec)
	now = now.UTC()

	for _, unit := range []struct {
		suffix string
		step   time.Duration
	}{
		{"h", time.Hour},
		{"d", 24 * time.Hour},
		{"w", 7 * 24 * time.Hour},
	} {
		prefix, ok := strings.CutSuffix(value, unit.suffix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(prefix)
		if err != nil {
			return time.Time{}, &ParseError{Value: spec, Err: err}
		}
		// Окно должно представляться в time.Duration, иначе произведение переполняется.
		if limit := int64(math.MaxInt64 / unit.step); int64(n) > limit || int64(n) < -limit {
			return time.Time{}, &ParseError{Value: spec}
		}
		return now.Add(-time.Duration(n) * unit.step), nil
	}

	for _, candidate := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if candidate.zoned {
			t, err = time.Parse(candidate.layout, value)
		} else {
			t, err = time.ParseInLocation(candidate.layout, value, time.UTC)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ParseError{Value: spec}
}
