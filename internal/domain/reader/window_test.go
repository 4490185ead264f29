package reader_test

import (
	"errors"
	"testing"
	"time"

	"tg-channel-reader/internal/domain/reader"
)

func TestParseWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		spec string
		want time.Time
	}{
		{name: "hours", spec: "24h", want: now.Add(-24 * time.Hour)},
		{name: "zeroHours", spec: "0h", want: now},
		{name: "days", spec: "7d", want: now.Add(-7 * 24 * time.Hour)},
		{name: "weeks", spec: "2w", want: now.Add(-14 * 24 * time.Hour)},
		{name: "paddedSpaces", spec: "  3d ", want: now.Add(-3 * 24 * time.Hour)},
		{name: "dateOnlyIsUTC", spec: "2025-02-01", want: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{name: "datetimeWithoutZone", spec: "2025-02-01T08:15:00", want: time.Date(2025, 2, 1, 8, 15, 0, 0, time.UTC)},
		{name: "datetimeWithOffset", spec: "2025-02-01T08:15:00+03:00", want: time.Date(2025, 2, 1, 5, 15, 0, 0, time.UTC)},
		{name: "datetimeZulu", spec: "2025-02-01T08:15:00Z", want: time.Date(2025, 2, 1, 8, 15, 0, 0, time.UTC)},
		{name: "spaceSeparated", spec: "2025-02-01 08:15", want: time.Date(2025, 2, 1, 8, 15, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := reader.ParseWindow(tc.spec, now)
			if err != nil {
				t.Fatalf("ParseWindow(%q) error = %v", tc.spec, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseWindow(%q) = %s, want %s", tc.spec, got, tc.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("ParseWindow(%q) location = %s, want UTC", tc.spec, got.Location())
			}
		})
	}
}

func TestParseWindowRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	for _, spec := range []string{"", "yesterday", "xh", "1.5d", "h", "3m", "2025-13-01", "10 days", "30000000w", "9999999999999h", "-9999999999999h"} {
		t.Run(spec, func(t *testing.T) {
			t.Parallel()

			_, err := reader.ParseWindow(spec, now)
			var perr *reader.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("ParseWindow(%q) error = %v, want *ParseError", spec, err)
			}
			if perr.Value != spec {
				t.Fatalf("ParseError.Value = %q, want %q", perr.Value, spec)
			}
		})
	}
}
