package report_test

import (
	"errors"
	"testing"
	"time"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/report"
)

func TestDisabledIsNoop(t *testing.T) {
	if err := report.Init("", "test"); err != nil {
		t.Fatalf("Init(\"\") error = %v", err)
	}
	if report.Enabled() {
		t.Fatalf("Enabled() = true without DSN")
	}

	fail := failure.Classify(errors.New("boom"), "@news")
	report.Failures("fetch", reader.Failed(fail), reader.Succeeded("@ok", time.Time{}, time.Time{}, nil, false, false))
	report.Failure("info", fail)
	report.Error("fetch", errors.New("fatal"))
	report.Flush()
}

func TestInitRejectsBadDSN(t *testing.T) {
	if err := report.Init("not a dsn", "test"); err == nil {
		t.Fatalf("Init() error = nil, want invalid DSN error")
	}
	if report.Enabled() {
		t.Fatalf("Enabled() = true after failed Init")
	}
}
