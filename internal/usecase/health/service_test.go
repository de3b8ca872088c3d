package health

import (
	"context"
	"errors"
	"testing"
)

func TestCheck_AllHealthy(t *testing.T) {
	svc := New()
	svc.Add("jobstore", PingerFunc(func(context.Context) error { return nil }))
	svc.Add("llm", PingerFunc(func(context.Context) error { return nil }))

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("expected ok, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(report.Checks))
	}
}

func TestCheck_OneFailureDegrades(t *testing.T) {
	svc := New()
	svc.Add("jobstore", PingerFunc(func(context.Context) error { return nil }))
	svc.Add("llm", PingerFunc(func(context.Context) error { return errors.New("unreachable") }))

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Checks["llm"] != CheckError {
		t.Errorf("expected llm error, got %s", report.Checks["llm"])
	}
	if report.Checks["jobstore"] != CheckOK {
		t.Errorf("expected jobstore ok, got %s", report.Checks["jobstore"])
	}
}

func TestAdd_NilIgnored(t *testing.T) {
	svc := New()
	svc.Add("missing", nil)

	report := svc.Check(context.Background())
	if len(report.Checks) != 0 {
		t.Errorf("expected no checks, got %d", len(report.Checks))
	}
}
