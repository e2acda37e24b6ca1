package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func up() Pinger { return pingFunc(func(context.Context) error { return nil }) }

func down() Pinger {
	return pingFunc(func(context.Context) error { return errors.New("conn refused") })
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      Pinger
		cache      Pinger
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{"all healthy", up(), up(), Healthy, map[string]CheckResult{ComponentDatabase: CheckOK, ComponentCache: CheckOK}},
		{"store down", down(), up(), Unhealthy, map[string]CheckResult{ComponentDatabase: CheckError, ComponentCache: CheckOK}},
		{"cache down", up(), down(), Degraded, map[string]CheckResult{ComponentDatabase: CheckOK, ComponentCache: CheckError}},
		{"both down", down(), down(), Unhealthy, map[string]CheckResult{ComponentDatabase: CheckError, ComponentCache: CheckError}},
		{"no cache", up(), nil, Healthy, map[string]CheckResult{ComponentDatabase: CheckOK}},
		{"no cache, store down", down(), nil, Unhealthy, map[string]CheckResult{ComponentDatabase: CheckError}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.store, tc.cache).Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tc.wantStatus)
			}
			if len(r.Checks) != len(tc.wantChecks) {
				t.Errorf("checks = %v, want %v", r.Checks, tc.wantChecks)
			}
			for k, want := range tc.wantChecks {
				if r.Checks[k] != want {
					t.Errorf("check %s = %q, want %q", k, r.Checks[k], want)
				}
			}
		})
	}
}

func TestCheck_HungProbeTimesOut(t *testing.T) {
	hung := pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	svc := New(up(), hung)
	svc.timeout = 20 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("probe timeout not applied")
	}
	if r.Status != Degraded || r.Checks[ComponentCache] != CheckError {
		t.Errorf("report = %+v", r)
	}
}
