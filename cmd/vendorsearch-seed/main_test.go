package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vendorsearch/internal/domain/vendors"
)

type mockTarget struct {
	batches   [][]vendors.Vendor
	deleted   bool
	upsertErr error
	failAt    int
}

func (m *mockTarget) UpsertBatch(_ context.Context, vs []vendors.Vendor) error {
	if m.upsertErr != nil && len(m.batches) == m.failAt {
		return m.upsertErr
	}
	m.batches = append(m.batches, vs)
	return nil
}

func (m *mockTarget) DeleteAll(context.Context) (int, error) {
	m.deleted = true
	return 3, nil
}

func sampleVendors(n int) []vendors.Vendor {
	vs := make([]vendors.Vendor, n)
	for i := range vs {
		vs[i] = vendors.Reconstruct(vendors.Params{ID: fmt.Sprintf("v-%02d", i), Active: true})
	}
	return vs
}

func TestSeed_Batches(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		batchSize int
		want      []int
	}{
		{"exact multiple", 6, 3, []int{3, 3}},
		{"remainder", 7, 3, []int{3, 3, 1}},
		{"single batch", 2, 100, []int{2}},
		{"empty", 0, 10, nil},
		{"default batch size", 5, 0, []int{5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := &mockTarget{}
			n, err := seed(context.Background(), target, sampleVendors(tc.count), tc.batchSize, false, zap.NewNop())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tc.count {
				t.Errorf("written = %d, want %d", n, tc.count)
			}
			if len(target.batches) != len(tc.want) {
				t.Fatalf("batches = %d, want %d", len(target.batches), len(tc.want))
			}
			for i, b := range target.batches {
				if len(b) != tc.want[i] {
					t.Errorf("batch %d size = %d, want %d", i, len(b), tc.want[i])
				}
			}
			if target.deleted {
				t.Error("store must not be reset without -reset")
			}
		})
	}
}

func TestSeed_Reset(t *testing.T) {
	target := &mockTarget{}
	if _, err := seed(context.Background(), target, sampleVendors(1), 10, true, zap.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !target.deleted {
		t.Error("expected DeleteAll before loading")
	}
}

func TestSeed_UpsertError(t *testing.T) {
	want := errors.New("connection reset")
	target := &mockTarget{upsertErr: want, failAt: 1}

	n, err := seed(context.Background(), target, sampleVendors(5), 2, false, zap.NewNop())
	if !errors.Is(err, want) {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if n != 2 {
		t.Errorf("written = %d, want 2", n)
	}
}

func TestSeed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seed(ctx, &mockTarget{}, sampleVendors(3), 1, false, zap.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
