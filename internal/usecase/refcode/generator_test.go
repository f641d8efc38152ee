package refcode

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memSequencer struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memSequencer) Next(_ context.Context, prefix, datePart string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[prefix+"|"+datePart]++
	return m.counts[prefix+"|"+datePart], nil
}

func TestGenerator_Next(t *testing.T) {
	g := NewGenerator(nil)
	seq := &memSequencer{}
	day := time.Date(2025, 3, 7, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		prefix string
		at     time.Time
		want   string
	}{
		{"PR", day, "PR-20250307-001"},
		{"PR", day, "PR-20250307-002"},
		{"PO", day, "PO-20250307-001"},
		{"PR", day.Add(time.Hour), "PR-20250308-001"},
	}
	for _, tt := range tests {
		got, err := g.Next(context.Background(), seq, tt.prefix, tt.at)
		if err != nil {
			t.Fatalf("Next err: %v", err)
		}
		if got != tt.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", tt.prefix, tt.at, got, tt.want)
		}
	}
}

func TestGenerator_Location(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	g := NewGenerator(jakarta)
	at := time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC) // already the 8th in WIB
	if got := g.DatePart(at); got != "20250308" {
		t.Fatalf("DatePart = %s, want 20250308", got)
	}
}

func TestFormat_WidensPastThreeDigits(t *testing.T) {
	if got := Format("CV", "20250101", 1234); got != "CV-20250101-1234" {
		t.Fatalf("Format = %s", got)
	}
}

func TestGenerator_Errors(t *testing.T) {
	g := NewGenerator(nil)
	if _, err := g.Next(context.Background(), &memSequencer{}, "", time.Now()); err == nil {
		t.Fatal("expected error for empty prefix")
	}
	boom := errors.New("boom")
	if _, err := g.Next(context.Background(), &memSequencer{err: boom}, "PR", time.Now()); !errors.Is(err, boom) {
		t.Fatalf("want wrapped sequencer error, got %v", err)
	}
}
