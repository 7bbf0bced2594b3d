package httputil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestClientSharedPerTier(t *testing.T) {
	if Client(TierScan) != Client(TierScan) {
		t.Error("same tier should return the same client")
	}
	if Client(TierProbe) == Client(TierEmbed) {
		t.Error("different tiers should return different clients")
	}
	if Client(TimeoutTier(99)) != Client(TierScan) {
		t.Error("unknown tier should fall back to the scan client")
	}
}

func TestClientTimeouts(t *testing.T) {
	tests := []struct {
		tier TimeoutTier
		want time.Duration
	}{
		{TierProbe, 5 * time.Second},
		{TierScan, 10 * time.Second},
		{TierEmbed, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := Client(tt.tier).Timeout; got != tt.want {
			t.Errorf("tier %d timeout = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestReadResponseBodyLimit(t *testing.T) {
	body, err := ReadResponseBody(strings.NewReader(strings.Repeat("x", 100)), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) != 10 {
		t.Errorf("read %d bytes, want 10", len(body))
	}

	body, err = ReadResponseBody(strings.NewReader("small"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "small" {
		t.Errorf("default limit read = %q", body)
	}
}

func TestSemaphoreTryAcquire(t *testing.T) {
	s := NewSemaphore(2)

	if !s.TryAcquire() || !s.TryAcquire() {
		t.Fatal("first two acquires should succeed")
	}
	if s.TryAcquire() {
		t.Error("third acquire should fail at capacity")
	}
	if s.Stats().Dropped != 1 {
		t.Errorf("dropped = %d, want 1", s.Stats().Dropped)
	}

	s.Release()
	if !s.TryAcquire() {
		t.Error("acquire after release should succeed")
	}
}

func TestSemaphoreAcquireContext(t *testing.T) {
	s := NewSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err == nil {
		t.Error("acquire on full semaphore should fail when context expires")
	}
}

func TestSemaphoreConcurrent(t *testing.T) {
	s := NewSemaphore(10)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAcquire() {
				time.Sleep(time.Millisecond)
				s.Release()
			}
		}()
	}
	wg.Wait()

	stats := s.Stats()
	if stats.InUse != 0 {
		t.Errorf("in use after drain = %d, want 0", stats.InUse)
	}
	if stats.Available != 10 {
		t.Errorf("available = %d, want 10", stats.Available)
	}
}
