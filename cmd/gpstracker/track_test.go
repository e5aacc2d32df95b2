package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type flakyConn struct {
	mu    sync.Mutex
	fails int // failures before the first success; <0 never succeeds
	calls int
}

func (f *flakyConn) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fails < 0 || f.calls <= f.fails {
		return errors.New("port busy")
	}
	return nil
}

func (f *flakyConn) Close() error { return nil }

func (f *flakyConn) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func withFastRetry(t *testing.T) {
	t.Helper()
	base, ceiling := retryBaseDelay, retryMaxDelay
	retryBaseDelay, retryMaxDelay = time.Millisecond, 4*time.Millisecond
	t.Cleanup(func() { retryBaseDelay, retryMaxDelay = base, ceiling })
}

func TestConnectWithRetry(t *testing.T) {
	withFastRetry(t)

	tests := []struct {
		name      string
		fails     int
		timeout   time.Duration
		connected bool
		minCalls  int
	}{
		{"first try", 0, time.Second, true, 1},
		{"fails twice", 2, time.Second, true, 3},
		{"past max attempts", 5, time.Second, true, 6},
		{"never connects", -1, 50 * time.Millisecond, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()

			c := &flakyConn{fails: tt.fails}
			done := make(chan bool, 1)
			go func() { done <- connectWithRetry(ctx, "test", c, 3) }()

			select {
			case got := <-done:
				if got != tt.connected {
					t.Errorf("connected = %v, want %v", got, tt.connected)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("connectWithRetry did not return")
			}
			if tt.connected && c.Calls() != tt.minCalls {
				t.Errorf("calls = %d, want %d", c.Calls(), tt.minCalls)
			}
			if !tt.connected && c.Calls() < tt.minCalls {
				t.Errorf("calls = %d, want at least %d", c.Calls(), tt.minCalls)
			}
		})
	}
}

func TestConnectWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &flakyConn{}
	if connectWithRetry(ctx, "test", c, 3) {
		t.Error("connected after cancel")
	}
	if c.Calls() != 0 {
		t.Errorf("calls = %d, want none once ctx is done", c.Calls())
	}
}
