package downloader

import (
	"context"
	"errors"
	"testing"
	"time"
)

// instantTimer fires immediately so tests never sleep
type instantTimer struct {
	c chan time.Time
}

func (t *instantTimer) Start(time.Duration) {
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Attempts:      attempts,
		MinDelay:      15 * time.Second,
		MaxDelay:      45 * time.Second,
		RateLimitWait: 5 * time.Minute,
		timer:         &instantTimer{},
	}
}

func TestRetryPolicy_Success(t *testing.T) {
	calls := 0
	err := testPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_RetriesNetwork(t *testing.T) {
	calls := 0
	var waits []time.Duration
	err := testPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	}, func(err *Error, wait time.Duration) {
		if err.Kind != KindNetwork {
			t.Errorf("expected network error, got %s", err.Kind)
		}
		waits = append(waits, wait)
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(waits))
	}
	for _, w := range waits {
		if w < 15*time.Second || w > 135*time.Second {
			t.Errorf("wait %s out of range", w)
		}
	}
}

func TestRetryPolicy_GivesUp(t *testing.T) {
	calls := 0
	err := testPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("network is unreachable")
	}, nil)

	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	var classified *Error
	if !errors.As(err, &classified) || classified.Kind != KindNetwork {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestRetryPolicy_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := testPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("This video is private")
	}, nil)

	if calls != 1 {
		t.Errorf("expected no retry for private video, got %d calls", calls)
	}

	var classified *Error
	if !errors.As(err, &classified) || classified.Kind != KindPrivate {
		t.Errorf("expected private error, got %v", err)
	}
}

func TestRetryPolicy_RateLimitWait(t *testing.T) {
	calls := 0
	var waits []time.Duration
	err := testPolicy(2).Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("HTTP Error 429: Too Many Requests")
		}
		return nil
	}, func(_ *Error, wait time.Duration) {
		waits = append(waits, wait)
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waits) != 1 || waits[0] != 5*time.Minute {
		t.Errorf("expected a single 5m wait, got %v", waits)
	}
}

func TestRetryPolicy_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := testPolicy(5).Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	}, nil)

	if calls != 1 {
		t.Errorf("expected to stop after cancel, got %d calls", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetryPolicy_ZeroAttempts(t *testing.T) {
	calls := 0
	_ = testPolicy(0).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("timeout")
	}, nil)

	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}
