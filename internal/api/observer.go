package api

import (
	"context"
	"time"
)

// Observer receives transport events for metrics
type Observer interface {
	RequestFinished(ctx context.Context, name, method string, status int, duration time.Duration, err error)
	RefreshAttempted(ctx context.Context, success bool)
	BreakerStateChanged(from, to string)
	Throttled(ctx context.Context, group string, wait time.Duration)
}

type nopObserver struct{}

func (nopObserver) RequestFinished(context.Context, string, string, int, time.Duration, error) {}
func (nopObserver) RefreshAttempted(context.Context, bool)                                     {}
func (nopObserver) BreakerStateChanged(string, string)                                         {}
func (nopObserver) Throttled(context.Context, string, time.Duration)                           {}
