package stats

import "context"

type trackerKeyType struct{}

var trackerKey = trackerKeyType{}

// WithTracker returns a context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey, t)
}

// FromContext returns the tracker attached to ctx, if any.
func FromContext(ctx context.Context) (*Tracker, bool) {
	t, ok := ctx.Value(trackerKey).(*Tracker)
	return t, ok
}
