package notify

import (
	"context"
	"time"
)

// KV is the slice of the key-value store the deduplicator needs.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Daily wraps a Notifier so each title is delivered at most once per day.
// Only successful deliveries are recorded, so a failed attempt can be retried.
type Daily struct {
	next Notifier
	kv   KV
	now  func() time.Time
}

// NewDaily returns a deduplicating wrapper around next.
func NewDaily(next Notifier, kv KV) *Daily {
	return &Daily{next: next, kv: kv, now: time.Now}
}

func dedupKey(title string) string {
	return "notify:last_sent:" + title
}

// Notify implements Notifier. A suppressed duplicate reports success.
func (d *Daily) Notify(ctx context.Context, title, body string) Result {
	today := d.now().UTC().Format("2006-01-02")
	key := dedupKey(title)

	if last, ok, err := d.kv.Get(key); err == nil && ok && last == today {
		return Result{Success: true}
	}

	res := d.next.Notify(ctx, title, body)
	if !res.Success {
		return res
	}
	// Losing this write only risks one duplicate delivery.
	_ = d.kv.Set(key, today)
	return res
}
