package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/putzplan/putz/internal/domain"
)

// DefaultCacheSize bounds the number of memoized views.
const DefaultCacheSize = 64

type cacheKey struct {
	inputs   uint64
	periodID string
	userID   string
	// zone is the location name plus the local day for user views.
	zone string
}

// Cache memoizes analytics views keyed by a hash of their inputs and the
// period they were computed for. It never invalidates on its own: a change
// in executions, tasks or users changes the hash and misses.
type Cache struct {
	overall *lru.Cache[cacheKey, Overall]
	users   *lru.Cache[cacheKey, UserAnalytics]
	hits    int
	misses  int
}

// NewCache returns a cache holding up to size entries per view.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	overall, err := lru.New[cacheKey, Overall](size)
	if err != nil {
		return nil, fmt.Errorf("creating overall cache: %w", err)
	}
	users, err := lru.New[cacheKey, UserAnalytics](size)
	if err != nil {
		return nil, fmt.Errorf("creating user cache: %w", err)
	}
	return &Cache{overall: overall, users: users}, nil
}

// Overall returns the memoized overview for p, computing it on a miss.
func (c *Cache) Overall(p domain.Period, execs []domain.Execution, tasks map[string]domain.Task, users []domain.User) Overall {
	key := cacheKey{inputs: InputsHash(execs, tasks, users, time.Time{}), periodID: periodKey(p)}
	if v, ok := c.overall.Get(key); ok {
		c.hits++
		return v
	}
	c.misses++
	v := OverallForPeriod(p, execs, tasks, users)
	c.overall.Add(key, v)
	return v
}

// User returns the memoized UserForPeriod breakdown. Streaks and "this
// month" depend on the current day in loc, so that day is part of the key.
func (c *Cache) User(p domain.Period, userID string, user *domain.User, history []domain.Execution, tasks map[string]domain.Task, now time.Time, loc *time.Location) UserAnalytics {
	if loc == nil {
		loc = time.UTC
	}
	var users []domain.User
	if user != nil {
		users = []domain.User{*user}
	}
	key := cacheKey{
		inputs:   InputsHash(history, tasks, users, now),
		periodID: periodKey(p),
		userID:   userID,
		zone:     loc.String() + "|" + now.In(loc).Format("2006-01-02"),
	}
	if v, ok := c.users.Get(key); ok {
		c.hits++
		return v
	}
	c.misses++
	v := UserForPeriod(p, userID, user, history, tasks, now, loc)
	c.users.Add(key, v)
	return v
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// periodKey distinguishes an archived snapshot from a live view of the same
// period id.
func periodKey(p domain.Period) string {
	return p.ID + ":" + string(p.Status())
}

// InputsHash fingerprints the inputs of an analytics computation. Map
// iteration order does not affect the result.
func InputsHash(execs []domain.Execution, tasks map[string]domain.Task, users []domain.User, now time.Time) uint64 {
	h := xxhash.New()
	for _, e := range execs {
		_, _ = h.WriteString(e.ID)
		_, _ = h.WriteString(e.TaskID)
		_, _ = h.WriteString(e.ExecutedBy)
		_, _ = h.WriteString(e.PeriodID)
		_, _ = h.WriteString(strconv.FormatInt(e.ExecutedAt.UnixNano(), 36))
		_, _ = h.WriteString(strconv.Itoa(e.PointsAwarded))
		_, _ = h.Write([]byte{0})
	}

	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := tasks[id]
		_, _ = h.WriteString(id)
		_, _ = h.WriteString(t.Title)
		_, _ = h.WriteString(strconv.Itoa(t.PointsPerExecution))
		_, _ = h.WriteString(strconv.FormatBool(t.IsAlarmed))
		_, _ = h.Write([]byte{1})
	}

	for _, u := range users {
		_, _ = h.WriteString(u.ID)
		_, _ = h.WriteString(u.Name)
		_, _ = h.WriteString(strconv.Itoa(u.TargetMonthlyPoints))
		_, _ = h.Write([]byte{2})
	}

	if !now.IsZero() {
		_, _ = h.WriteString(now.UTC().Format("2006-01-02"))
	}
	return h.Sum64()
}
