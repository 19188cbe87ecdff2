package period

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/putzplan/putz/internal/domain"
)

// RawPeriod is a period record as delivered by some producer: the live
// in-memory view, a persisted history list, or an import file. Field names
// vary between producers and are resolved through fieldAliases.
type RawPeriod map[string]any

// Warning describes a raw record that Normalize skipped.
type Warning struct {
	Index  int
	ID     string
	Reason string
}

func (w Warning) String() string {
	if w.ID != "" {
		return fmt.Sprintf("period %s (#%d): %s", w.ID, w.Index, w.Reason)
	}
	return fmt.Sprintf("period #%d: %s", w.Index, w.Reason)
}

// Canonical field names, also used by ToRaw.
const (
	fieldID        = "id"
	fieldWG        = "wgId"
	fieldName      = "name"
	fieldStart     = "startDate"
	fieldEnd       = "endDate"
	fieldActive    = "isActive"
	fieldCreated   = "createdAt"
	fieldArchived  = "archivedAt"
	fieldTarget    = "targetPoints"
	fieldSummary   = "summary"
	timestampStyle = time.RFC3339Nano
)

// fieldAliases lists, per canonical field, the accepted spellings in priority
// order. The first present key wins.
var fieldAliases = map[string][]string{
	fieldID:       {"id", "periodId", "period_id"},
	fieldWG:       {"wgId", "wg_id", "householdId", "household_id"},
	fieldName:     {"name", "label", "title"},
	fieldStart:    {"startDate", "start", "start_at", "startAt", "from", "begin"},
	fieldEnd:      {"endDate", "end", "end_at", "endAt", "to", "until"},
	fieldActive:   {"isActive", "is_active", "active", "live"},
	fieldCreated:  {"createdAt", "created_at"},
	fieldArchived: {"archivedAt", "archived_at"},
	fieldTarget:   {"targetPoints", "target_points", "target"},
	fieldSummary:  {"summary"},
}

// dateLayouts are tried in order for string timestamps.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// periodNamespace seeds deterministic IDs for records that arrive without one.
var periodNamespace = uuid.MustParse("6f1c9a52-3c1e-4a8e-9b55-5d0b1f7a2c10")

// lookup returns the first present alias value for a canonical field.
func (r RawPeriod) lookup(field string) (any, bool) {
	for _, key := range fieldAliases[field] {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r RawPeriod) str(field string) string {
	v, ok := r.lookup(field)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return s.String()
	case float64:
		return fmt.Sprintf("%.0f", s)
	case int:
		return fmt.Sprintf("%d", s)
	case int64:
		return fmt.Sprintf("%d", s)
	}
	return ""
}

func (r RawPeriod) flag(field string) bool {
	v, ok := r.lookup(field)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "live", "active":
			return true
		}
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}

func (r RawPeriod) integer(field string) int {
	v, ok := r.lookup(field)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(math.Round(n))
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

func (r RawPeriod) timestamp(field string) (time.Time, bool, error) {
	v, ok := r.lookup(field)
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := parseTimestamp(v)
	return t, true, err
}

// parseTimestamp accepts time.Time, strings in dateLayouts, and JSON numbers
// as unix milliseconds.
func parseTimestamp(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, fmt.Errorf("zero time")
		}
		return x.UTC(), nil
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, fmt.Errorf("zero time")
		}
		return x.UTC(), nil
	case float64:
		return time.UnixMilli(int64(x)).UTC(), nil
	case int64:
		return time.UnixMilli(x).UTC(), nil
	case int:
		return time.UnixMilli(int64(x)).UTC(), nil
	case json.Number:
		ms, err := x.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch %q", x.String())
		}
		return time.UnixMilli(ms).UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty date")
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return time.Time{}, fmt.Errorf("unsupported date type %T", v)
}

func (r RawPeriod) summary() *domain.Summary {
	v, ok := r.lookup(fieldSummary)
	if !ok {
		return nil
	}
	if s, ok := v.(*domain.Summary); ok {
		return s
	}
	if s, ok := v.(domain.Summary); ok {
		return &s
	}
	// Arbitrary decoded JSON: round-trip into the canonical shape.
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var s domain.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	return &s
}

// Normalize converts raw period records into canonical periods. Records whose
// start or end cannot be resolved are skipped and reported as warnings; the
// rest of the batch is still converted. A record is active when explicitly
// flagged or when its id equals currentPeriodID.
func Normalize(raws []RawPeriod, currentPeriodID string) ([]domain.Period, []Warning) {
	var (
		out      []domain.Period
		warnings []Warning
	)
	for i, r := range raws {
		p, err := normalizeOne(r, currentPeriodID)
		if err != nil {
			warnings = append(warnings, Warning{Index: i, ID: r.str(fieldID), Reason: err.Error()})
			continue
		}
		out = append(out, p)
	}
	return out, warnings
}

func normalizeOne(r RawPeriod, currentPeriodID string) (domain.Period, error) {
	if r == nil {
		return domain.Period{}, fmt.Errorf("empty record")
	}
	start, ok, err := r.timestamp(fieldStart)
	if !ok {
		return domain.Period{}, fmt.Errorf("missing start date")
	}
	if err != nil {
		return domain.Period{}, fmt.Errorf("start: %w", err)
	}
	end, ok, err := r.timestamp(fieldEnd)
	if !ok {
		return domain.Period{}, fmt.Errorf("missing end date")
	}
	if err != nil {
		return domain.Period{}, fmt.Errorf("end: %w", err)
	}
	if end.Before(start) {
		return domain.Period{}, fmt.Errorf("end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	p := domain.Period{
		ID:           r.str(fieldID),
		HouseholdID:  r.str(fieldWG),
		Name:         r.str(fieldName),
		StartDate:    start,
		EndDate:      end,
		TargetPoints: r.integer(fieldTarget),
		Summary:      r.summary(),
	}
	if p.ID == "" {
		p.ID = uuid.NewSHA1(periodNamespace, []byte(rangeKey(start, end))).String()
	}
	if p.Name == "" {
		p.Name = domain.RangeLabel(start, end)
	}
	p.IsActive = r.flag(fieldActive) || (currentPeriodID != "" && p.ID == currentPeriodID)

	if created, ok, err := r.timestamp(fieldCreated); ok && err == nil {
		p.CreatedAt = created
	} else {
		p.CreatedAt = start
	}
	if archived, ok, err := r.timestamp(fieldArchived); ok && err == nil && !p.IsActive {
		p.ArchivedAt = &archived
	}
	return p, nil
}

// ToRaw renders a canonical period with canonical field names. Feeding the
// result back through Normalize yields the same period.
func ToRaw(p domain.Period) RawPeriod {
	r := RawPeriod{
		fieldID:      p.ID,
		fieldName:    p.Name,
		fieldStart:   p.StartDate.UTC().Format(timestampStyle),
		fieldEnd:     p.EndDate.UTC().Format(timestampStyle),
		fieldActive:  p.IsActive,
		fieldCreated: p.CreatedAt.UTC().Format(timestampStyle),
		fieldTarget:  p.TargetPoints,
	}
	if p.HouseholdID != "" {
		r[fieldWG] = p.HouseholdID
	}
	if p.ArchivedAt != nil {
		r[fieldArchived] = p.ArchivedAt.UTC().Format(timestampStyle)
	}
	if p.Summary != nil {
		s := *p.Summary
		r[fieldSummary] = &s
	}
	return r
}

// ToRawAll maps ToRaw over periods.
func ToRawAll(periods []domain.Period) []RawPeriod {
	out := make([]RawPeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, ToRaw(p))
	}
	return out
}

func rangeKey(start, end time.Time) string {
	return start.UTC().Format(timestampStyle) + "|" + end.UTC().Format(timestampStyle)
}

// DedupeByDate merges records of one logical period. Records sharing an id
// are the same period, and so are records sharing a (start, end) pair unless
// one of them is archived: a frozen summary is never merged into another id.
// The survivor sits at the position of the first occurrence; an active record
// replaces an inactive one, otherwise the first record wins.
func DedupeByDate(periods []domain.Period) []domain.Period {
	byID := map[string]int{}
	byRange := map[string]int{}
	out := make([]domain.Period, 0, len(periods))
	for _, p := range periods {
		key := rangeKey(p.StartDate, p.EndDate)
		i, seen := byID[p.ID]
		if !seen && p.Status() != domain.StatusArchived {
			i, seen = byRange[key]
		}
		if !seen {
			i = len(out)
			out = append(out, p)
		} else if p.IsActive && !out[i].IsActive {
			out[i] = p
		}
		if p.ID != "" {
			byID[p.ID] = i
		}
		if _, taken := byRange[key]; !taken && out[i].Status() != domain.StatusArchived {
			byRange[key] = i
		}
	}
	return out
}
