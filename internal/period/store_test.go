package period

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/notify"
)

// memPersister keeps the document in memory. Load and Save copy so callers
// can never share state with it.
type memPersister struct {
	doc   *domain.Document
	saves int
}

func (m *memPersister) Load() (*domain.Document, error) {
	if m.doc == nil {
		return domain.NewDocument(), nil
	}
	return m.doc.Clone()
}

func (m *memPersister) Save(doc *domain.Document) error {
	c, err := doc.Clone()
	if err != nil {
		return err
	}
	m.doc = c
	m.saves++
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	fail   bool
}

func (r *recordingNotifier) Notify(_ context.Context, title, _ string) notify.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	if r.fail {
		return notify.Result{Err: errors.New("relay down")}
	}
	return notify.Result{Success: true}
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// twoHouseholds seeds wg1 (alice, bob) and wg2 (carol), each with tasks and
// one live execution per member.
func twoHouseholds() *domain.Document {
	doc := domain.NewDocument()
	doc.CurrentWG = "wg1"
	doc.Households["wg1"] = domain.Household{ID: "wg1", Name: "One", MemberIDs: []string{"alice", "bob"}}
	doc.Households["wg2"] = domain.Household{ID: "wg2", Name: "Two", MemberIDs: []string{"carol"}}
	doc.Users["alice"] = domain.User{ID: "alice", Name: "Alice", TargetMonthlyPoints: 40, Points: 10, TasksCompleted: 1}
	doc.Users["bob"] = domain.User{ID: "bob", Name: "Bob", TargetMonthlyPoints: 60, Points: 20, TasksCompleted: 1}
	doc.Users["carol"] = domain.User{ID: "carol", Name: "Carol", Points: 5, TasksCompleted: 1}
	doc.Tasks["kitchen"] = domain.Task{ID: "kitchen", WGID: "wg1", Title: "Kitchen", PointsPerExecution: 10}
	doc.Tasks["bath"] = domain.Task{ID: "bath", WGID: "wg1", Title: "Bath", PointsPerExecution: 20, IsAlarmed: true}
	doc.Tasks["trash"] = domain.Task{ID: "trash", WGID: "wg2", Title: "Trash", PointsPerExecution: 5}
	doc.Executions["e1"] = domain.Execution{ID: "e1", TaskID: "kitchen", ExecutedBy: "alice", ExecutedAt: fixedNow.Add(-48 * time.Hour), PointsAwarded: 10}
	doc.Executions["e2"] = domain.Execution{ID: "e2", TaskID: "bath", ExecutedBy: "bob", ExecutedAt: fixedNow.Add(-24 * time.Hour), PointsAwarded: 20}
	doc.Executions["e3"] = domain.Execution{ID: "e3", TaskID: "trash", ExecutedBy: "carol", ExecutedAt: fixedNow.Add(-24 * time.Hour), PointsAwarded: 5}
	return doc
}

func newTestStore(t *testing.T, doc *domain.Document, opts ...Option) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{doc: doc}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(p, opts...), p
}

func activeCount(ps []domain.Period) int {
	n := 0
	for _, p := range ps {
		if p.IsActive {
			n++
		}
	}
	return n
}

func TestSetPeriod_CreatesActive(t *testing.T) {
	n := &recordingNotifier{}
	s, p := newTestStore(t, twoHouseholds(), WithNotifier(n))

	got, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	if err != nil {
		t.Fatalf("SetPeriod: %v", err)
	}
	if !got.IsActive || got.ID == "" || got.HouseholdID != "wg1" {
		t.Errorf("period = %+v", got)
	}
	if want := time.Date(2026, 3, 31, 23, 59, 59, 999e6, time.UTC); !got.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want end of day %v", got.EndDate, want)
	}
	if got.TargetPoints != 100 {
		t.Errorf("TargetPoints = %d, want sum of member targets 100", got.TargetPoints)
	}
	if p.doc.CurrentPeriod == nil || p.doc.CurrentPeriod.ID != got.ID {
		t.Errorf("current period mirror not updated")
	}
	if len(n.titles) != 1 || n.titles[0] != NewPeriodTitle {
		t.Errorf("notifications = %v", n.titles)
	}
}

func TestSetPeriod_TargetPrecedence(t *testing.T) {
	s, _ := newTestStore(t, twoHouseholds(), WithTargetPoints(250), WithDefaultTarget(7))
	got, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetPoints != 250 {
		t.Errorf("explicit target ignored: %d", got.TargetPoints)
	}

	doc := twoHouseholds()
	doc.CurrentWG = "wg2"
	s, _ = newTestStore(t, doc, WithDefaultTarget(7))
	got, err = s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetPoints != 7 {
		t.Errorf("default target not used when members have none: %d", got.TargetPoints)
	}
}

func TestSetPeriod_Validation(t *testing.T) {
	s, p := newTestStore(t, twoHouseholds())
	before := p.saves

	_, err := s.SetPeriod(date(2026, 3, 10), date(2026, 3, 1), false)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Fields["End"] != "gtfield" {
		t.Errorf("fields = %v", ve.Fields)
	}

	_, err = s.SetPeriod(time.Time{}, date(2026, 3, 1), false)
	if !errors.As(err, &ve) || ve.Fields["Start"] != "required" {
		t.Errorf("zero start: err = %v", err)
	}
	if p.saves != before {
		t.Errorf("validation failure saved state")
	}
}

func TestSetPeriod_SingleDayIsValid(t *testing.T) {
	s, _ := newTestStore(t, twoHouseholds())
	if _, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 1), false); err != nil {
		t.Fatalf("single-day period rejected: %v", err)
	}
}

func TestSetPeriod_NoHousehold(t *testing.T) {
	doc := twoHouseholds()
	doc.CurrentWG = ""
	s, p := newTestStore(t, doc)
	if _, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false); !errors.Is(err, ErrNoHousehold) {
		t.Fatalf("err = %v, want ErrNoHousehold", err)
	}
	if p.saves != 0 {
		t.Errorf("state saved without household")
	}
}

func TestSetPeriod_ArchivesBeforeReset(t *testing.T) {
	s, p := newTestStore(t, twoHouseholds())
	first, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.SetPeriod(date(2026, 4, 1), date(2026, 4, 30), true); err != nil {
		t.Fatal(err)
	}

	ps, err := s.HistoricalPeriods(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].ID != first.ID {
		t.Fatalf("history = %+v", ps)
	}
	sum := ps[0].Summary
	if ps[0].Status() != domain.StatusArchived || sum == nil {
		t.Fatalf("first period not archived: %+v", ps[0])
	}
	if sum.TotalPoints != 30 || sum.TotalExecutions != 2 {
		t.Errorf("summary = %+v, want 30 points / 2 executions frozen before reset", sum)
	}
	memberPoints := 0
	for _, m := range sum.Members {
		memberPoints += m.Points
		if m.UserID == "alice" && m.Achievement != 10 {
			t.Errorf("alice achievement = %v, want 10 (10/100)", m.Achievement)
		}
	}
	if memberPoints != sum.TotalPoints {
		t.Errorf("member points %d != total %d", memberPoints, sum.TotalPoints)
	}

	// Reset cleared wg1 only.
	if _, ok := p.doc.Executions["e3"]; !ok {
		t.Error("reset removed another household's execution")
	}
	if _, ok := p.doc.Executions["e1"]; ok {
		t.Error("reset kept wg1 execution")
	}
	if p.doc.Users["alice"].Points != 0 || p.doc.Users["carol"].Points != 5 {
		t.Errorf("counters: alice=%d carol=%d", p.doc.Users["alice"].Points, p.doc.Users["carol"].Points)
	}
}

func TestSetPeriod_TwiceArchivesOnce(t *testing.T) {
	s, _ := newTestStore(t, twoHouseholds())
	if _, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPeriod(date(2026, 4, 1), date(2026, 4, 30), false); err != nil {
		t.Fatal(err)
	}
	ps, err := s.HistoricalPeriods(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d periods, want 2", len(ps))
	}
	if activeCount(ps) != 1 {
		t.Errorf("active periods = %d, want 1", activeCount(ps))
	}
	archived := 0
	for _, p := range ps {
		if p.Status() == domain.StatusArchived {
			archived++
		}
	}
	if archived != 1 {
		t.Errorf("archived periods = %d, want 1", archived)
	}
	if !ps[0].StartDate.Equal(date(2026, 4, 1)) {
		t.Errorf("history not newest first: %v", ps[0].StartDate)
	}
}

func TestSetPeriod_SameRangeTwiceArchivesOnce(t *testing.T) {
	for _, reset := range []bool{false, true} {
		s, p := newTestStore(t, twoHouseholds())
		first, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
		if err != nil {
			t.Fatal(err)
		}
		second, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), reset)
		if err != nil {
			t.Fatal(err)
		}

		past, err := s.HistoricalPeriods(false)
		if err != nil {
			t.Fatal(err)
		}
		if len(past) != 1 || past[0].ID != first.ID {
			t.Fatalf("reset=%v: past = %+v, want only %s", reset, past, first.ID)
		}
		if past[0].Summary == nil || past[0].Summary.TotalPoints != 30 {
			t.Errorf("reset=%v: frozen summary = %+v, want 30 points", reset, past[0].Summary)
		}
		active, err := s.ActivePeriod()
		if err != nil || active.ID != second.ID {
			t.Errorf("reset=%v: active = %+v, %v", reset, active, err)
		}

		if _, err := s.SetPeriod(date(2026, 4, 1), date(2026, 4, 30), false); err != nil {
			t.Fatal(err)
		}
		n := 0
		for _, q := range p.doc.Periods["wg1"] {
			if q.ID == first.ID {
				n++
				if q.Summary == nil || q.Summary.TotalPoints != 30 {
					t.Errorf("reset=%v: persisted summary = %+v", reset, q.Summary)
				}
			}
		}
		if n != 1 {
			t.Errorf("reset=%v: first period persisted %d times, want 1", reset, n)
		}
		if all, _ := s.HistoricalPeriods(true); len(all) != 3 || activeCount(all) != 1 {
			t.Errorf("reset=%v: got %d periods with %d active, want 3 with 1", reset, len(all), activeCount(all))
		}
	}
}

func TestArchivePeriod_Pure(t *testing.T) {
	doc := twoHouseholds()
	in := domain.Period{ID: "p", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 31), IsActive: true}
	out := ArchivePeriod(in, "wg1", doc, fixedNow)

	if !in.IsActive || in.Summary != nil || in.ArchivedAt != nil {
		t.Errorf("input mutated: %+v", in)
	}
	if out.IsActive || out.Summary == nil || out.ArchivedAt == nil {
		t.Fatalf("output not archived: %+v", out)
	}
	// No period target: member targets are used (alice 10/40).
	for _, m := range out.Summary.Members {
		if m.UserID == "alice" && m.Achievement != 25 {
			t.Errorf("alice achievement = %v, want 25", m.Achievement)
		}
	}
	if out.Summary.DistinctTasks != 2 {
		t.Errorf("DistinctTasks = %d", out.Summary.DistinctTasks)
	}
}

func TestArchivePeriod_RespectsPeriodBinding(t *testing.T) {
	doc := twoHouseholds()
	// e1 falls inside the window but belongs to another period.
	e := doc.Executions["e1"]
	e.PeriodID = "other"
	doc.Executions["e1"] = e

	p := domain.Period{ID: "p", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 31), IsActive: true}
	out := ArchivePeriod(p, "wg1", doc, fixedNow)
	if out.Summary.TotalPoints != 20 {
		t.Errorf("TotalPoints = %d, want 20", out.Summary.TotalPoints)
	}
}

func TestResetForNewPeriod_Isolation(t *testing.T) {
	doc := twoHouseholds()
	removed := ResetForNewPeriod(doc, "wg2")
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(doc.Executions) != 2 {
		t.Errorf("wg1 executions touched: %v", doc.Executions)
	}
	if doc.Users["bob"].Points != 20 || doc.Users["carol"].TasksCompleted != 0 {
		t.Errorf("counters: bob=%d carol tasks=%d", doc.Users["bob"].Points, doc.Users["carol"].TasksCompleted)
	}
}

func TestDeletePeriod(t *testing.T) {
	s, p := newTestStore(t, twoHouseholds())
	active, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	if err != nil {
		t.Fatal(err)
	}
	s.SetDisplayPeriod(&active.ID)

	if err := s.DeletePeriod(active.ID); err != nil {
		t.Fatal(err)
	}
	if s.DisplayPeriod() != nil {
		t.Error("display pointer should be cleared")
	}
	if p.doc.CurrentPeriod != nil {
		t.Error("deleting the active period should clear the current period")
	}
	saves := p.saves
	if err := s.DeletePeriod(active.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := s.DeletePeriod("never-existed"); err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if p.saves != saves {
		t.Error("no-op delete saved state")
	}
	if _, err := s.ActivePeriod(); !errors.Is(err, ErrNoActivePeriod) {
		t.Errorf("ActivePeriod err = %v", err)
	}
}

func TestDisplayPointer(t *testing.T) {
	s, p := newTestStore(t, twoHouseholds())
	first, _ := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	second, _ := s.SetPeriod(date(2026, 4, 1), date(2026, 4, 30), false)
	saves := p.saves

	if v, err := s.ViewPeriod(); err != nil || v.ID != second.ID {
		t.Fatalf("default view = %v, %v", v.ID, err)
	}
	s.SetDisplayPeriod(&first.ID)
	v, err := s.ViewPeriod()
	if err != nil || v.ID != first.ID || v.Status() != domain.StatusArchived {
		t.Fatalf("display view = %+v, %v", v, err)
	}
	if a, _ := s.ActivePeriod(); a.ID != second.ID {
		t.Error("display pointer changed the active period")
	}
	missing := "gone"
	s.SetDisplayPeriod(&missing)
	if v, _ := s.ViewPeriod(); v.ID != second.ID {
		t.Error("dangling display pointer should fall back to active")
	}
	s.SetDisplayPeriod(nil)
	if s.DisplayPeriod() != nil {
		t.Error("display pointer not cleared")
	}
	if p.saves != saves {
		t.Error("display pointer changes must not persist")
	}
}

func TestHistoricalPeriods_ReconcilesMirror(t *testing.T) {
	doc := twoHouseholds()
	live := domain.Period{ID: "live", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 31), IsActive: true}
	stale := live
	stale.ID = "stale-copy"
	stale.IsActive = false
	doc.CurrentPeriod = &live
	doc.Periods["wg1"] = []domain.Period{
		stale,
		{ID: "jan", StartDate: date(2026, 1, 1), EndDate: date(2026, 1, 31)},
	}
	s, _ := newTestStore(t, doc)

	ps, err := s.HistoricalPeriods(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d periods, want 2: %+v", len(ps), ps)
	}
	if ps[0].ID != "live" || !ps[0].IsActive {
		t.Errorf("active copy should win dedupe: %+v", ps[0])
	}
	past, _ := s.HistoricalPeriods(false)
	if len(past) != 1 || past[0].ID != "jan" || past[0].Status() != domain.StatusLegacy {
		t.Errorf("past = %+v", past)
	}
}

func TestRecordExecution(t *testing.T) {
	n := &recordingNotifier{}
	s, p := newTestStore(t, twoHouseholds(), WithNotifier(n))

	if _, err := s.RecordExecution("kitchen", "alice", time.Time{}, 0); !errors.Is(err, ErrNoActivePeriod) {
		t.Fatalf("err = %v, want ErrNoActivePeriod", err)
	}
	active, _ := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)
	n.titles = nil

	e, err := s.RecordExecution("kitchen", "alice", time.Time{}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if e.PeriodID != active.ID || e.PointsAwarded != 15 || !e.ExecutedAt.Equal(fixedNow) {
		t.Errorf("execution = %+v", e)
	}
	if u := p.doc.Users["alice"]; u.Points != 25 || u.TasksCompleted != 2 {
		t.Errorf("alice counters = %+v", u)
	}
	if !aggregate.IsHot(e, p.doc.Tasks) || len(n.titles) != 1 || n.titles[0] != "Kitchen" {
		t.Errorf("bonus completion should notify once: %v", n.titles)
	}

	if _, err := s.RecordExecution("trash", "alice", time.Time{}, 0); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("other household's task: err = %v", err)
	}
	if _, err := s.RecordExecution("kitchen", "nobody", time.Time{}, 0); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("unknown user: err = %v", err)
	}
	if _, err := s.RecordExecution("kitchen", "carol", time.Time{}, 0); !errors.Is(err, ErrNotMember) {
		t.Errorf("other household's member: err = %v", err)
	}
	if u := p.doc.Users["carol"]; u.Points != 5 || u.TasksCompleted != 1 {
		t.Errorf("carol counters changed: %+v", u)
	}
	var ve *ValidationError
	if _, err := s.RecordExecution("kitchen", "alice", time.Time{}, -1); !errors.As(err, &ve) {
		t.Errorf("negative bonus: err = %v", err)
	}
}

func TestNotificationFailureDoesNotFail(t *testing.T) {
	n := &recordingNotifier{fail: true}
	s, _ := newTestStore(t, twoHouseholds(), WithNotifier(n))
	if _, err := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false); err != nil {
		t.Fatalf("notification failure leaked: %v", err)
	}
	if _, err := s.RecordExecution("bath", "bob", time.Time{}, 0); err != nil {
		t.Fatalf("notification failure leaked: %v", err)
	}
	if len(n.titles) != 2 {
		t.Errorf("attempts = %v", n.titles)
	}
}

func TestSelectHousehold(t *testing.T) {
	s, p := newTestStore(t, twoHouseholds())
	wg1Period, _ := s.SetPeriod(date(2026, 3, 1), date(2026, 3, 31), false)

	if err := s.SelectHousehold("missing"); !errors.Is(err, ErrUnknownHousehold) {
		t.Fatalf("err = %v", err)
	}
	if err := s.SelectHousehold("wg2"); err != nil {
		t.Fatal(err)
	}
	if p.doc.CurrentWG != "wg2" || p.doc.CurrentPeriod != nil {
		t.Errorf("after switch: wg=%s current=%v", p.doc.CurrentWG, p.doc.CurrentPeriod)
	}
	if _, err := s.ActivePeriod(); !errors.Is(err, ErrNoActivePeriod) {
		t.Errorf("wg2 should have no active period: %v", err)
	}

	if err := s.SelectHousehold("wg1"); err != nil {
		t.Fatal(err)
	}
	a, err := s.ActivePeriod()
	if err != nil || a.ID != wg1Period.ID {
		t.Errorf("wg1 active period lost across switch: %v %v", a.ID, err)
	}
}

func TestImport(t *testing.T) {
	s, p := newTestStore(t, nil)
	rep, err := s.Import(ImportData{
		Households: []domain.Household{{ID: "wg1", Name: "One", MemberIDs: []string{"alice"}}},
		Users:      []domain.User{{ID: "alice", Name: "Alice"}},
		Tasks:      []domain.Task{{ID: "kitchen", Title: "Kitchen", PointsPerExecution: 10}},
		Executions: []domain.Execution{{TaskID: "kitchen", ExecutedBy: "alice", ExecutedAt: fixedNow, PointsAwarded: 10}},
		Periods: []RawPeriod{
			{"id": "jan", "from": "2026-01-01", "to": "2026-01-31", "active": true},
			{"id": "feb", "start": "2026-02-01", "end": "2026-02-28", "isActive": true},
			{"id": "bad", "start": "nope", "end": "2026-02-28"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Households != 1 || rep.Users != 1 || rep.Tasks != 1 || rep.Executions != 1 || rep.Periods != 2 || len(rep.Warnings) != 1 {
		t.Errorf("report = %+v", rep)
	}
	if p.doc.CurrentWG != "wg1" {
		t.Errorf("single household should be selected, got %q", p.doc.CurrentWG)
	}
	if p.doc.Tasks["kitchen"].WGID != "wg1" {
		t.Errorf("task household not defaulted")
	}

	ps, err := s.HistoricalPeriods(true)
	if err != nil {
		t.Fatal(err)
	}
	if activeCount(ps) != 1 {
		t.Fatalf("active = %d, want 1", activeCount(ps))
	}
	if a, _ := s.ActivePeriod(); a.ID != "feb" {
		t.Errorf("latest imported active period should win, got %s", a.ID)
	}
}

func TestImport_CurrentPeriodProducer(t *testing.T) {
	s, _ := newTestStore(t, twoHouseholds())
	_, err := s.Import(ImportData{
		CurrentPeriod: RawPeriod{"period_id": "cur", "start_at": "2026-03-01", "end_at": "2026-03-31"},
		Periods: []RawPeriod{
			{"id": "cur-old", "startDate": "2026-03-01", "endDate": "2026-03-31"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.ActivePeriod()
	if err != nil || a.ID != "cur" {
		t.Fatalf("active = %+v, %v", a, err)
	}
	ps, _ := s.HistoricalPeriods(true)
	if len(ps) != 1 {
		t.Errorf("duplicate range should collapse: %+v", ps)
	}
}
