package period

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/logging"
	"github.com/putzplan/putz/internal/notify"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// NewPeriodTitle is the notification title sent when a period starts.
const NewPeriodTitle = "Neuer Zeitraum"

// Persister loads and saves the whole document. Load must return a copy the
// caller may mutate freely.
type Persister interface {
	Load() (*domain.Document, error)
	Save(doc *domain.Document) error
}

// Store owns every mutation of periods and the live execution data tied to
// them. Each operation loads the document, mutates it and saves it whole.
type Store struct {
	persister     Persister
	now           func() time.Time
	log           logrus.FieldLogger
	notifier      notify.Notifier
	targetPoints  int
	defaultTarget int
	validate      *validator.Validate

	mu      sync.Mutex
	display *string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithNotifier sets the sink for period and hot-task notifications.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithTargetPoints fixes the target of newly created periods.
func WithTargetPoints(n int) Option {
	return func(s *Store) { s.targetPoints = n }
}

// WithDefaultTarget is the target used when neither WithTargetPoints nor
// the members' monthly targets provide one.
func WithDefaultTarget(n int) Option {
	return func(s *Store) { s.defaultTarget = n }
}

// WithValidator shares a validator instance.
func WithValidator(v *validator.Validate) Option {
	return func(s *Store) { s.validate = v }
}

// NewStore returns a Store persisting through p.
func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		now:       time.Now,
		log:       logging.Discard(),
		notifier:  notify.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validate == nil {
		s.validate = validator.New()
	}
	return s
}

type periodInput struct {
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required,gtfield=Start"`
}

type executionInput struct {
	TaskID string `validate:"required"`
	UserID string `validate:"required"`
	Bonus  int    `validate:"gte=0"`
}

// load reads the document and resolves the selected household.
func (s *Store) load() (*domain.Document, string, error) {
	doc, err := s.persister.Load()
	if err != nil {
		return nil, "", fmt.Errorf("loading state: %w", err)
	}
	doc.EnsureDefaults()
	if doc.CurrentWG == "" {
		return doc, "", ErrNoHousehold
	}
	return doc, doc.CurrentWG, nil
}

func (s *Store) save(doc *domain.Document) error {
	if err := s.persister.Save(doc); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// periods merges the live current period and the stored list of wg through
// the normalizer. The result is in stored order with duplicates removed.
func (s *Store) periods(doc *domain.Document, wg string) []domain.Period {
	var (
		raws      []RawPeriod
		currentID string
	)
	if cp := doc.CurrentPeriod; cp != nil && doc.CurrentWG == wg && (cp.HouseholdID == "" || cp.HouseholdID == wg) {
		raws = append(raws, ToRaw(*cp))
		currentID = cp.ID
	}
	raws = append(raws, ToRawAll(doc.Periods[wg])...)

	ps, warnings := Normalize(raws, currentID)
	for _, w := range warnings {
		s.log.WithFields(logrus.Fields{"module": "period", "household": wg}).Warn("skipping period: " + w.String())
	}
	for i := range ps {
		if ps[i].HouseholdID == "" {
			ps[i].HouseholdID = wg
		}
	}
	return DedupeByDate(ps)
}

// commit writes ps back as wg's canonical list and refreshes the
// current-period mirror when wg is the selected household.
func (s *Store) commit(doc *domain.Document, wg string, ps []domain.Period) {
	doc.Periods[wg] = ps
	if doc.CurrentWG != wg {
		return
	}
	doc.CurrentPeriod = nil
	for _, p := range ps {
		if p.IsActive {
			cp := p
			doc.CurrentPeriod = &cp
			break
		}
	}
}

func activeOf(ps []domain.Period) (domain.Period, bool) {
	for _, p := range ps {
		if p.IsActive {
			return p, true
		}
	}
	return domain.Period{}, false
}

// endOfDay extends a bare date to the last millisecond of that day so the
// inclusive end covers the whole day.
func endOfDay(t time.Time) time.Time {
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	return t.Add(24*time.Hour - time.Millisecond)
}

// SetPeriod starts a new active period for the selected household. Any
// active period is archived first. With reset, the household's live
// executions and member counters are cleared after archiving.
func (s *Store) SetPeriod(start, end time.Time, reset bool) (domain.Period, error) {
	in := periodInput{Start: start.UTC(), End: end.UTC()}
	if !in.End.IsZero() {
		in.End = endOfDay(in.End)
	}
	if err := s.validate.Struct(in); err != nil {
		return domain.Period{}, validationError(err)
	}

	doc, wg, err := s.load()
	if err != nil {
		return domain.Period{}, err
	}
	now := s.now().UTC()

	ps := s.periods(doc, wg)
	for i, p := range ps {
		if p.IsActive {
			ps[i] = ArchivePeriod(p, wg, doc, now)
			s.log.WithFields(logrus.Fields{"module": "period", "period": p.ID}).Info("archived period")
		}
	}
	if reset {
		removed := ResetForNewPeriod(doc, wg)
		s.log.WithFields(logrus.Fields{"module": "period", "household": wg, "removed": removed}).Info("reset household")
	}

	np := domain.Period{
		ID:           uuid.NewString(),
		HouseholdID:  wg,
		Name:         domain.RangeLabel(in.Start, in.End),
		StartDate:    in.Start,
		EndDate:      in.End,
		IsActive:     true,
		CreatedAt:    now,
		TargetPoints: s.targetFor(doc, wg),
	}
	s.commit(doc, wg, append(ps, np))

	if err := s.save(doc); err != nil {
		return domain.Period{}, err
	}

	s.send(NewPeriodTitle, fmt.Sprintf("%s (Ziel: %d Punkte)", np.Label(), np.TargetPoints))
	return np, nil
}

func (s *Store) targetFor(doc *domain.Document, wg string) int {
	if s.targetPoints > 0 {
		return s.targetPoints
	}
	sum := lo.SumBy(doc.Members(wg), func(u domain.User) int { return u.TargetMonthlyPoints })
	if sum > 0 {
		return sum
	}
	return s.defaultTarget
}

// send delivers a notification and logs failures. It never fails the caller.
func (s *Store) send(title, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), notify.DefaultTimeout)
	defer cancel()
	res := s.notifier.Notify(ctx, title, body)
	if !res.Success {
		err := res.Err
		if err == nil {
			err = fmt.Errorf("notification not delivered")
		}
		logging.LogError(s.log, "period", "send", "notification failed", title, err)
	}
}

// ArchivePeriod returns a closed copy of p carrying a summary frozen from the
// household's executions that belong to p. p itself is left untouched.
//
// Member achievement is points against the period target; when the period
// has none, the member's own monthly target is used.
func ArchivePeriod(p domain.Period, household string, doc *domain.Document, now time.Time) domain.Period {
	execs := aggregate.Filter(doc.HouseholdExecutions(household), aggregate.BoundsOf(p))
	members := doc.Members(household)
	res := aggregate.Aggregate(execs, doc.HouseholdTasks(household), members, nil)
	targets := lo.SliceToMap(members, func(u domain.User) (string, int) { return u.ID, u.TargetMonthlyPoints })

	summary := domain.Summary{
		TotalExecutions: res.TotalTasks,
		TotalPoints:     res.TotalPoints,
		DistinctTasks:   aggregate.DistinctTasks(execs),
		FrozenAt:        now.UTC(),
	}
	for _, us := range res.PerUser {
		target := p.TargetPoints
		if target <= 0 {
			target = targets[us.UserID]
		}
		summary.Members = append(summary.Members, domain.MemberSummary{
			UserID:      us.UserID,
			Points:      us.TotalPoints,
			Executions:  us.TotalTasks,
			Achievement: aggregate.PercentOneDecimal(us.TotalPoints, target),
		})
	}

	out := p
	out.IsActive = false
	archivedAt := now.UTC()
	out.ArchivedAt = &archivedAt
	out.Summary = &summary
	return out
}

// ResetForNewPeriod removes the live executions of household's tasks and
// zeroes its members' counters. Other households are not touched. It
// returns the number of executions removed.
func ResetForNewPeriod(doc *domain.Document, household string) int {
	tasks := doc.HouseholdTasks(household)
	removed := 0
	for id, e := range doc.Executions {
		if _, ok := tasks[e.TaskID]; ok {
			delete(doc.Executions, id)
			removed++
		}
	}
	if hh, ok := doc.Households[household]; ok {
		for _, id := range hh.MemberIDs {
			if u, ok := doc.Users[id]; ok {
				u.Points = 0
				u.TasksCompleted = 0
				doc.Users[id] = u
			}
		}
	}
	return removed
}

// HistoricalPeriods returns the household's periods newest first. The
// active period is included only when includeActive is set.
func (s *Store) HistoricalPeriods(includeActive bool) ([]domain.Period, error) {
	doc, wg, err := s.load()
	if err != nil {
		return nil, err
	}
	ps := s.periods(doc, wg)
	if !includeActive {
		ps = lo.Filter(ps, func(p domain.Period, _ int) bool { return !p.IsActive })
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].StartDate.After(ps[j].StartDate) })
	return ps, nil
}

// ActivePeriod returns the household's active period.
func (s *Store) ActivePeriod() (domain.Period, error) {
	doc, wg, err := s.load()
	if err != nil {
		return domain.Period{}, err
	}
	p, ok := activeOf(s.periods(doc, wg))
	if !ok {
		return domain.Period{}, ErrNoActivePeriod
	}
	return p, nil
}

// DeletePeriod removes the period with id. Unknown ids are a no-op.
func (s *Store) DeletePeriod(id string) error {
	doc, wg, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.display != nil && *s.display == id {
		s.display = nil
	}
	s.mu.Unlock()

	ps := s.periods(doc, wg)
	kept := lo.Filter(ps, func(p domain.Period, _ int) bool { return p.ID != id })
	if len(kept) == len(ps) {
		return nil
	}
	s.commit(doc, wg, kept)
	return s.save(doc)
}

// SetDisplayPeriod points the viewer at id, or back at the active period
// when id is nil. Stored data is not touched.
func (s *Store) SetDisplayPeriod(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.display = nil
		return
	}
	v := *id
	s.display = &v
}

// DisplayPeriod returns the current display pointer.
func (s *Store) DisplayPeriod() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return nil
	}
	v := *s.display
	return &v
}

// ViewPeriod resolves the period a viewer is looking at: the display period
// when it still exists, otherwise the active one.
func (s *Store) ViewPeriod() (domain.Period, error) {
	doc, wg, err := s.load()
	if err != nil {
		return domain.Period{}, err
	}
	ps := s.periods(doc, wg)
	if id := s.DisplayPeriod(); id != nil {
		if p, ok := lo.Find(ps, func(p domain.Period) bool { return p.ID == *id }); ok {
			return p, nil
		}
	}
	p, ok := activeOf(ps)
	if !ok {
		return domain.Period{}, ErrNoActivePeriod
	}
	return p, nil
}

// RecordExecution records userID completing taskID at the given time and
// binds it to the active period. A zero at means now. bonus is added on top
// of the task's base points; a positive bonus makes the completion hot.
func (s *Store) RecordExecution(taskID, userID string, at time.Time, bonus int) (domain.Execution, error) {
	if err := s.validate.Struct(executionInput{TaskID: taskID, UserID: userID, Bonus: bonus}); err != nil {
		return domain.Execution{}, validationError(err)
	}
	doc, wg, err := s.load()
	if err != nil {
		return domain.Execution{}, err
	}
	task, ok := doc.Tasks[taskID]
	if !ok || task.WGID != wg {
		return domain.Execution{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	user, ok := doc.Users[userID]
	if !ok {
		return domain.Execution{}, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	if !lo.Contains(doc.Households[wg].MemberIDs, userID) {
		return domain.Execution{}, fmt.Errorf("%w: %s", ErrNotMember, userID)
	}
	active, ok := activeOf(s.periods(doc, wg))
	if !ok {
		return domain.Execution{}, ErrNoActivePeriod
	}
	if at.IsZero() {
		at = s.now()
	}

	e := domain.Execution{
		ID:            uuid.NewString(),
		TaskID:        taskID,
		ExecutedBy:    userID,
		ExecutedAt:    at.UTC(),
		PointsAwarded: task.PointsPerExecution + bonus,
		PeriodID:      active.ID,
	}
	doc.Executions[e.ID] = e
	user.Points += e.PointsAwarded
	user.TasksCompleted++
	doc.Users[userID] = user

	if err := s.save(doc); err != nil {
		return domain.Execution{}, err
	}

	if aggregate.IsHot(e, doc.Tasks) {
		s.send(task.Title, fmt.Sprintf("%s hat %s erledigt (+%d Punkte)", user.Name, task.Title, e.PointsAwarded))
	}
	return e, nil
}

// SelectHousehold makes id the selected household and clears the display
// pointer.
func (s *Store) SelectHousehold(id string) error {
	doc, err := s.persister.Load()
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	doc.EnsureDefaults()
	if _, ok := doc.Households[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHousehold, id)
	}
	if doc.CurrentWG == id {
		return nil
	}

	// Fold the outgoing mirror into its household's list before dropping it.
	if old := doc.CurrentWG; old != "" {
		s.commit(doc, old, s.periods(doc, old))
	}
	doc.CurrentPeriod = nil
	doc.CurrentWG = id
	s.commit(doc, id, s.periods(doc, id))

	s.SetDisplayPeriod(nil)
	return s.save(doc)
}

// Snapshot returns the document with the selected household's periods
// reconciled. Changes to the returned value are not persisted.
func (s *Store) Snapshot() (*domain.Document, error) {
	doc, wg, err := s.load()
	if err != nil {
		return nil, err
	}
	s.commit(doc, wg, s.periods(doc, wg))
	return doc, nil
}
