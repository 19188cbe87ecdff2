// Package hidden remembers which historical buckets (periods or months) a
// user has hidden from the statistics views. It is presentation state kept in
// the key-value store and never touches the canonical period list.
package hidden

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/putzplan/putz/internal/logging"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ErrNothingToRestore is returned by Restore when nothing is hidden.
var ErrNothingToRestore = errors.New("nothing to restore")

// KV is the key-value store the state lives in.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// State is the set of hidden bucket keys for one household.
type State struct {
	Periods []string `json:"periods"`
	Months  []string `json:"months"`
}

// Empty reports whether nothing is hidden.
func (s State) Empty() bool {
	return len(s.Periods) == 0 && len(s.Months) == 0
}

// Has reports whether key is hidden, as a period id or a month key.
func (s State) Has(key string) bool {
	return lo.Contains(s.Periods, key) || lo.Contains(s.Months, key)
}

// Store reads and writes hidden-bucket state.
type Store struct {
	kv  KV
	log logrus.FieldLogger
}

// NewStore returns a Store over kv. log may be nil.
func NewStore(kv KV, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{kv: kv, log: log}
}

func key(household string) string {
	return "hidden:" + household
}

// Load returns the state for household. Missing or corrupt blobs yield an
// empty state.
func (s *Store) Load(household string) State {
	raw, ok, err := s.kv.Get(key(household))
	if err != nil {
		s.log.WithError(err).WithField("household", household).Warn("reading hidden buckets")
		return State{}
	}
	if !ok || raw == "" {
		return State{}
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.log.WithError(err).WithField("household", household).Warn("corrupt hidden-bucket state, ignoring")
		return State{}
	}
	return st
}

func (s *Store) save(household string, st State) error {
	if st.Empty() {
		return s.kv.Remove(key(household))
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding hidden buckets: %w", err)
	}
	return s.kv.Set(key(household), string(data))
}

// HidePeriod hides a historical period bucket.
func (s *Store) HidePeriod(household, periodID string) error {
	st := s.Load(household)
	st.Periods = addSorted(st.Periods, periodID)
	return s.save(household, st)
}

// HideMonth hides a calendar-month bucket ("2026-03").
func (s *Store) HideMonth(household, month string) error {
	st := s.Load(household)
	st.Months = addSorted(st.Months, month)
	return s.save(household, st)
}

// Unhide shows the bucket again. Unknown keys are ignored.
func (s *Store) Unhide(household, bucket string) error {
	st := s.Load(household)
	st.Periods = lo.Without(st.Periods, bucket)
	st.Months = lo.Without(st.Months, bucket)
	return s.save(household, st)
}

// Restore unhides everything and returns what was hidden.
func (s *Store) Restore(household string) (State, error) {
	st := s.Load(household)
	if st.Empty() {
		return State{}, ErrNothingToRestore
	}
	if err := s.kv.Remove(key(household)); err != nil {
		return State{}, err
	}
	return st, nil
}

func addSorted(list []string, v string) []string {
	if lo.Contains(list, v) {
		return list
	}
	list = append(list, v)
	sort.Strings(list)
	return list
}
