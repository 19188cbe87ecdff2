package hidden

import (
	"errors"
	"testing"
)

type memKV struct {
	data    map[string]string
	removed []string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Remove(key string) error {
	delete(m.data, key)
	m.removed = append(m.removed, key)
	return nil
}

func TestHideAndUnhide(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv, nil)

	for _, id := range []string{"p2", "p1", "p2"} {
		if err := s.HidePeriod("wg1", id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.HideMonth("wg1", "2026-03"); err != nil {
		t.Fatal(err)
	}

	st := s.Load("wg1")
	if len(st.Periods) != 2 || st.Periods[0] != "p1" || st.Periods[1] != "p2" {
		t.Errorf("periods = %v", st.Periods)
	}
	if !st.Has("2026-03") || !st.Has("p1") || st.Has("p3") {
		t.Errorf("Has wrong for %+v", st)
	}
	if !s.Load("wg2").Empty() {
		t.Error("state leaked to other household")
	}

	if err := s.Unhide("wg1", "p1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Unhide("wg1", "unknown"); err != nil {
		t.Fatal(err)
	}
	if st := s.Load("wg1"); st.Has("p1") || !st.Has("p2") {
		t.Errorf("after unhide = %+v", st)
	}
}

func TestUnhideLastRemovesKey(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv, nil)
	s.HideMonth("wg1", "2026-01")
	s.Unhide("wg1", "2026-01")
	if _, ok := kv.data["hidden:wg1"]; ok {
		t.Error("empty state should not be stored")
	}
}

func TestRestore(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv, nil)

	if _, err := s.Restore("wg1"); !errors.Is(err, ErrNothingToRestore) {
		t.Fatalf("err = %v", err)
	}
	s.HidePeriod("wg1", "p1")
	s.HideMonth("wg1", "2026-02")

	st, err := s.Restore("wg1")
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Periods) != 1 || len(st.Months) != 1 {
		t.Errorf("restored = %+v", st)
	}
	if !s.Load("wg1").Empty() {
		t.Error("state survived restore")
	}
}

func TestLoad_CorruptState(t *testing.T) {
	kv := newMemKV()
	kv.data["hidden:wg1"] = "{not json"
	s := NewStore(kv, nil)

	if !s.Load("wg1").Empty() {
		t.Error("corrupt state should load empty")
	}
	if err := s.HidePeriod("wg1", "p1"); err != nil {
		t.Fatal(err)
	}
	if st := s.Load("wg1"); !st.Has("p1") {
		t.Errorf("hide over corrupt state = %+v", st)
	}
}
