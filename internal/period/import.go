package period

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/putzplan/putz/internal/domain"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ImportData is reference and history data from an external producer.
// Periods arrive raw and pass through the normalizer.
type ImportData struct {
	CurrentWG     string             `json:"currentWg"`
	Households    []domain.Household `json:"households"`
	Users         []domain.User      `json:"users"`
	Tasks         []domain.Task      `json:"tasks"`
	Executions    []domain.Execution `json:"executions"`
	Periods       []RawPeriod        `json:"periods"`
	CurrentPeriod RawPeriod          `json:"currentPeriod"`
}

// ImportReport counts what Import merged.
type ImportReport struct {
	Households int
	Users      int
	Tasks      int
	Executions int
	Periods    int
	Warnings   []Warning
}

// Import merges data into the stored document. Records replace stored ones
// with the same id. It does not require a selected household; when none is
// selected yet, data.CurrentWG (or the only imported household) becomes it.
func (s *Store) Import(data ImportData) (ImportReport, error) {
	doc, err := s.persister.Load()
	if err != nil {
		return ImportReport{}, fmt.Errorf("loading state: %w", err)
	}
	doc.EnsureDefaults()

	var rep ImportReport
	for _, h := range data.Households {
		if h.ID == "" {
			continue
		}
		doc.Households[h.ID] = h
		rep.Households++
	}
	if doc.CurrentWG == "" {
		switch {
		case data.CurrentWG != "":
			doc.CurrentWG = data.CurrentWG
		case len(data.Households) == 1:
			doc.CurrentWG = data.Households[0].ID
		}
	}
	fallbackWG := lo.Ternary(data.CurrentWG != "", data.CurrentWG, doc.CurrentWG)

	for _, u := range data.Users {
		if u.ID == "" {
			continue
		}
		doc.Users[u.ID] = u
		rep.Users++
	}
	for _, t := range data.Tasks {
		if t.ID == "" {
			continue
		}
		if t.WGID == "" {
			t.WGID = fallbackWG
		}
		doc.Tasks[t.ID] = t
		rep.Tasks++
	}
	for _, e := range data.Executions {
		if e.TaskID == "" || e.ExecutedAt.IsZero() {
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.ExecutedAt = e.ExecutedAt.UTC()
		doc.Executions[e.ID] = e
		rep.Executions++
	}

	var (
		raws      []RawPeriod
		currentID string
	)
	if len(data.CurrentPeriod) > 0 {
		cp := RawPeriod{}
		for k, v := range data.CurrentPeriod {
			cp[k] = v
		}
		cp[fieldActive] = true
		raws = append(raws, cp)
		currentID = cp.str(fieldID)
	}
	raws = append(raws, data.Periods...)

	imported, warnings := Normalize(raws, currentID)
	rep.Warnings = warnings
	for _, w := range warnings {
		s.log.WithFields(logrus.Fields{"module": "period", "source": "import"}).Warn("skipping period: " + w.String())
	}

	byHousehold := lo.GroupBy(imported, func(p domain.Period) string {
		return lo.Ternary(p.HouseholdID != "", p.HouseholdID, fallbackWG)
	})
	for wg, ps := range byHousehold {
		if wg == "" {
			s.log.WithField("module", "period").Warnf("dropping %d imported periods without household", len(ps))
			continue
		}
		for i := range ps {
			ps[i].HouseholdID = wg
		}
		merged := DedupeByDate(append(s.periods(doc, wg), ps...))
		s.commit(doc, wg, singleActive(merged))
		rep.Periods += len(ps)
	}

	if err := s.save(doc); err != nil {
		return ImportReport{}, err
	}
	return rep, nil
}

// singleActive keeps at most one active period: the one starting last. The
// others become closed periods without a summary.
func singleActive(ps []domain.Period) []domain.Period {
	active := lo.Filter(lo.Range(len(ps)), func(i, _ int) bool { return ps[i].IsActive })
	if len(active) <= 1 {
		return ps
	}
	sort.SliceStable(active, func(a, b int) bool {
		return ps[active[a]].StartDate.After(ps[active[b]].StartDate)
	})
	for _, i := range active[1:] {
		ps[i].IsActive = false
	}
	return ps
}
