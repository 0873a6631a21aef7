// Package plate holds the editing session behind a plate or multi-food log:
// the items being composed, their serving edits and which ones were removed.
//
// A Session is not safe for concurrent use. Edits come from one serialized
// stream of user events; callers that share a session across goroutines must
// serialize access themselves.
package plate

import (
	"fmt"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/google/uuid"
)

// Session is an arena of items keyed by stable id. Removing an item only marks
// its id inactive; ids are never renumbered, so keyed state stays valid.
type Session struct {
	catalog *nutrition.Catalog
	order   []string
	items   map[string]model.FoodItem
	states  map[string]*nutrition.ServingEditState
	removed map[string]bool
}

func NewSession(cat *nutrition.Catalog) *Session {
	if cat == nil {
		cat = nutrition.DefaultCatalog()
	}
	return &Session{
		catalog: cat,
		items:   map[string]model.FoodItem{},
		states:  map[string]*nutrition.ServingEditState{},
		removed: map[string]bool{},
	}
}

func (s *Session) Catalog() *nutrition.Catalog {
	return s.catalog
}

// Add places item on the plate and returns its entry id. The first entry of
// a food uses the food id; further entries of the same food get "id#2",
// "id#3" and so on. Items without an id get a random one.
func (s *Session) Add(item model.FoodItem) (string, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	entryID := item.ID
	for n := 2; ; n++ {
		if _, taken := s.items[entryID]; !taken {
			break
		}
		entryID = fmt.Sprintf("%s#%d", item.ID, n)
	}
	s.items[entryID] = item
	s.order = append(s.order, entryID)
	return entryID, nil
}

// Item returns the food behind an entry; its ID is the library food id.
func (s *Session) Item(id string) (model.FoodItem, bool) {
	item, ok := s.items[id]
	return item, ok
}

// IDs returns every id in insertion order, removed ones included.
func (s *Session) IDs() []string {
	return append([]string(nil), s.order...)
}

// ActiveIDs returns the ids that still count toward the totals.
func (s *Session) ActiveIDs() []string {
	out := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if !s.removed[id] {
			out = append(out, id)
		}
	}
	return out
}

// State returns the edit state for id, creating it from the item's baseline on
// first access.
func (s *Session) State(id string) (*nutrition.ServingEditState, error) {
	if st, ok := s.states[id]; ok {
		return st, nil
	}
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %q is not on the plate", id)
	}
	st := nutrition.NewServingEditState(item)
	s.states[id] = &st
	return &st, nil
}

// SetServingText applies raw serving input. It reports whether the text was
// accepted; rejected text leaves the previous amount in place.
func (s *Session) SetServingText(id, text string) (bool, error) {
	st, err := s.State(id)
	if err != nil {
		return false, err
	}
	return st.ApplyText(text), nil
}

func (s *Session) SetServingAmount(id string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("serving amount must be >= 0")
	}
	st, err := s.State(id)
	if err != nil {
		return err
	}
	st.ServingAmount = amount
	st.RawInput = nutrition.FormatServing(amount)
	return nil
}

// SelectMeasure switches the unit the serving amount is expressed in. The
// measure may be given by id or by unit name.
func (s *Session) SelectMeasure(id, measure string) error {
	st, err := s.State(id)
	if err != nil {
		return err
	}
	item := s.items[id]
	m, ok := matchMeasure(item.Measures, measure)
	if !ok {
		return fmt.Errorf("item %q has no measure %q", id, measure)
	}
	st.SelectedMeasureID = m.ID
	return nil
}

func matchMeasure(measures []model.Measure, want string) (model.Measure, bool) {
	want = strings.TrimSpace(want)
	for _, m := range measures {
		if m.ID == want {
			return m, true
		}
	}
	for _, m := range measures {
		if strings.EqualFold(m.Unit, want) {
			return m, true
		}
	}
	return model.Measure{}, false
}

// Measure is the measure the item's amount is currently expressed in.
func (s *Session) Measure(id string) (model.Measure, bool) {
	item, ok := s.items[id]
	if !ok {
		return model.Measure{}, false
	}
	st, err := s.State(id)
	if err != nil {
		return model.Measure{}, false
	}
	return nutrition.ResolveMeasure(item.Measures, *st)
}

// Scale is the item's current scaling factor.
func (s *Session) Scale(id string) (float64, error) {
	st, err := s.State(id)
	if err != nil {
		return 0, err
	}
	return nutrition.ScalingFactor(s.items[id].Measures, *st), nil
}

func (s *Session) Remove(id string) error {
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %q is not on the plate", id)
	}
	s.removed[id] = true
	return nil
}

func (s *Session) Restore(id string) error {
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %q is not on the plate", id)
	}
	delete(s.removed, id)
	return nil
}

func (s *Session) Removed(id string) bool {
	return s.removed[id]
}

// Entries snapshots the session for the aggregation engine. Untouched items
// use a fresh baseline state without allocating one in the session.
func (s *Session) Entries() []nutrition.Entry {
	out := make([]nutrition.Entry, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		st := nutrition.NewServingEditState(item)
		if cur, ok := s.states[id]; ok {
			st = *cur
		}
		out = append(out, nutrition.Entry{Item: item, State: st, Removed: s.removed[id]})
	}
	return out
}

func (s *Session) Totals() nutrition.Totals {
	return nutrition.Aggregate(s.catalog, s.Entries())
}

func (s *Session) Rows(goals nutrition.GoalCatalog, fallback nutrition.MacroGoals) []nutrition.Row {
	return nutrition.Rows(s.catalog, s.Totals(), goals, fallback)
}
