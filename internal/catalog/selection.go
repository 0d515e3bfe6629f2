package catalog

// Selection tracks which ids of a View are selected. Ids outside the view
// can never be selected.
type Selection struct {
	view     *View
	selected map[int64]bool
}

// NewSelection returns an empty selection over v.
func NewSelection(v *View) *Selection {
	return &Selection{view: v, selected: make(map[int64]bool)}
}

// Toggle flips one id and reports whether it is now selected. Ids not in
// view are ignored.
func (s *Selection) Toggle(id int64) bool {
	if !s.view.Contains(id) {
		return false
	}
	if s.selected[id] {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = true
	return true
}

// SelectAll selects every id in view, or clears the selection when
// everything is already selected.
func (s *Selection) SelectAll() {
	if s.AllSelected() {
		s.Clear()
		return
	}
	for _, id := range s.view.IDs() {
		s.selected[id] = true
	}
}

// Clear deselects everything.
func (s *Selection) Clear() {
	clear(s.selected)
}

// AllSelected reports whether the view is non-empty and fully selected.
func (s *Selection) AllSelected() bool {
	return len(s.view.Records) > 0 && len(s.selected) == len(s.view.Records)
}

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id int64) bool {
	return s.selected[id]
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.selected)
}

// IDs returns the selected ids in view order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.selected))
	for _, id := range s.view.IDs() {
		if s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
