// Package selection tracks which staged files are picked for upload and
// filters them spatially against the survey task polygon.
package selection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aerialops/uplink/internal/models"
)

// Set holds the per-file selected flag for a batch of staged files.
// Every staged file has exactly one entry; all files start selected.
type Set struct {
	order  []string
	files  map[string]*models.StagedFile
	picked map[string]bool
}

func NewSet(files []*models.StagedFile) *Set {
	s := &Set{
		order:  make([]string, 0, len(files)),
		files:  make(map[string]*models.StagedFile, len(files)),
		picked: make(map[string]bool, len(files)),
	}
	for _, f := range files {
		s.order = append(s.order, f.ID)
		s.files[f.ID] = f
		s.picked[f.ID] = true
	}
	return s
}

// Len returns the number of staged files, selected or not.
func (s *Set) Len() int { return len(s.order) }

// Toggle flips one file's selected flag. It reports whether the id was known.
func (s *Set) Toggle(id string) bool {
	if _, ok := s.picked[id]; !ok {
		return false
	}
	s.picked[id] = !s.picked[id]
	return true
}

// SelectAll marks every file selected. It reports whether anything changed,
// so callers can skip redundant re-render or journal writes.
func (s *Set) SelectAll() bool {
	changed := false
	for id, v := range s.picked {
		if !v {
			s.picked[id] = true
			changed = true
		}
	}
	return changed
}

// DeselectAll clears every selected flag, reporting whether anything changed.
func (s *Set) DeselectAll() bool {
	changed := false
	for id, v := range s.picked {
		if v {
			s.picked[id] = false
			changed = true
		}
	}
	return changed
}

// SelectedCount returns the number of currently selected files.
func (s *Set) SelectedCount() int {
	n := 0
	for _, v := range s.picked {
		if v {
			n++
		}
	}
	return n
}

// Selected returns the selected files in intake order.
func (s *Set) Selected() []*models.StagedFile {
	out := make([]*models.StagedFile, 0, len(s.order))
	for _, id := range s.order {
		if s.picked[id] {
			out = append(out, s.files[id])
		}
	}
	return out
}

// InsideCount returns how many staged files fall within the task polygon.
// A file without coordinates never counts as inside.
func (s *Set) InsideCount(polygon orb.Polygon) int {
	n := 0
	for _, id := range s.order {
		if inside(s.files[id], polygon) {
			n++
		}
	}
	return n
}

// OutsidePercent is the share of staged files not inside the task polygon,
// as an integer percentage. An empty set yields 0, not NaN.
func (s *Set) OutsidePercent(polygon orb.Polygon) int {
	total := len(s.order)
	if total == 0 {
		return 0
	}
	inside := s.InsideCount(polygon)
	return int(math.Round(100 * (1 - float64(inside)/float64(total))))
}

// DeselectOutside drops every file that is not inside the task polygon from
// the selection, returning how many were deselected.
func (s *Set) DeselectOutside(polygon orb.Polygon) int {
	n := 0
	for _, id := range s.order {
		if s.picked[id] && !inside(s.files[id], polygon) {
			s.picked[id] = false
			n++
		}
	}
	return n
}

func inside(f *models.StagedFile, polygon orb.Polygon) bool {
	if f.Coordinates == nil {
		return false
	}
	return planar.PolygonContains(polygon, orb.Point{f.Coordinates.Longitude, f.Coordinates.Latitude})
}
