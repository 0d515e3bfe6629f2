package database

import (
	"sort"
	"strings"
)

type idSet map[int64]struct{}

// imageIndex is the in-memory images collection with its secondary indices.
// Callers hold Database.mu.
type imageIndex struct {
	byID       map[int64]*ImageRecord
	byCategory map[string]idSet
	byTag      map[string]idSet
	byRecord   map[int64]idSet
}

func newImageIndex() *imageIndex {
	return &imageIndex{
		byID:       make(map[int64]*ImageRecord),
		byCategory: make(map[string]idSet),
		byTag:      make(map[string]idSet),
		byRecord:   make(map[int64]idSet),
	}
}

func tagKey(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func addTo[K comparable](m map[K]idSet, key K, id int64) {
	set, ok := m[key]
	if !ok {
		set = make(idSet)
		m[key] = set
	}
	set[id] = struct{}{}
}

func removeFrom[K comparable](m map[K]idSet, key K, id int64) {
	if set, ok := m[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}

func (ix *imageIndex) put(rec *ImageRecord) {
	if old, ok := ix.byID[rec.ID]; ok {
		ix.remove(old.ID)
	}
	ix.byID[rec.ID] = rec
	addTo(ix.byCategory, rec.Category, rec.ID)
	for _, t := range rec.Tags {
		addTo(ix.byTag, tagKey(t), rec.ID)
	}
	if rec.RecordID != nil {
		addTo(ix.byRecord, *rec.RecordID, rec.ID)
	}
}

func (ix *imageIndex) remove(id int64) bool {
	rec, ok := ix.byID[id]
	if !ok {
		return false
	}
	delete(ix.byID, id)
	removeFrom(ix.byCategory, rec.Category, id)
	for _, t := range rec.Tags {
		removeFrom(ix.byTag, tagKey(t), id)
	}
	if rec.RecordID != nil {
		removeFrom(ix.byRecord, *rec.RecordID, id)
	}
	return true
}

// collect copies the records in set, newest first.
func (ix *imageIndex) collect(set idSet) []ImageRecord {
	out := make([]ImageRecord, 0, len(set))
	for id := range set {
		out = append(out, *ix.byID[id].clone())
	}
	sortNewestFirst(out)
	return out
}

func (ix *imageIndex) all() []ImageRecord {
	out := make([]ImageRecord, 0, len(ix.byID))
	for _, rec := range ix.byID {
		out = append(out, *rec.clone())
	}
	sortNewestFirst(out)
	return out
}

// sortNewestFirst orders by upload date descending, then id descending.
func sortNewestFirst(recs []ImageRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UploadDate.Equal(recs[j].UploadDate) {
			return recs[i].UploadDate.After(recs[j].UploadDate)
		}
		return recs[i].ID > recs[j].ID
	})
}

// normalizeTags trims, drops empties and removes case-insensitive
// duplicates, keeping the first spelling seen.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := tagKey(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return UncategorizedCategory
	}
	return c
}
