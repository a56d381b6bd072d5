package model

import "time"

// EntitySnapshot captures the full comparable state of one drawing entity at
// a point in time. Numeric holds float-valued attributes (position, size,
// rotation) that the integrity validator compares with a small absolute
// tolerance; Attributes holds everything else as strings.
type EntitySnapshot struct {
	ID         string
	Kind       string
	IsText     bool
	Content    string
	Layer      string
	Group      string
	Numeric    map[string]float64
	Attributes map[string]string
}

// DocumentSnapshot is a pre- or post-mutation capture of every entity in a
// document, used by the integrity validator and for rollback.
type DocumentSnapshot struct {
	TakenAt  time.Time
	Entities []EntitySnapshot
}

// Index returns the snapshot's entities keyed by ID.
func (s DocumentSnapshot) Index() map[string]EntitySnapshot {
	idx := make(map[string]EntitySnapshot, len(s.Entities))
	for _, e := range s.Entities {
		idx[e.ID] = e
	}
	return idx
}
