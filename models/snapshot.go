// ABOUTME: Two-set pipeline state with a single write path
// ABOUTME: Keeps every profile id in exactly one of pending or tracked
package models

import "time"

// Set names one of the two logical collections.
type Set string

const (
	SetPending Set = "pendingConnections"
	SetTracked Set = "connections"
)

// Snapshot is the full persisted state. Callers mutate it only through Put
// and Remove, which keep a profile id in at most one set.
type Snapshot struct {
	Pending map[string]ContactRecord `json:"pendingConnections"`
	Tracked map[string]ContactRecord `json:"connections"`
}

// NewSnapshot returns a snapshot with two empty sets.
func NewSnapshot() Snapshot {
	return Snapshot{
		Pending: map[string]ContactRecord{},
		Tracked: map[string]ContactRecord{},
	}
}

// Clone deep-copies the maps and the timestamp pointers.
func (s Snapshot) Clone() Snapshot {
	out := NewSnapshot()
	for id, rec := range s.Pending {
		out.Pending[id] = rec.clone()
	}
	for id, rec := range s.Tracked {
		out.Tracked[id] = rec.clone()
	}
	return out
}

func (r ContactRecord) clone() ContactRecord {
	r.DateSent = copyTime(r.DateSent)
	r.DateConnected = copyTime(r.DateConnected)
	r.LastUpdated = copyTime(r.LastUpdated)
	r.FollowUpDate = copyTime(r.FollowUpDate)
	return r
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return timePtr(*t)
}

// Locate finds id in whichever set holds it. Tracked wins if the invariant
// was ever broken by an external writer.
func (s Snapshot) Locate(id string) (ContactRecord, Set, bool) {
	if rec, ok := s.Tracked[id]; ok {
		return rec, SetTracked, true
	}
	if rec, ok := s.Pending[id]; ok {
		return rec, SetPending, true
	}
	return ContactRecord{}, "", false
}

// Put stores rec in set and removes its id from the other set.
func (s *Snapshot) Put(set Set, rec ContactRecord) {
	s.ensure()
	switch set {
	case SetPending:
		delete(s.Tracked, rec.ProfileID)
		s.Pending[rec.ProfileID] = rec
	default:
		delete(s.Pending, rec.ProfileID)
		s.Tracked[rec.ProfileID] = rec
	}
}

// Remove deletes id from both sets and reports whether anything was removed.
func (s *Snapshot) Remove(id string) bool {
	_, inPending := s.Pending[id]
	_, inTracked := s.Tracked[id]
	delete(s.Pending, id)
	delete(s.Tracked, id)
	return inPending || inTracked
}

// Len is the size of the union of both sets.
func (s Snapshot) Len() int {
	return len(s.Pending) + len(s.Tracked)
}

// Normalize fills in keys and missing stages for records written by older
// clients: pending records default to pending, tracked records to connected.
// Ids present in both sets are resolved in favour of tracked.
func (s *Snapshot) Normalize() {
	s.ensure()
	for id, rec := range s.Tracked {
		if rec.ProfileID == "" {
			rec.ProfileID = id
		}
		if rec.Stage == "" {
			rec.Stage = StageConnected
		}
		if rec.Name == "" {
			rec.Name = DefaultName
		}
		s.Tracked[id] = rec
	}
	for id, rec := range s.Pending {
		if _, dup := s.Tracked[id]; dup {
			delete(s.Pending, id)
			continue
		}
		if rec.ProfileID == "" {
			rec.ProfileID = id
		}
		if rec.Stage == "" {
			rec.Stage = StagePending
		}
		if rec.Name == "" {
			rec.Name = DefaultName
		}
		s.Pending[id] = rec
	}
}

// All returns every record of both sets, tagged with its set.
func (s Snapshot) All() []Located {
	out := make([]Located, 0, s.Len())
	for _, rec := range s.Tracked {
		out = append(out, Located{Record: rec, Set: SetTracked})
	}
	for _, rec := range s.Pending {
		out = append(out, Located{Record: rec, Set: SetPending})
	}
	return out
}

// Located pairs a record with the set that holds it.
type Located struct {
	Record ContactRecord
	Set    Set
}

func (s *Snapshot) ensure() {
	if s.Pending == nil {
		s.Pending = map[string]ContactRecord{}
	}
	if s.Tracked == nil {
		s.Tracked = map[string]ContactRecord{}
	}
}
