package session

import "sort"

// ServerID is the id the server itself always occupies in the roster.
const ServerID uint16 = 0

// Observer is notified of roster changes. Implementations must not block
// — Roster calls observers synchronously from whichever goroutine
// mutates the roster.
type Observer interface {
	MemberAdded(m Member)
	MemberRemoved(id uint16)
}

// Roster is the ordered set of session members described in the spec:
// kept sorted ascending by id at all times, with the server occupying
// id 0. The roster does not add its own id by itself; callers Add it.
type Roster struct {
	ownID      uint16
	maxClients uint16
	password   string
	startTime  float32

	members   []Member
	observers []Observer
}

// NewRoster creates an empty roster for ownID; neither the server nor
// ownID is a member until added with Add.
func NewRoster(ownID uint16, maxClients uint16, password string, startTime float32) *Roster {
	r := &Roster{
		ownID:      ownID,
		maxClients: maxClients,
		password:   password,
		startTime:  startTime,
	}
	return r
}

func (r *Roster) OwnID() uint16       { return r.ownID }
func (r *Roster) MaxClients() uint16  { return r.maxClients }
func (r *Roster) Password() string    { return r.password }
func (r *Roster) StartTime() float32  { return r.startTime }

// Members returns the roster ordered ascending by id. The returned slice
// is a copy; callers must not rely on it reflecting later mutations.
func (r *Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Len reports the current member count, including the server.
func (r *Roster) Len() int { return len(r.members) }

// Find looks up a member by id.
func (r *Roster) Find(id uint16) (Member, bool) {
	for _, m := range r.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// NextFreeID returns the smallest unused id ≥ 1, per the server's
// session-request acceptance rule.
func (r *Roster) NextFreeID() uint16 {
	used := make(map[uint16]bool, len(r.members))
	for _, m := range r.members {
		used[m.ID] = true
	}
	for id := uint16(1); ; id++ {
		if !used[id] {
			return id
		}
	}
}

// Add inserts m, re-sorts the roster ascending by id, and notifies every
// observer of memberAdded. Adding a duplicate id is a caller error and
// replaces the existing entry in place.
func (r *Roster) Add(m Member) {
	for i, existing := range r.members {
		if existing.ID == m.ID {
			r.members[i] = m
			r.notifyAdded(m)
			return
		}
	}
	r.members = append(r.members, m)
	r.sort()
	r.notifyAdded(m)
}

// Remove drops the member with the given id, leaving the rest in
// ascending order, and notifies observers of memberRemoved. A no-op if
// id is not present.
func (r *Roster) Remove(id uint16) {
	for i, m := range r.members {
		if m.ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			r.notifyRemoved(id)
			return
		}
	}
}

func (r *Roster) sort() {
	sort.Slice(r.members, func(i, j int) bool { return r.members[i].ID < r.members[j].ID })
}

// Register adds obs to the observer list and immediately replays a
// synthetic memberAdded for every existing member, per spec.
func (r *Roster) Register(obs Observer) {
	r.observers = append(r.observers, obs)
	for _, m := range r.members {
		obs.MemberAdded(m)
	}
}

func (r *Roster) notifyAdded(m Member) {
	for _, obs := range r.observers {
		obs.MemberAdded(m)
	}
}

func (r *Roster) notifyRemoved(id uint16) {
	for _, obs := range r.observers {
		obs.MemberRemoved(id)
	}
}
