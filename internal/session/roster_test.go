package session

import (
	"net"
	"testing"
)

type recordingObserver struct {
	added   []uint16
	removed []uint16
}

func (r *recordingObserver) MemberAdded(m Member)    { r.added = append(r.added, m.ID) }
func (r *recordingObserver) MemberRemoved(id uint16) { r.removed = append(r.removed, id) }

func newTestRoster() *Roster {
	r := NewRoster(ServerID, 4, "secret", 0)
	r.Add(Member{ID: ServerID, IP: net.IPv4(10, 0, 0, 1), Port: 7777})
	return r
}

func TestRosterStaysSortedAscending(t *testing.T) {
	r := newTestRoster()
	r.Add(Member{ID: 3, IP: net.IPv4(10, 0, 0, 3), Port: 7000})
	r.Add(Member{ID: 1, IP: net.IPv4(10, 0, 0, 2), Port: 7001})
	r.Add(Member{ID: 2, IP: net.IPv4(10, 0, 0, 4), Port: 7002})

	members := r.Members()
	for i := 1; i < len(members); i++ {
		if members[i-1].ID >= members[i].ID {
			t.Fatalf("roster not sorted ascending: %+v", members)
		}
	}
}

func TestNextFreeIDSkipsUsed(t *testing.T) {
	r := newTestRoster()
	r.Add(Member{ID: 1, Port: 1})
	r.Add(Member{ID: 2, Port: 2})
	if got := r.NextFreeID(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	r.Remove(1)
	if got := r.NextFreeID(); got != 1 {
		t.Fatalf("expected 1 to be reusable, got %d", got)
	}
}

func TestObserverReceivesSyntheticAddedOnRegister(t *testing.T) {
	r := newTestRoster()
	r.Add(Member{ID: 1, Port: 1})
	r.Add(Member{ID: 2, Port: 2})

	obs := &recordingObserver{}
	r.Register(obs)

	if len(obs.added) != 3 {
		t.Fatalf("expected synthetic replay of 3 members, got %v", obs.added)
	}
}

func TestJoinThenLeaveProducesMatchedNotifications(t *testing.T) {
	r := newTestRoster()
	obs := &recordingObserver{}
	r.Register(obs)

	r.Add(Member{ID: 1, Port: 1})
	r.Remove(1)

	if len(obs.added) != 2 { // server's synthetic replay + the new join
		t.Fatalf("expected 2 added calls, got %v", obs.added)
	}
	if len(obs.removed) != 1 || obs.removed[0] != 1 {
		t.Fatalf("expected removed=[1], got %v", obs.removed)
	}
	if r.Len() != 1 {
		t.Fatalf("expected roster back to just the server, got %d members", r.Len())
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	r := newTestRoster()
	r.Remove(99)
	if r.Len() != 1 {
		t.Fatalf("expected unchanged roster, got %d members", r.Len())
	}
}

func TestFind(t *testing.T) {
	r := newTestRoster()
	if _, ok := r.Find(ServerID); !ok {
		t.Fatal("expected to find server member")
	}
	if _, ok := r.Find(42); ok {
		t.Fatal("did not expect to find unknown id")
	}
}
