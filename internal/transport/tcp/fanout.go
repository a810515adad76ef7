package tcp

import "tanknet/internal/protocol"

// pendingPacket is one logical packet queued for delivery to a set of
// still-outstanding receivers. It is freed once the set empties.
type pendingPacket struct {
	framed    []byte
	receivers map[uint16]bool
	queued    map[uint16]bool // receivers already handed framed to their End
}

// FanoutQueue is the server-side queue shared by every TCP end: one
// logical packet enqueued once, delivered independently to each
// receiver's own End, and freed when every receiver has drained it or
// disconnected.
type FanoutQueue struct {
	pending []*pendingPacket
	ends    map[uint16]*End
}

// NewFanoutQueue creates an empty queue.
func NewFanoutQueue() *FanoutQueue {
	return &FanoutQueue{ends: make(map[uint16]*End)}
}

// Register associates a receiver id with its End so the queue can drain
// pending packets into it.
func (q *FanoutQueue) Register(id uint16, end *End) { q.ends[id] = end }

// Unregister drops id from the queue's live end set and removes it from
// every pending packet's receiver list, as if that packet had already
// been delivered to it — mirroring "a peer that closes mid-flight is
// simply removed from each pending packet's receiver list".
func (q *FanoutQueue) Unregister(id uint16) {
	delete(q.ends, id)
	var kept []*pendingPacket
	for _, p := range q.pending {
		delete(p.receivers, id)
		if len(p.receivers) > 0 {
			kept = append(kept, p)
		}
	}
	q.pending = kept
}

// Enqueue queues payload for delivery to every id in receivers.
func (q *FanoutQueue) Enqueue(payload []byte, receivers []uint16) {
	set := make(map[uint16]bool, len(receivers))
	for _, id := range receivers {
		set[id] = true
	}
	q.pending = append(q.pending, &pendingPacket{
		framed:    protocol.EncodeTCPFrame(payload),
		receivers: set,
		queued:    make(map[uint16]bool, len(receivers)),
	})
}

// Pump attempts to push every pending packet toward every receiver that
// hasn't drained it yet. It should be called once per event-loop tick.
// Each End's own outPending buffer absorbs partial sends; Pump only
// queues framed bytes onto an End once per packet per receiver.
func (q *FanoutQueue) Pump() {
	for _, p := range q.pending {
		for id := range p.receivers {
			end, ok := q.ends[id]
			if !ok {
				delete(p.receivers, id)
				continue
			}
			if !p.queued[id] {
				if end.sendDone {
					// sendDone: this End can never deliver again. Drop it
					// from the queue entirely rather than counting it as
					// delivered.
					delete(q.ends, id)
					delete(p.receivers, id)
					continue
				}
				// p.framed already carries its length prefix, so it goes
				// onto the End as-is rather than through Send, which
				// would frame it a second time.
				end.outPending = append(end.outPending, p.framed...)
				p.queued[id] = true
			}
			drained, err := end.TrySend()
			if err == nil && drained {
				delete(p.receivers, id)
			}
		}
	}
	var kept []*pendingPacket
	for _, p := range q.pending {
		if len(p.receivers) > 0 {
			kept = append(kept, p)
		}
	}
	q.pending = kept
}
