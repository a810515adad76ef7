// Package reckoning implements the dead-reckoning entity-replication
// pattern: a sending-side replicator that compares a locally-controlled
// entity's simulation against a paired "remote view" and triggers
// snapshots on divergence, and a receiving-side smoother that
// interpolates toward newly received snapshots.
package reckoning

import (
	"math"

	"tanknet/internal/tank"
)

// Thresholds configures when the replicator considers its remote view
// to have diverged enough to warrant a fresh snapshot.
type Thresholds struct {
	AngleThreshold        float32 // radians
	PositionSquaredThresh float32 // (dx^2 + dz^2)
}

// DefaultThresholds matches values typical of the teacher's tank
// gamemode: tight enough to catch visible drift, loose enough to avoid
// flooding the loss-info channel every tick.
var DefaultThresholds = Thresholds{
	AngleThreshold:        0.1,
	PositionSquaredThresh: 0.25,
}

// Replicator owns one locally-controlled entity's local simulation and
// its paired remote view, stepping both identically each tick and
// deciding when the divergence is large enough to snapshot.
type Replicator struct {
	thresholds Thresholds

	Local  tank.State
	Remote tank.State

	// PendingSnapshot stays true from the moment a divergence (or an
	// explicit loss notification) is detected until the snapshot append
	// actually succeeds.
	PendingSnapshot bool
}

// NewReplicator creates a replicator with both views initialized to the
// same state, as the spec requires ("initialized identically").
func NewReplicator(initial tank.State, thresholds Thresholds) *Replicator {
	return &Replicator{thresholds: thresholds, Local: initial, Remote: initial}
}

// Step advances both the local simulation and the remote view by dt
// using the same equations, then checks for divergence. It returns
// true if this tick's divergence (newly, or still pending from a
// previous tick/loss notification) means a snapshot should be appended.
func (r *Replicator) Step(dt float32) (wantsSnapshot bool) {
	r.Local = tank.Step(r.Local, dt)
	r.Remote = tank.Step(r.Remote, dt)

	if r.diverged() {
		r.Remote = r.Local
		r.PendingSnapshot = true
	}
	return r.PendingSnapshot
}

func (r *Replicator) diverged() bool {
	angleDiff := float32(math.Abs(float64(r.Local.Angle - r.Remote.Angle)))
	if angleDiff > r.thresholds.AngleThreshold {
		return true
	}
	dx := r.Local.PosX - r.Remote.PosX
	dz := r.Local.PosZ - r.Remote.PosZ
	return dx*dx+dz*dz > r.thresholds.PositionSquaredThresh
}

// OnSnapshotAppended clears PendingSnapshot once the caller has
// successfully handed the snapshot to the UDP sender.
func (r *Replicator) OnSnapshotAppended() {
	r.PendingSnapshot = false
}

// OnSnapshotLost re-arms PendingSnapshot in response to a loss-info
// ack-timeout for a previously sent snapshot, forcing a resend.
func (r *Replicator) OnSnapshotLost() {
	r.PendingSnapshot = true
}
