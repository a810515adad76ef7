// Package tank is the example replicated entity schema from the spec:
// the game-object layer that rides opaquely on top of the transport,
// reproduced here because the dead-reckoning tests exercise it.
package tank

import (
	"math"

	"tanknet/pkg/wire"
)

// State is one tank's full physics state, serialized in this fixed
// field order.
type State struct {
	PosX     float32
	PosZ     float32
	LinAccel float32
	Angle    float32
	AngAccel float32
	AngVel   float32
	LinVel   float32
	ID       uint16
	Braking  bool
}

// WireSize is the byte length of State on the wire.
func (State) WireSize() int { return 4*7 + 2 + 1 }

// Encode writes s in field order.
func (s State) Encode(w *wire.Writer) {
	w.WriteFloat32(s.PosX)
	w.WriteFloat32(s.PosZ)
	w.WriteFloat32(s.LinAccel)
	w.WriteFloat32(s.Angle)
	w.WriteFloat32(s.AngAccel)
	w.WriteFloat32(s.AngVel)
	w.WriteFloat32(s.LinVel)
	w.WriteUint16(s.ID)
	w.WriteBool(s.Braking)
}

// Decode reads a State in field order.
func Decode(r *wire.Reader) (State, error) {
	var s State
	var err error
	if s.PosX, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.PosZ, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.LinAccel, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.Angle, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.AngAccel, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.AngVel, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.LinVel, err = r.ReadFloat32(); err != nil {
		return s, err
	}
	if s.ID, err = r.ReadUint16(); err != nil {
		return s, err
	}
	if s.Braking, err = r.ReadBool(); err != nil {
		return s, err
	}
	return s, nil
}

// Step advances s by dt seconds using simple forward-Euler kinematics:
// velocities integrate accelerations, position integrates linear
// velocity along the current heading. Both the local simulation and its
// paired remote view call this with identical inputs so they only
// diverge from different received snapshots or control input.
func Step(s State, dt float32) State {
	s.LinVel += s.LinAccel * dt
	s.AngVel += s.AngAccel * dt
	s.Angle += s.AngVel * dt
	s.PosX += s.LinVel * dt * float32(math.Cos(float64(s.Angle)))
	s.PosZ += s.LinVel * dt * float32(math.Sin(float64(s.Angle)))
	return s
}
