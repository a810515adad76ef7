package reckoning

import (
	"math"

	"tanknet/internal/tank"
)

const (
	brakingAlphaRate    = 10.0
	notBrakingAlphaRate = 5.0
	snapResidual        = 0.01
)

// Smoother is the receiving side of dead-reckoning replication: it
// interpolates a displayed entity state toward the latest received
// snapshot instead of teleporting to it.
type Smoother struct {
	Current   tank.State
	target    tank.State
	hasTarget bool
}

// NewSmoother creates a smoother already displaying initial.
func NewSmoother(initial tank.State) *Smoother {
	return &Smoother{Current: initial}
}

// OnSnapshot records a newly received snapshot as the interpolation
// target.
func (s *Smoother) OnSnapshot(target tank.State) {
	s.target = target
	s.hasTarget = true
}

// Step advances Current toward the pending target by one tick of dt
// seconds and returns the new displayed state. If no snapshot is
// pending, Current is returned unchanged.
func (s *Smoother) Step(dt float32) tank.State {
	if !s.hasTarget {
		return s.Current
	}

	rate := float32(notBrakingAlphaRate)
	if s.target.Braking {
		rate = brakingAlphaRate
	}
	alpha := clamp01(dt * rate)

	s.Current.PosX = lerp(s.Current.PosX, s.target.PosX, alpha)
	s.Current.PosZ = lerp(s.Current.PosZ, s.target.PosZ, alpha)
	s.Current.LinVel = lerp(s.Current.LinVel, s.target.LinVel, alpha)
	s.Current.AngVel = lerp(s.Current.AngVel, s.target.AngVel, alpha)
	s.Current.LinAccel = lerp(s.Current.LinAccel, s.target.LinAccel, alpha)
	s.Current.AngAccel = lerp(s.Current.AngAccel, s.target.AngAccel, alpha)
	s.Current.Angle = lerpAngle(s.Current.Angle, s.target.Angle, alpha)
	s.Current.ID = s.target.ID
	s.Current.Braking = s.target.Braking

	if s.residual() < snapResidual {
		s.Current = s.target
		s.hasTarget = false
	}
	return s.Current
}

func (s *Smoother) residual() float32 {
	dx := s.Current.PosX - s.target.PosX
	dz := s.Current.PosZ - s.target.PosZ
	angleDiff := wrapToPi(s.Current.Angle - s.target.Angle)
	return dx*dx + dz*dz + angleDiff*angleDiff
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, alpha float32) float32 { return a + (b-a)*alpha }

// lerpAngle interpolates from a toward b taking the shorter arc modulo
// 2π, rather than lerp's naive straight-line path which would spin the
// long way around when a and b straddle the ±π wrap point.
func lerpAngle(a, b, alpha float32) float32 {
	diff := wrapToPi(b - a)
	return a + diff*alpha
}

func wrapToPi(x float32) float32 {
	const twoPi = 2 * math.Pi
	xf := float64(x)
	for xf > math.Pi {
		xf -= twoPi
	}
	for xf < -math.Pi {
		xf += twoPi
	}
	return float32(xf)
}
