package rigid

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/narrowphase"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	normalStopVelocity  = 1e-4
	tangentStopVelocity = 1e-4
)

// islandPosition collects the position correction of one island body.
type islandPosition struct {
	buffer   mgl32.Vec3
	restless bool
}

// islandVelocity holds the velocities being solved and the deltas gathered
// from the current contact's points.
type islandVelocity struct {
	linear        mgl32.Vec3
	angular       mgl32.Vec3
	linearBuffer  mgl32.Vec3
	angularBuffer mgl32.Vec3
}

type contactConstraint struct {
	points       []narrowphase.ManifoldPoint
	worldCenterA mgl32.Vec3
	worldCenterB mgl32.Vec3
	indexA       int
	indexB       int
	invMassA     float32
	invMassB     float32
	invIA        mgl32.Mat3
	invIB        mgl32.Mat3
	friction     float32
	restitution  float32

	// leverA and leverB run from each center of mass to the contact's center
	// of pressure, the separation-weighted mean of its points.
	leverA          mgl32.Vec3
	leverB          mgl32.Vec3
	totalSeparation float32
}

type contactSolver struct {
	cfg         *Config
	constraints []contactConstraint
	positions   []islandPosition
	velocities  []islandVelocity
}

// init fills one constraint per contact. Bodies must already carry their
// island index.
func (s *contactSolver) init(contacts []*Contact) {
	for i, c := range contacts {
		bodyA, bodyB := c.fixtureA.body, c.fixtureB.body
		s.constraints[i] = contactConstraint{
			points:       c.manifold.Slice(),
			worldCenterA: bodyA.WorldCenter(),
			worldCenterB: bodyB.WorldCenter(),
			indexA:       bodyA.islandIndex,
			indexB:       bodyB.islandIndex,
			invMassA:     bodyA.invMass,
			invMassB:     bodyB.invMass,
			invIA:        bodyA.invInertiaWorld,
			invIB:        bodyB.invInertiaWorld,
			friction:     c.friction,
			restitution:  c.restitution,
		}
		s.constraints[i].computeLevers()
	}
}

func (c *contactConstraint) computeLevers() {
	for _, mp := range c.points {
		c.totalSeparation += mp.Separation
	}
	if c.totalSeparation <= 0 {
		return
	}
	for _, mp := range c.points {
		share := mp.Separation / c.totalSeparation
		c.leverA = c.leverA.Add(mp.PointA.Sub(c.worldCenterA).Mul(share))
		c.leverB = c.leverB.Add(mp.PointB.Sub(c.worldCenterB).Mul(share))
	}
}

func effectiveMass(c *contactConstraint, dir, rA, rB mgl32.Vec3) float32 {
	dA := dir.Cross(rA)
	dB := dir.Cross(rB)
	return c.invMassA + c.invMassB + dA.Dot(c.invIA.Mul3x1(dA)) + dB.Dot(c.invIB.Mul3x1(dB))
}

// solveVelocityConstraints runs one pass over every contact. Each point gets
// an impulse weighted by its share of the contact's total separation, sized
// with the effective mass at the contact's center of pressure so the shares
// together stop the contact. The resulting velocity changes are applied once
// the contact's points are done.
func (s *contactSolver) solveVelocityConstraints() {
	for i := range s.constraints {
		vc := &s.constraints[i]
		total := vc.totalSeparation
		if total <= 0 {
			continue
		}

		va := &s.velocities[vc.indexA]
		vb := &s.velocities[vc.indexB]
		for j := range vc.points {
			mp := &vc.points[j]
			rA := mp.PointA.Sub(vc.worldCenterA)
			rB := mp.PointB.Sub(vc.worldCenterB)
			if rA.LenSqr() == 0 || rB.LenSqr() == 0 {
				continue
			}

			velA := va.linear.Add(va.angular.Cross(rA))
			velB := vb.linear.Add(vb.angular.Cross(rB))
			rel := velB.Sub(velA)
			n := mp.Normal
			vn := rel.Dot(n)
			share := mp.Separation / total

			if vn < -normalStopVelocity {
				if k := effectiveMass(vc, n, vc.leverA, vc.leverB); k > 0 {
					j := -(1 + vc.restitution) * vn * share / k
					mp.NormalImpulse = math32.Max(mp.NormalImpulse+j, 0)

					impulse := n.Mul(j)
					va.linearBuffer = va.linearBuffer.Sub(impulse.Mul(vc.invMassA))
					vb.linearBuffer = vb.linearBuffer.Add(impulse.Mul(vc.invMassB))
					va.angularBuffer = va.angularBuffer.Sub(vc.invIA.Mul3x1(rA.Cross(impulse)))
					vb.angularBuffer = vb.angularBuffer.Add(vc.invIB.Mul3x1(rB.Cross(impulse)))
				}
			}

			vt := rel.Sub(n.Mul(vn))
			speed := vt.Len()
			if speed <= tangentStopVelocity {
				continue
			}
			t := vt.Mul(1 / speed)
			k := effectiveMass(vc, t, vc.leverA, vc.leverB)
			if k <= 0 {
				continue
			}
			old := mp.TangentImpulse
			limit := vc.friction * mp.NormalImpulse
			mp.TangentImpulse = mgl32.Clamp(old+speed*share/k, -limit, limit)

			impulse := t.Mul(mp.TangentImpulse - old)
			va.linearBuffer = va.linearBuffer.Add(impulse.Mul(vc.invMassA))
			vb.linearBuffer = vb.linearBuffer.Sub(impulse.Mul(vc.invMassB))
			va.angularBuffer = va.angularBuffer.Add(vc.invIA.Mul3x1(rA.Cross(impulse)))
			vb.angularBuffer = vb.angularBuffer.Sub(vc.invIB.Mul3x1(rB.Cross(impulse)))
		}

		va.flush()
		vb.flush()
	}
}

func (v *islandVelocity) flush() {
	v.linear = v.linear.Add(v.linearBuffer)
	v.angular = v.angular.Add(v.angularBuffer)
	v.linearBuffer = mgl32.Vec3{}
	v.angularBuffer = mgl32.Vec3{}
}

// solvePositionConstraints pushes penetrating points apart through the
// position buffers only, split by inverse mass.
func (s *contactSolver) solvePositionConstraints() {
	slop := s.cfg.LinearSlop
	alpha := s.cfg.PositionCorrection
	for i := range s.constraints {
		pc := &s.constraints[i]
		sum := pc.invMassA + pc.invMassB
		if sum == 0 || len(pc.points) == 0 {
			continue
		}
		ratioA := pc.invMassA / sum
		ratioB := pc.invMassB / sum
		pa := &s.positions[pc.indexA]
		pb := &s.positions[pc.indexB]
		count := float32(len(pc.points))

		for j := range pc.points {
			mp := &pc.points[j]
			movedA := mp.PointA.Add(pa.buffer)
			movedB := mp.PointB.Add(pb.buffer)
			sep := mp.Normal.Dot(movedA.Sub(movedB))
			if sep <= slop {
				continue
			}
			correction := mp.Normal.Mul((sep - slop) * alpha / count)
			pa.buffer = pa.buffer.Sub(correction.Mul(ratioA))
			pb.buffer = pb.buffer.Add(correction.Mul(ratioB))
		}
	}
}

// markRestless flags both bodies of any contact whose relative motion is above
// the sleep thresholds.
func (s *contactSolver) markRestless() {
	linear := s.cfg.SleepLinearVelocity
	angular := s.cfg.SleepAngularVelocity
	for i := range s.constraints {
		c := &s.constraints[i]
		if len(c.points) == 0 {
			continue
		}
		va, vb := &s.velocities[c.indexA], &s.velocities[c.indexB]
		if va.linear.Sub(vb.linear).LenSqr() > linear*linear ||
			va.angular.Sub(vb.angular).LenSqr() > angular*angular {
			s.positions[c.indexA].restless = true
			s.positions[c.indexB].restless = true
		}
	}
}
