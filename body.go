package rigid

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/slotmap"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type BodyType int

const (
	StaticBody BodyType = iota
	KinematicBody
	DynamicBody
)

func (t BodyType) String() string {
	switch t {
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	case DynamicBody:
		return "dynamic"
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

// BodyDef describes a body before it is created. Start from DefaultBodyDef so
// the boolean switches get their usual values.
type BodyDef struct {
	Type     BodyType
	Position mgl32.Vec3
	Rotation mgl32.Quat

	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3
	LinearDamping   float32
	AngularDamping  float32

	GravityScale float32
	UseGravity   bool
	CanSleep     bool
	Awake        bool

	// Frozen axes keep their velocity component at zero.
	FreezePosition [3]bool
	FreezeRotation [3]bool

	// Mass of a dynamic body. Non-positive means 1.
	Mass     float32
	UserData any
}

func DefaultBodyDef() BodyDef {
	return BodyDef{
		Type:         DynamicBody,
		Rotation:     mgl32.QuatIdent(),
		GravityScale: 1,
		UseGravity:   true,
		CanSleep:     true,
		Awake:        true,
		Mass:         1,
	}
}

type bodyFlags uint8

const (
	bodyInIsland bodyFlags = 1 << iota
)

// Body is a rigid body owned by a World. Pointers stay valid until the body is
// destroyed; hold a Handle or ID to outlive that.
type Body struct {
	world  *World
	handle slotmap.Handle[Body]
	id     uuid.UUID

	typ      BodyType
	xf       geom.Transform
	sweep    geom.Transform
	userData any

	linearVelocity  mgl32.Vec3
	angularVelocity mgl32.Vec3
	linearDamping   float32
	angularDamping  float32
	gravityScale    float32
	useGravity      bool
	posMask         mgl32.Vec3
	rotMask         mgl32.Vec3

	mass              float32
	invMass           float32
	localCenter       mgl32.Vec3
	invInertia        mgl32.Mat3
	invInertiaWorld   mgl32.Mat3
	force             mgl32.Vec3
	torque            mgl32.Vec3
	queuedForces      []mgl32.Vec3
	positionCorrected mgl32.Vec3

	canSleep  bool
	awake     bool
	sleepTime float32

	flags       bodyFlags
	islandIndex int

	fixtures []*Fixture
	links    []ContactLink
}

func freezeMask(frozen [3]bool) mgl32.Vec3 {
	m := mgl32.Vec3{1, 1, 1}
	for i, f := range frozen {
		if f {
			m[i] = 0
		}
	}
	return m
}

func newBody(w *World, def BodyDef) *Body {
	rot := def.Rotation
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}
	b := &Body{
		world:          w,
		id:             uuid.New(),
		typ:            def.Type,
		xf:             geom.NewTransform(def.Position, rot.Normalize()),
		userData:       def.UserData,
		linearDamping:  def.LinearDamping,
		angularDamping: def.AngularDamping,
		gravityScale:   def.GravityScale,
		useGravity:     def.UseGravity,
		posMask:        freezeMask(def.FreezePosition),
		rotMask:        freezeMask(def.FreezeRotation),
		mass:           def.Mass,
		canSleep:       def.CanSleep,
		awake:          def.Awake && def.Type != StaticBody,
	}
	b.sweep = b.xf
	if b.mass <= 0 {
		b.mass = 1
	}
	if b.typ != StaticBody {
		b.linearVelocity = geom.MulVec(def.LinearVelocity, b.posMask)
		b.angularVelocity = geom.MulVec(def.AngularVelocity, b.rotMask)
	}
	b.resetMassData()
	return b
}

func (b *Body) Handle() slotmap.Handle[Body] { return b.handle }
func (b *Body) ID() uuid.UUID                { return b.id }
func (b *Body) Type() BodyType               { return b.typ }
func (b *Body) UserData() any                { return b.userData }
func (b *Body) Transform() geom.Transform    { return b.xf }
func (b *Body) Position() mgl32.Vec3         { return b.xf.Position }
func (b *Body) Rotation() mgl32.Quat         { return b.xf.Rotation }
func (b *Body) LinearVelocity() mgl32.Vec3   { return b.linearVelocity }
func (b *Body) AngularVelocity() mgl32.Vec3  { return b.angularVelocity }
func (b *Body) InverseMass() float32         { return b.invMass }
func (b *Body) IsAwake() bool                { return b.awake }
func (b *Body) Fixtures() []*Fixture         { return b.fixtures }

// WorldCenter is the center of mass in world space.
func (b *Body) WorldCenter() mgl32.Vec3 {
	return b.xf.Apply(b.localCenter)
}

// TouchCount sums the sensor touch counters of every fixture.
func (b *Body) TouchCount() int {
	n := 0
	for _, f := range b.fixtures {
		n += f.touchCount
	}
	return n
}

// CreateFixture attaches a shape to the body and registers it with the broad
// phase. A dynamic body's mass data is recomputed.
func (b *Body) CreateFixture(def FixtureDef) (*Fixture, error) {
	if b.world == nil {
		return nil, ErrBodyDestroyed
	}
	if b.world.locked {
		return nil, fmt.Errorf("failed to create fixture: %w", ErrWorldLocked)
	}
	if def.Shape == nil {
		return nil, fmt.Errorf("failed to create fixture: %w", ErrNilShape)
	}
	if err := def.Shape.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create fixture: %w", err)
	}

	f := newFixture(b, def)
	f.handle = b.world.fixtures.Insert(f)
	f.createProxies(b.world.contactManager.broadPhase, b.xf)
	b.fixtures = append(b.fixtures, f)
	b.resetMassData()
	return f, nil
}

// resetMassData splits the body mass evenly over its fixtures and sums their
// inertia about the combined center.
func (b *Body) resetMassData() {
	b.invMass = 0
	b.invInertia = mgl32.Mat3{}
	b.localCenter = mgl32.Vec3{}
	if b.typ != DynamicBody {
		b.updateInertiaWorld()
		return
	}
	b.invMass = 1 / b.mass
	if len(b.fixtures) == 0 {
		b.updateInertiaWorld()
		return
	}

	share := b.mass / float32(len(b.fixtures))
	for _, f := range b.fixtures {
		b.localCenter = b.localCenter.Add(f.shape.LocalCenter())
	}
	b.localCenter = b.localCenter.Mul(1 / float32(len(b.fixtures)))

	var inertia mgl32.Mat3
	for _, f := range b.fixtures {
		d := f.shape.LocalCenter().Sub(b.localCenter)
		inertia = inertia.Add(f.shape.Inertia(share)).Add(parallelAxis(share, d))
	}
	if inertia.Det() != 0 {
		b.invInertia = inertia.Inv()
	}
	b.updateInertiaWorld()
}

// parallelAxis is the inertia of a point mass m at offset d.
func parallelAxis(m float32, d mgl32.Vec3) mgl32.Mat3 {
	dd := d.Dot(d)
	out := mgl32.Ident3().Mul(dd).Sub(d.OuterProd3(d))
	return out.Mul(m)
}

func (b *Body) updateInertiaWorld() {
	r := b.xf.RotationMatrix()
	b.invInertiaWorld = r.Mul3(b.invInertia).Mul3(r.Transpose())
}

// SetAwake wakes the body or puts it to sleep. Sleeping clears velocities and
// accumulated forces. Static bodies are never awake.
func (b *Body) SetAwake(awake bool) {
	if b.typ == StaticBody {
		return
	}
	if awake {
		if !b.awake {
			b.awake = true
			b.sleepTime = 0
		}
		return
	}
	b.awake = false
	b.sleepTime = 0
	b.linearVelocity = mgl32.Vec3{}
	b.angularVelocity = mgl32.Vec3{}
	b.force = mgl32.Vec3{}
	b.torque = mgl32.Vec3{}
}

func (b *Body) SetTransform(pos mgl32.Vec3, rot mgl32.Quat) {
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}
	b.xf = geom.NewTransform(pos, rot.Normalize())
	b.sweep = b.xf
	b.updateInertiaWorld()
	if b.world != nil {
		for _, f := range b.fixtures {
			f.synchronize(b.world.contactManager.broadPhase, b.xf, b.xf)
		}
	}
	b.SetAwake(true)
}

func (b *Body) SetLinearVelocity(v mgl32.Vec3) {
	if b.typ == StaticBody {
		return
	}
	b.linearVelocity = geom.MulVec(v, b.posMask)
	if v.LenSqr() > 0 {
		b.SetAwake(true)
	}
}

func (b *Body) SetAngularVelocity(w mgl32.Vec3) {
	if b.typ == StaticBody {
		return
	}
	b.angularVelocity = geom.MulVec(w, b.rotMask)
	if w.LenSqr() > 0 {
		b.SetAwake(true)
	}
}

// RegisterForce queues a force for the next StartFrame and wakes the body.
func (b *Body) RegisterForce(f mgl32.Vec3) {
	if b.typ != DynamicBody {
		return
	}
	b.SetAwake(true)
	b.queuedForces = append(b.queuedForces, f)
}

// drainForces moves every queued force into the force accumulator.
func (b *Body) drainForces() {
	for _, f := range b.queuedForces {
		b.force = b.force.Add(f)
	}
	b.queuedForces = b.queuedForces[:0]
}

func (b *Body) ApplyForce(f mgl32.Vec3) {
	if b.typ != DynamicBody {
		return
	}
	b.SetAwake(true)
	b.force = b.force.Add(f)
}

// ApplyForceAtPoint applies f at world point p, adding the torque it creates
// about the center of mass.
func (b *Body) ApplyForceAtPoint(f, p mgl32.Vec3) {
	if b.typ != DynamicBody {
		return
	}
	b.SetAwake(true)
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.WorldCenter()).Cross(f))
}

func (b *Body) ApplyTorque(t mgl32.Vec3) {
	if b.typ != DynamicBody {
		return
	}
	b.SetAwake(true)
	b.torque = b.torque.Add(t)
}

// ApplyImpulse changes the linear velocity immediately.
func (b *Body) ApplyImpulse(j mgl32.Vec3) {
	if b.typ != DynamicBody {
		return
	}
	b.SetAwake(true)
	b.linearVelocity = b.linearVelocity.Add(geom.MulVec(j.Mul(b.invMass), b.posMask))
}

// integrateVelocity applies accumulated forces, gravity and damping, then
// clears the accumulators.
func (b *Body) integrateVelocity(dt float32, gravity mgl32.Vec3) {
	if b.typ == StaticBody {
		return
	}
	if b.typ == DynamicBody {
		acc := b.force.Mul(b.invMass)
		if b.useGravity {
			acc = acc.Add(gravity.Mul(b.gravityScale))
		}
		angAcc := b.invInertiaWorld.Mul3x1(b.torque)
		b.linearVelocity = b.linearVelocity.Add(geom.MulVec(acc.Mul(dt), b.posMask))
		b.angularVelocity = b.angularVelocity.Add(geom.MulVec(angAcc.Mul(dt), b.rotMask))
	}
	b.linearVelocity = b.linearVelocity.Mul(damping(b.linearDamping, dt))
	b.angularVelocity = b.angularVelocity.Mul(damping(b.angularDamping, dt))
	b.force = mgl32.Vec3{}
	b.torque = mgl32.Vec3{}
}

func damping(c, dt float32) float32 {
	return math32.Max(0, math32.Min(1, 1-c*dt))
}

// integratePosition advances the transform by the current velocities. The
// body turns about its center of mass, and the previous transform is kept in
// the sweep for fixture synchronization.
func (b *Body) integratePosition(dt float32) {
	b.sweep = b.xf
	if b.typ == StaticBody {
		return
	}
	b.linearVelocity = geom.MulVec(b.linearVelocity, b.posMask)
	b.angularVelocity = geom.MulVec(b.angularVelocity, b.rotMask)
	center := b.WorldCenter().Add(b.linearVelocity.Mul(dt))

	w := b.angularVelocity.Mul(dt)
	q := b.xf.Rotation
	dq := mgl32.Quat{V: w}.Mul(q).Scale(0.5)
	q = q.Add(dq)
	if q.Len() > 0 {
		b.xf.Rotation = q.Normalize()
	}
	b.xf.Position = center.Sub(b.xf.ApplyVector(b.localCenter))
	b.updateInertiaWorld()
}

// applyPositionCorrection moves the body by the correction gathered from the
// position solver.
func (b *Body) applyPositionCorrection() {
	if b.positionCorrected.LenSqr() == 0 {
		return
	}
	b.xf.Position = b.xf.Position.Add(geom.MulVec(b.positionCorrected, b.posMask))
	b.positionCorrected = mgl32.Vec3{}
}

func (b *Body) synchronizeFixtures() {
	if b.typ == StaticBody {
		return
	}
	bp := b.world.contactManager.broadPhase
	for _, f := range b.fixtures {
		f.synchronize(bp, b.sweep, b.xf)
	}
}

// updateSleep advances the sleep timer unless the body moves faster than the
// thresholds or was marked restless by a contact.
func (b *Body) updateSleep(dt float32, restless bool, cfg *Config) {
	if !b.canSleep || restless ||
		b.linearVelocity.LenSqr() > cfg.SleepLinearVelocity*cfg.SleepLinearVelocity ||
		b.angularVelocity.LenSqr() > cfg.SleepAngularVelocity*cfg.SleepAngularVelocity {
		b.sleepTime = 0
		return
	}
	b.sleepTime += dt
}

func (b *Body) addLink(l ContactLink) {
	b.links = append(b.links, l)
}

func (b *Body) removeLink(c slotmap.Handle[Contact]) {
	for i, l := range b.links {
		if l.Contact == c {
			last := len(b.links) - 1
			b.links[i] = b.links[last]
			b.links[last] = ContactLink{}
			b.links = b.links[:last]
			return
		}
	}
}

// Links lists the contacts touching the body's fixtures.
func (b *Body) Links() []ContactLink {
	return b.links
}
