package rigid

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroGravity(cfg *Config) { cfg.Gravity = mgl32.Vec3{} }

func TestPhysicsIntegration(t *testing.T) {
	w := newTestWorld(t)
	b := addBody(t, w, mgl32.Vec3{0, 10, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))

	for i := 0; i < 10; i++ {
		w.Step(dt)
	}

	if b.Position().Y() >= 10 {
		t.Errorf("body should have fallen, but Y = %f", b.Position().Y())
	}
	if b.LinearVelocity().Y() >= 0 {
		t.Errorf("body should have negative velocity, but VY = %f", b.LinearVelocity().Y())
	}
	assert.InDelta(t, -9.81*10*dt, b.LinearVelocity().Y(), 1e-3)
}

func TestPhysicsKinematicIgnoresGravity(t *testing.T) {
	w := newTestWorld(t)
	def := DefaultBodyDef()
	def.Type = KinematicBody
	def.LinearVelocity = mgl32.Vec3{1, 0, 0}
	b, err := w.CreateBody(def)
	require.NoError(t, err)
	_, err = b.CreateFixture(DefaultFixtureDef(shape.NewSphere(0.5)))
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		w.Step(dt)
	}
	assert.InDelta(t, 1, b.Position().X(), 1e-3)
	assert.InDelta(t, 0, b.Position().Y(), 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.LinearVelocity())
}

func TestPhysicsForceAtPointSpins(t *testing.T) {
	w := newTestWorld(t, zeroGravity)
	b := addBody(t, w, mgl32.Vec3{}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))

	b.ApplyForceAtPoint(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0})
	w.Step(dt)

	assert.Greater(t, b.LinearVelocity().Z(), float32(0))
	assert.Less(t, b.AngularVelocity().Y(), float32(0))
	assert.InDelta(t, 0, b.AngularVelocity().X(), 1e-6)
}

// addOffsetBox creates a unit box whose center of mass sits at local (2,0,0).
func addOffsetBox(t *testing.T, w *World) *Body {
	t.Helper()
	box := shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5})
	box.Center = mgl32.Vec3{2, 0, 0}
	return addBody(t, w, mgl32.Vec3{}, box)
}

func TestPhysicsForceThroughOffsetCenter(t *testing.T) {
	w := newTestWorld(t, zeroGravity)
	b := addOffsetBox(t, w)
	require.Equal(t, mgl32.Vec3{2, 0, 0}, b.WorldCenter())

	b.ApplyForceAtPoint(mgl32.Vec3{0, 0, 60}, b.WorldCenter())
	w.Step(dt)

	assert.Equal(t, mgl32.Vec3{}, b.AngularVelocity(), "a force through the center of mass does not spin")
	assert.InDelta(t, 1, b.LinearVelocity().Z(), 1e-5)
}

func TestPhysicsForceBesideOffsetCenter(t *testing.T) {
	w := newTestWorld(t, zeroGravity)
	b := addOffsetBox(t, w)

	// Lever (0,0,1) from the center of mass; box inertia is 1/6 per axis.
	b.ApplyForceAtPoint(mgl32.Vec3{60, 0, 0}, b.WorldCenter().Add(mgl32.Vec3{0, 0, 1}))
	w.Step(dt)

	assert.InDelta(t, 6, b.AngularVelocity().Y(), 1e-3)
	assert.InDelta(t, 0, b.AngularVelocity().X(), 1e-6)
	assert.InDelta(t, 0, b.AngularVelocity().Z(), 1e-6)
}

func TestPhysicsTorqueTurnsAboutOffsetCenter(t *testing.T) {
	w := newTestWorld(t, zeroGravity)
	b := addOffsetBox(t, w)

	b.ApplyTorque(mgl32.Vec3{0, 6, 0})
	for i := 0; i < 60; i++ {
		w.Step(dt)
	}

	assert.InDelta(t, 0.6, b.AngularVelocity().Y(), 1e-4)
	center := b.WorldCenter()
	assert.InDelta(t, 2, center.X(), 1e-3)
	assert.InDelta(t, 0, center.Y(), 1e-3)
	assert.InDelta(t, 0, center.Z(), 1e-3)
	assert.Greater(t, b.Position().Len(), float32(0.5), "the origin swings around the center of mass")
	assert.InDelta(t, 0, b.LinearVelocity().Len(), 1e-6)
}

func TestPhysicsQueuedForces(t *testing.T) {
	w := newTestWorld(t, zeroGravity)
	b := addBody(t, w, mgl32.Vec3{}, shape.NewSphere(0.5))
	b.SetAwake(false)
	require.False(t, b.IsAwake())

	require.NoError(t, w.RegisterBodyForce(b.Handle(), mgl32.Vec3{6, 0, 0}))
	require.NoError(t, w.RegisterBodyForce(b.Handle(), mgl32.Vec3{4, 0, 0}))
	assert.True(t, b.IsAwake())

	// Queued forces only count once the frame starts.
	w.Step(dt)
	assert.Equal(t, mgl32.Vec3{}, b.LinearVelocity())

	w.StartFrame()
	w.Step(dt)
	assert.InDelta(t, 10*dt, b.LinearVelocity().X(), 1e-5)

	w.Step(dt)
	assert.InDelta(t, 10*dt, b.LinearVelocity().X(), 1e-5, "forces are cleared after a step")
}

func TestPhysicsFrozenAxes(t *testing.T) {
	w := newTestWorld(t)
	def := DefaultBodyDef()
	def.FreezePosition = [3]bool{false, true, false}
	def.FreezeRotation = [3]bool{true, true, true}
	b, err := w.CreateBody(def)
	require.NoError(t, err)
	_, err = b.CreateFixture(DefaultFixtureDef(shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5})))
	require.NoError(t, err)

	b.ApplyForceAtPoint(mgl32.Vec3{0, 0, 60}, mgl32.Vec3{1, 0, 0})
	for i := 0; i < 30; i++ {
		w.Step(dt)
	}
	assert.Equal(t, float32(0), b.Position().Y())
	assert.Equal(t, mgl32.Vec3{}, b.AngularVelocity())
	assert.Greater(t, b.Position().Z(), float32(0))
}

func TestPhysicsCollision(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	box := addBody(t, w, mgl32.Vec3{0, 5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))

	var prevY float32
	for i := 0; i < 300; i++ {
		prevY = box.Position().Y()
		w.Step(dt)
		require.Greater(t, box.Position().Y(), float32(0), "box tunneled through the ground at step %d", i)
	}

	y := box.Position().Y()
	assert.InDelta(t, 0.5, y, 0.02)
	assert.Less(t, math32.Abs(box.LinearVelocity().Y()), float32(0.01))
	assert.Less(t, math32.Abs(y-prevY), w.Config().LinearSlop)
	assert.Equal(t, 1, w.ContactCount())
}

func TestPhysicsSphereRests(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	ball := addBody(t, w, mgl32.Vec3{0, 2, 0}, shape.NewSphere(0.5))

	for i := 0; i < 300; i++ {
		w.Step(dt)
	}
	assert.InDelta(t, 0.5, ball.Position().Y(), 0.02)
	assert.InDelta(t, 0, ball.Position().X(), 1e-3)
	assert.InDelta(t, 0, ball.Position().Z(), 1e-3)
}

func TestPhysicsSleeping(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	box := addBody(t, w, mgl32.Vec3{0, 0.5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))

	transitions := 0
	awake := box.IsAwake()
	slept := 0
	for i := 0; i < 600; i++ {
		w.Step(dt)
		slept += w.Stats().SleptIslands
		if awake && !box.IsAwake() {
			transitions++
		}
		awake = box.IsAwake()
	}

	assert.False(t, box.IsAwake())
	assert.Equal(t, 1, transitions)
	assert.Equal(t, 1, slept)
	assert.Equal(t, mgl32.Vec3{}, box.LinearVelocity())
	assert.Equal(t, 0, w.Stats().AwakeBodies)

	box.ApplyImpulse(mgl32.Vec3{0, 3, 0})
	assert.True(t, box.IsAwake())
	w.Step(dt)
	assert.Greater(t, box.Position().Y(), float32(0.5))
}

func TestPhysicsStackSettlesAndSleeps(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	var stack []*Body
	for i := 0; i < 3; i++ {
		y := 0.5 + float32(i)
		stack = append(stack, addBody(t, w, mgl32.Vec3{0, y, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5})))
	}

	sleptAt := -1
	for i := 0; i < 900 && sleptAt < 0; i++ {
		w.Step(dt)
		if w.Stats().AwakeBodies == 0 {
			sleptAt = i
		}
	}
	require.GreaterOrEqual(t, sleptAt, 0, "the stack never fell asleep")

	for i, b := range stack {
		assert.False(t, b.IsAwake(), "box %d", i)
		assert.InDelta(t, 0.5+float32(i), b.Position().Y(), 0.03, "box %d", i)
		assert.InDelta(t, 0, b.Position().X(), 0.01, "box %d", i)
		assert.Equal(t, mgl32.Vec3{}, b.LinearVelocity(), "box %d", i)
	}
	assert.Equal(t, 3, w.ContactCount())

	// Settled bodies stay put once woken.
	stack[2].SetAwake(true)
	before := stack[2].Position()
	for i := 0; i < 30; i++ {
		w.Step(dt)
	}
	assert.InDelta(t, before.Y(), stack[2].Position().Y(), 0.01)
	for i, b := range stack {
		assert.Less(t, b.LinearVelocity().Len(), w.Config().SleepLinearVelocity, "box %d", i)
	}
}

func TestPhysicsSleepDisabled(t *testing.T) {
	w := newTestWorld(t, func(cfg *Config) { cfg.AllowSleep = false })
	addGround(t, w)
	box := addBody(t, w, mgl32.Vec3{0, 0.5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))
	for i := 0; i < 120; i++ {
		w.Step(dt)
	}
	assert.True(t, box.IsAwake())
	assert.Equal(t, 1, w.Stats().Islands)
}

func TestPhysicsSensorTouchCount(t *testing.T) {
	w := newTestWorld(t)

	zoneDef := DefaultBodyDef()
	zoneDef.Type = StaticBody
	zone, err := w.CreateBody(zoneDef)
	require.NoError(t, err)
	sensorDef := DefaultFixtureDef(shape.NewBox(mgl32.Vec3{1, 0.25, 1}))
	sensorDef.IsSensor = true
	zoneFixture, err := zone.CreateFixture(sensorDef)
	require.NoError(t, err)

	ballDef := DefaultBodyDef()
	ballDef.Position = mgl32.Vec3{0, 2, 0}
	ball, err := w.CreateBody(ballDef)
	require.NoError(t, err)
	probeDef := DefaultFixtureDef(shape.NewSphere(0.25))
	probeDef.IsSensor = true
	_, err = ball.CreateFixture(probeDef)
	require.NoError(t, err)

	maxCount := 0
	for i := 0; i < 120; i++ {
		w.Step(dt)
		maxCount = max(maxCount, zoneFixture.TouchCount())
		assert.Equal(t, zoneFixture.TouchCount(), ball.TouchCount())
	}

	assert.Equal(t, 1, maxCount)
	assert.Equal(t, 0, zoneFixture.TouchCount())
	assert.Less(t, ball.Position().Y(), float32(-1), "sensors do not block motion")
}

func TestPhysicsFilteredFallsThrough(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)

	def := DefaultBodyDef()
	def.Position = mgl32.Vec3{0, 1, 0}
	ghost, err := w.CreateBody(def)
	require.NoError(t, err)
	fd := DefaultFixtureDef(shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))
	fd.Filter = &Filter{Category: 0x2, Mask: 0xFFFF &^ 0x1}
	_, err = ghost.CreateFixture(fd)
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		w.Step(dt)
		require.Equal(t, 0, w.ContactCount())
	}
	assert.Less(t, ghost.Position().Y(), float32(-1))
}

func TestPhysicsSetFilterDropsContact(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	box := addBody(t, w, mgl32.Vec3{0, 0.5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))
	box.SetAwake(true)
	for i := 0; i < 3; i++ {
		w.Step(dt)
	}
	require.Equal(t, 1, w.ContactCount())

	box.Fixtures()[0].SetFilter(Filter{Category: 0x2, Mask: 0x2})
	box.SetAwake(true)
	w.Step(dt)
	assert.Equal(t, 0, w.ContactCount())
}

func TestPhysicsFriction(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	box := addBody(t, w, mgl32.Vec3{0, 0.5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))
	box.SetLinearVelocity(mgl32.Vec3{2, 0, 0})

	for i := 0; i < 120; i++ {
		w.Step(dt)
	}
	assert.Less(t, box.LinearVelocity().X(), float32(1))
	assert.Greater(t, box.Position().X(), float32(0))
}

func TestPhysicsRestitution(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)

	def := DefaultBodyDef()
	def.Position = mgl32.Vec3{0, 3, 0}
	ball, err := w.CreateBody(def)
	require.NoError(t, err)
	fd := DefaultFixtureDef(shape.NewSphere(0.5))
	fd.Restitution = 0.8
	_, err = ball.CreateFixture(fd)
	require.NoError(t, err)

	var bounce float32
	for i := 0; i < 120; i++ {
		w.Step(dt)
		bounce = max(bounce, ball.LinearVelocity().Y())
	}
	assert.Greater(t, bounce, float32(2))
}

func TestPhysicsStats(t *testing.T) {
	w := newTestWorld(t)
	addGround(t, w)
	addBody(t, w, mgl32.Vec3{-3, 0.5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))
	addBody(t, w, mgl32.Vec3{3, 0.5, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5}))

	w.Step(dt)
	w.Step(dt)
	s := w.Stats()
	assert.Equal(t, 2, s.Steps)
	assert.Equal(t, 3, s.Bodies)
	assert.Equal(t, 2, s.AwakeBodies)
	assert.Equal(t, 2, s.Contacts)
	assert.Equal(t, 2, s.TouchingContacts)
	assert.Equal(t, 2, s.Islands, "the ground does not join islands together")
	assert.Equal(t, 3, s.Proxies)
}
