package rigid

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/narrowphase"
	"github.com/gekko3d/rigid/slotmap"
)

type contactFlags uint8

const (
	contactInIsland contactFlags = 1 << iota
	contactTouching
)

// ContactLink connects a body to one of its contacts and to the body on the
// other side.
type ContactLink struct {
	Other   slotmap.Handle[Body]
	Contact slotmap.Handle[Contact]
}

// Contact is the persistent state of one fixture pair whose fat bounds
// overlap. Fixture A's shape kind never sorts after fixture B's.
type Contact struct {
	handle      slotmap.Handle[Contact]
	fixtureA    *Fixture
	fixtureB    *Fixture
	childA      int
	childB      int
	friction    float32
	restitution float32
	flags       contactFlags
	manifold    narrowphase.Manifold
}

func newContact(fa *Fixture, childA int, fb *Fixture, childB int) *Contact {
	if fa.shape.Kind() > fb.shape.Kind() {
		fa, fb = fb, fa
		childA, childB = childB, childA
	}
	return &Contact{
		fixtureA:    fa,
		fixtureB:    fb,
		childA:      childA,
		childB:      childB,
		friction:    mixFriction(fa.friction, fb.friction),
		restitution: mixRestitution(fa.restitution, fb.restitution),
	}
}

func mixFriction(a, b float32) float32 {
	return math32.Sqrt(a * b)
}

func mixRestitution(a, b float32) float32 {
	return math32.Max(a, b)
}

func (c *Contact) FixtureA() *Fixture              { return c.fixtureA }
func (c *Contact) FixtureB() *Fixture              { return c.fixtureB }
func (c *Contact) Friction() float32               { return c.friction }
func (c *Contact) Restitution() float32            { return c.restitution }
func (c *Contact) IsTouching() bool                { return c.flags&contactTouching != 0 }
func (c *Contact) Manifold() *narrowphase.Manifold { return &c.manifold }

func (c *Contact) isSensor() bool {
	return c.fixtureA.sensor || c.fixtureB.sensor
}

// matches reports whether c joins the same fixture children, in either order.
func (c *Contact) matches(fa *Fixture, childA int, fb *Fixture, childB int) bool {
	if c.fixtureA == fa && c.fixtureB == fb && c.childA == childA && c.childB == childB {
		return true
	}
	return c.fixtureA == fb && c.fixtureB == fa && c.childA == childB && c.childB == childA
}

// update recomputes the manifold. Sensors adjust the fixtures' touch counters
// when the touching state flips; solid contacts start with zero impulses and
// wake both bodies when they begin to touch.
func (c *Contact) update(ar *arena.Arena) {
	wasTouching := c.IsTouching()
	bodyA, bodyB := c.fixtureA.body, c.fixtureB.body
	sensor := c.isSensor()

	narrowphase.Evaluate(&c.manifold, c.fixtureA.shape, c.fixtureB.shape, bodyA.xf, bodyB.xf, sensor, ar)
	touching := c.manifold.Count > 0

	if sensor {
		switch {
		case touching && !wasTouching:
			c.fixtureA.touchCount++
			c.fixtureB.touchCount++
		case !touching && wasTouching:
			c.fixtureA.touchCount--
			c.fixtureB.touchCount--
		}
	} else {
		for i := range c.manifold.Slice() {
			c.manifold.Points[i].NormalImpulse = 0
			c.manifold.Points[i].TangentImpulse = 0
		}
		if touching && !wasTouching {
			bodyA.SetAwake(true)
			bodyB.SetAwake(true)
		}
	}

	if touching {
		c.flags |= contactTouching
	} else {
		c.flags &^= contactTouching
	}
}
