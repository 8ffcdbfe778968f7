package rigid

import (
	"github.com/gekko3d/rigid/broadphase"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/shape"
	"github.com/gekko3d/rigid/slotmap"
)

// Filter decides which fixtures may collide. Fixtures sharing a positive
// group always collide and fixtures sharing a negative group never do;
// otherwise each category must be in the other's mask.
type Filter struct {
	Category uint16
	Mask     uint16
	Group    int16
}

// DefaultFilter lets a fixture collide with everything.
func DefaultFilter() Filter {
	return Filter{Category: 0x0001, Mask: 0xFFFF}
}

func (f Filter) shouldCollide(other Filter) bool {
	if f.Group == other.Group && f.Group != 0 {
		return f.Group > 0
	}
	return f.Mask&other.Category != 0 && other.Mask&f.Category != 0
}

type FixtureDef struct {
	Shape       shape.Shape
	Friction    float32
	Restitution float32
	IsSensor    bool
	UserData    any

	// Filter overrides DefaultFilter when set.
	Filter *Filter
}

func DefaultFixtureDef(s shape.Shape) FixtureDef {
	return FixtureDef{Shape: s, Friction: 0.2}
}

// fixtureProxy is the broad-phase user data for one shape child.
type fixtureProxy struct {
	aabb       geom.AABB
	fixture    *Fixture
	childIndex int
	proxyID    int32
}

// Fixture binds a shape to a body with its material and filter.
type Fixture struct {
	handle      slotmap.Handle[Fixture]
	body        *Body
	shape       shape.Shape
	friction    float32
	restitution float32
	sensor      bool
	filter      Filter
	touchCount  int
	proxies     []fixtureProxy
	userData    any
}

func newFixture(b *Body, def FixtureDef) *Fixture {
	f := &Fixture{
		body:        b,
		shape:       def.Shape,
		friction:    def.Friction,
		restitution: def.Restitution,
		sensor:      def.IsSensor,
		filter:      DefaultFilter(),
		userData:    def.UserData,
	}
	if def.Filter != nil {
		f.filter = *def.Filter
	}
	return f
}

func (f *Fixture) Handle() slotmap.Handle[Fixture] { return f.handle }
func (f *Fixture) Body() *Body                     { return f.body }
func (f *Fixture) Shape() shape.Shape              { return f.shape }
func (f *Fixture) Friction() float32               { return f.friction }
func (f *Fixture) Restitution() float32            { return f.restitution }
func (f *Fixture) IsSensor() bool                  { return f.sensor }
func (f *Fixture) Filter() Filter                  { return f.filter }
func (f *Fixture) UserData() any                   { return f.userData }

// TouchCount is the number of sensor contacts currently touching the fixture.
func (f *Fixture) TouchCount() int { return f.touchCount }

// SetFilter replaces the filter. Existing contacts that no longer pass are
// dropped on the next step.
func (f *Fixture) SetFilter(filter Filter) {
	f.filter = filter
	if f.body != nil && f.body.world != nil {
		bp := f.body.world.contactManager.broadPhase
		for i := range f.proxies {
			bp.TouchProxy(f.proxies[i].proxyID)
		}
	}
}

func (f *Fixture) createProxies(bp *broadphase.BroadPhase[*fixtureProxy], xf geom.Transform) {
	n := f.shape.ChildCount()
	f.proxies = make([]fixtureProxy, n)
	for i := range f.proxies {
		p := &f.proxies[i]
		p.fixture = f
		p.childIndex = i
		p.aabb = f.shape.ComputeAABB(xf)
		p.proxyID = bp.CreateProxy(p.aabb, p)
	}
}

func (f *Fixture) destroyProxies(bp *broadphase.BroadPhase[*fixtureProxy]) {
	for i := range f.proxies {
		bp.DestroyProxy(f.proxies[i].proxyID)
		f.proxies[i].proxyID = broadphase.NullNode
	}
	f.proxies = nil
}

// synchronize moves every proxy to cover the swept bounds from xf1 to xf2.
func (f *Fixture) synchronize(bp *broadphase.BroadPhase[*fixtureProxy], xf1, xf2 geom.Transform) {
	displacement := xf2.Position.Sub(xf1.Position)
	for i := range f.proxies {
		p := &f.proxies[i]
		p.aabb = f.shape.ComputeAABB(xf1).Combine(f.shape.ComputeAABB(xf2))
		bp.MoveProxy(p.proxyID, p.aabb, displacement)
	}
}

// shouldCollide requires at least one dynamic body, equal sensor-ness and a
// passing filter.
func shouldCollide(a, b *Fixture) bool {
	if a.body.typ != DynamicBody && b.body.typ != DynamicBody {
		return false
	}
	if a.sensor != b.sensor {
		return false
	}
	return a.filter.shouldCollide(b.filter)
}
