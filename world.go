// Package rigid is a 3D rigid-body simulation core. A World owns bodies and
// their fixtures, finds contacts through a dynamic AABB tree, builds contact
// manifolds with GJK/EPA and resolves them with a sequential impulse solver
// over islands of touching bodies.
package rigid

import (
	"fmt"
	"iter"

	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/geom"
	"github.com/gekko3d/rigid/slotmap"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Stats describes the last completed step.
type Stats struct {
	Steps            int
	Bodies           int
	AwakeBodies      int
	Contacts         int
	TouchingContacts int
	Islands          int
	SleptIslands     int
	Proxies          int
	TreeHeight       int
}

type Option func(*World)

func WithLogger(l Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logs.root = l
		}
	}
}

// World runs the simulation. A World is not safe for concurrent use; separate
// Worlds share no state and may step on separate goroutines.
type World struct {
	cfg  Config
	logs worldLoggers

	arena          *arena.Arena
	bodies         slotmap.Map[Body]
	fixtures       slotmap.Map[Fixture]
	byID           map[uuid.UUID]slotmap.Handle[Body]
	contactManager *ContactManager

	positions   *arena.StackAllocator[islandPosition]
	velocities  *arena.StackAllocator[islandVelocity]
	constraints *arena.StackAllocator[contactConstraint]
	island      island
	dfs         []*Body

	locked bool
	stats  Stats
}

func NewWorld(cfg Config, opts ...Option) (*World, error) {
	w := &World{cfg: cfg, logs: worldLoggers{root: NewNopLogger()}}
	for _, opt := range opts {
		opt(w)
	}
	if err := cfg.Validate(); err != nil {
		w.logs.root.Warnf("world config rejected: %v", err)
		return nil, fmt.Errorf("failed to create world: %w", err)
	}
	if cfg.Debug {
		w.logs.root.SetDebug(true)
	}
	w.logs = newWorldLoggers(w.logs.root)

	// Half of the scratch budget goes to EPA edges, the rest to island
	// solving.
	islandBytes := cfg.StackSize / 6
	w.arena = arena.New(cfg.StackSize / 2)
	w.byID = make(map[uuid.UUID]slotmap.Handle[Body])
	w.positions = arena.NewStackAllocator[islandPosition](islandBytes)
	w.velocities = arena.NewStackAllocator[islandVelocity](islandBytes)
	w.constraints = arena.NewStackAllocator[contactConstraint](islandBytes)
	w.contactManager = newContactManager(cfg, w.arena)
	w.logs.root.Debugf("world created: gravity=%v velocity_iterations=%d position_iterations=%d",
		cfg.Gravity, cfg.VelocityIterations, cfg.PositionIterations)
	return w, nil
}

func (w *World) Config() Config                  { return w.cfg }
func (w *World) Logger() Logger                  { return w.logs.root }
func (w *World) Arena() *arena.Arena             { return w.arena }
func (w *World) ContactManager() *ContactManager { return w.contactManager }
func (w *World) BodyCount() int                  { return w.bodies.Len() }
func (w *World) ContactCount() int               { return w.contactManager.ContactCount() }
func (w *World) Stats() Stats                    { return w.stats }
func (w *World) IsLocked() bool                  { return w.locked }

func (w *World) SetGravity(g mgl32.Vec3) {
	w.cfg.Gravity = g
}

func (w *World) CreateBody(def BodyDef) (*Body, error) {
	if w.locked {
		return nil, fmt.Errorf("failed to create body: %w", ErrWorldLocked)
	}
	b := newBody(w, def)
	b.handle = w.bodies.Insert(b)
	w.byID[b.id] = b.handle
	w.logs.bodies.Debugf("%s created: type=%s position=%v", b.id, b.typ, b.xf.Position)
	return b, nil
}

// DestroyBody removes the body together with its contacts, proxies and
// fixtures.
func (w *World) DestroyBody(b *Body) error {
	if w.locked {
		return fmt.Errorf("failed to destroy body: %w", ErrWorldLocked)
	}
	if b == nil || b.world != w || !w.bodies.Contains(b.handle) {
		return fmt.Errorf("failed to destroy body: %w", ErrBodyDestroyed)
	}

	for len(b.links) > 0 {
		c := w.contactManager.contacts.MustGet(b.links[len(b.links)-1].Contact)
		w.contactManager.Destroy(c)
	}
	for _, f := range b.fixtures {
		f.destroyProxies(w.contactManager.broadPhase)
		w.fixtures.Remove(f.handle)
		f.body = nil
	}
	b.fixtures = nil

	w.bodies.Remove(b.handle)
	delete(w.byID, b.id)
	b.world = nil
	w.logs.bodies.Debugf("%s destroyed", b.id)
	return nil
}

func (w *World) Body(h slotmap.Handle[Body]) (*Body, bool) {
	return w.bodies.Get(h)
}

func (w *World) BodyByID(id uuid.UUID) (*Body, bool) {
	h, ok := w.byID[id]
	if !ok {
		return nil, false
	}
	return w.bodies.Get(h)
}

// Bodies yields every body in slot order.
func (w *World) Bodies() iter.Seq[*Body] {
	return func(yield func(*Body) bool) {
		w.bodies.Each(func(_ slotmap.Handle[Body], b *Body) bool {
			return yield(b)
		})
	}
}

// RegisterBodyForce queues a force on the body behind h.
func (w *World) RegisterBodyForce(h slotmap.Handle[Body], f mgl32.Vec3) error {
	b, ok := w.bodies.Get(h)
	if !ok {
		return fmt.Errorf("failed to register force: %w", ErrBodyDestroyed)
	}
	b.RegisterForce(f)
	return nil
}

// QueryAABB calls fn for every fixture whose fat bounds overlap aabb until fn
// returns false.
func (w *World) QueryAABB(aabb geom.AABB, fn func(f *Fixture) bool) {
	bp := w.contactManager.broadPhase
	bp.Tree().Query(aabb, func(id int32) bool {
		return fn(bp.Data(id).fixture)
	})
}

// StartFrame moves every body's queued forces into its accumulators.
func (w *World) StartFrame() {
	w.bodies.Each(func(_ slotmap.Handle[Body], b *Body) bool {
		b.drainForces()
		return true
	})
}

// Step advances the simulation by dt. A non-positive dt does nothing.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		w.logs.steps.Debugf("skipped: dt=%v", dt)
		return
	}
	w.locked = true
	defer func() { w.locked = false }()

	w.contactManager.Collide()
	w.solve(dt)
	w.contactManager.FindNewContacts()

	w.stats.Steps++
	w.collectStats()
	if w.logs.steps.DebugEnabled() {
		s := w.stats
		w.logs.steps.Debugf("step %d: bodies=%d awake=%d contacts=%d touching=%d islands=%d slept=%d",
			s.Steps, s.Bodies, s.AwakeBodies, s.Contacts, s.TouchingContacts, s.Islands, s.SleptIslands)
	}
}

func (w *World) solve(dt float32) {
	w.stats.Islands = 0
	w.stats.SleptIslands = 0

	w.bodies.Each(func(_ slotmap.Handle[Body], b *Body) bool {
		b.flags &^= bodyInIsland
		return true
	})
	w.contactManager.contacts.Each(func(_ slotmap.Handle[Contact], c *Contact) bool {
		c.flags &^= contactInIsland
		return true
	})

	isl := &w.island
	w.bodies.Each(func(_ slotmap.Handle[Body], seed *Body) bool {
		if seed.flags&bodyInIsland != 0 || !seed.awake || seed.typ == StaticBody {
			return true
		}
		isl.clear()
		w.growIsland(isl, seed)
		w.solveIsland(isl, dt)
		w.stats.Islands++

		// Static bodies may take part in other islands.
		for _, b := range isl.bodies {
			if b.typ == StaticBody {
				b.flags &^= bodyInIsland
			}
		}
		return true
	})
	isl.clear()

	w.bodies.Each(func(_ slotmap.Handle[Body], b *Body) bool {
		if b.flags&bodyInIsland == 0 || b.typ == StaticBody {
			return true
		}
		b.applyPositionCorrection()
		b.updateInertiaWorld()
		b.synchronizeFixtures()
		return true
	})
}

func (w *World) collectStats() {
	s := &w.stats
	s.Bodies = w.bodies.Len()
	s.Contacts = w.contactManager.ContactCount()
	s.AwakeBodies = 0
	s.TouchingContacts = 0
	w.bodies.Each(func(_ slotmap.Handle[Body], b *Body) bool {
		if b.awake {
			s.AwakeBodies++
		}
		return true
	})
	w.contactManager.contacts.Each(func(_ slotmap.Handle[Contact], c *Contact) bool {
		if c.IsTouching() {
			s.TouchingContacts++
		}
		return true
	})
	s.Proxies = w.contactManager.broadPhase.ProxyCount()
	s.TreeHeight = w.contactManager.broadPhase.Tree().Height()
}
