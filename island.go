package rigid

import (
	"github.com/chewxy/math32"
)

// island is a set of bodies and touching contacts solved together. Its slices
// are reused between steps.
type island struct {
	bodies   []*Body
	contacts []*Contact
}

func (isl *island) clear() {
	clear(isl.bodies)
	clear(isl.contacts)
	isl.bodies = isl.bodies[:0]
	isl.contacts = isl.contacts[:0]
}

func (isl *island) addBody(b *Body) {
	b.islandIndex = len(isl.bodies)
	b.flags |= bodyInIsland
	isl.bodies = append(isl.bodies, b)
}

func (isl *island) addContact(c *Contact) {
	c.flags |= contactInIsland
	isl.contacts = append(isl.contacts, c)
}

// growIsland collects everything reachable from seed through touching solid
// contacts. Static bodies join but do not propagate; sleeping bodies reached
// this way are woken.
func (w *World) growIsland(isl *island, seed *Body) {
	stack := append(w.dfs[:0], seed)
	isl.addBody(seed)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.SetAwake(true)
		if b.typ == StaticBody {
			continue
		}

		for _, l := range b.links {
			c := w.contactManager.contacts.MustGet(l.Contact)
			if c.flags&contactInIsland != 0 || !c.IsTouching() || c.isSensor() {
				continue
			}
			isl.addContact(c)

			other := w.bodies.MustGet(l.Other)
			if other.flags&bodyInIsland != 0 {
				continue
			}
			isl.addBody(other)
			stack = append(stack, other)
		}
	}
	clear(stack)
	w.dfs = stack[:0]
}

// solveIsland integrates and solves one island. Position corrections are only
// collected here; the world applies them after every island has run.
func (w *World) solveIsland(isl *island, dt float32) {
	cfg := &w.cfg
	n := len(isl.bodies)

	posScope := w.positions.Scope()
	defer posScope.Release()
	velScope := w.velocities.Scope()
	defer velScope.Release()
	conScope := w.constraints.Scope()
	defer conScope.Release()

	solver := contactSolver{
		cfg:         cfg,
		positions:   w.positions.Allocate(n),
		velocities:  w.velocities.Allocate(n),
		constraints: w.constraints.Allocate(len(isl.contacts)),
	}

	for i, b := range isl.bodies {
		b.islandIndex = i
		b.integrateVelocity(dt, cfg.Gravity)
		solver.velocities[i].linear = b.linearVelocity
		solver.velocities[i].angular = b.angularVelocity
	}

	solver.init(isl.contacts)
	for i := 0; i < cfg.VelocityIterations; i++ {
		solver.solveVelocityConstraints()
	}

	for i, b := range isl.bodies {
		if b.typ == StaticBody {
			continue
		}
		b.linearVelocity = solver.velocities[i].linear
		b.angularVelocity = solver.velocities[i].angular
		b.integratePosition(dt)
	}

	for i := 0; i < cfg.PositionIterations; i++ {
		solver.solvePositionConstraints()
	}
	for i, b := range isl.bodies {
		b.positionCorrected = b.positionCorrected.Add(solver.positions[i].buffer)
	}

	if !cfg.AllowSleep {
		return
	}
	solver.markRestless()
	minSleep := math32.Inf(1)
	for i, b := range isl.bodies {
		if b.typ == StaticBody {
			continue
		}
		b.updateSleep(dt, solver.positions[i].restless, cfg)
		minSleep = math32.Min(minSleep, b.sleepTime)
	}
	if minSleep >= cfg.TimeToSleep {
		for _, b := range isl.bodies {
			b.SetAwake(false)
		}
		w.stats.SleptIslands++
	}
}
