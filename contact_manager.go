package rigid

import (
	"github.com/gekko3d/rigid/arena"
	"github.com/gekko3d/rigid/broadphase"
	"github.com/gekko3d/rigid/slotmap"
)

// ContactManager owns the broad phase and every live contact.
type ContactManager struct {
	broadPhase *broadphase.BroadPhase[*fixtureProxy]
	contacts   slotmap.Map[Contact]
	arena      *arena.Arena
}

func newContactManager(cfg Config, ar *arena.Arena) *ContactManager {
	return &ContactManager{
		broadPhase: broadphase.New[*fixtureProxy](cfg.AABBExtension, cfg.AABBMultiplier),
		arena:      ar,
	}
}

func (cm *ContactManager) ContactCount() int {
	return cm.contacts.Len()
}

// Each visits every contact until fn returns false.
func (cm *ContactManager) Each(fn func(c *Contact) bool) {
	cm.contacts.Each(func(_ slotmap.Handle[Contact], c *Contact) bool {
		return fn(c)
	})
}

// FindNewContacts creates a contact for every new broad-phase pair that may
// collide.
func (cm *ContactManager) FindNewContacts() {
	cm.broadPhase.UpdatePairs(cm.addPair)
}

func (cm *ContactManager) addPair(pa, pb *fixtureProxy) {
	fa, fb := pa.fixture, pb.fixture
	bodyA, bodyB := fa.body, fb.body
	if bodyA == bodyB {
		return
	}
	if !shouldCollide(fa, fb) {
		return
	}
	if cm.exists(bodyB, fa, pa.childIndex, fb, pb.childIndex) {
		return
	}

	c := newContact(fa, pa.childIndex, fb, pb.childIndex)
	c.handle = cm.contacts.Insert(c)
	bodyA.addLink(ContactLink{Other: bodyB.handle, Contact: c.handle})
	bodyB.addLink(ContactLink{Other: bodyA.handle, Contact: c.handle})
}

// exists walks b's links for a contact between the same fixture children.
func (cm *ContactManager) exists(b *Body, fa *Fixture, childA int, fb *Fixture, childB int) bool {
	for _, l := range b.links {
		if l.Other != fa.body.handle {
			continue
		}
		if c, ok := cm.contacts.Get(l.Contact); ok && c.matches(fa, childA, fb, childB) {
			return true
		}
	}
	return false
}

// Collide updates every contact with an active body. Contacts whose fat
// bounds separated or whose fixtures stopped passing the filter are
// destroyed.
func (cm *ContactManager) Collide() {
	cm.contacts.Each(func(_ slotmap.Handle[Contact], c *Contact) bool {
		fa, fb := c.fixtureA, c.fixtureB
		activeA := fa.body.awake && fa.body.typ != StaticBody
		activeB := fb.body.awake && fb.body.typ != StaticBody
		if !activeA && !activeB {
			return true
		}
		if !shouldCollide(fa, fb) {
			cm.Destroy(c)
			return true
		}
		idA := fa.proxies[c.childA].proxyID
		idB := fb.proxies[c.childB].proxyID
		if !cm.broadPhase.TestOverlap(idA, idB) {
			cm.Destroy(c)
			return true
		}
		c.update(cm.arena)
		return true
	})
}

// Destroy unlinks c from both bodies and releases it. A touching sensor
// contact gives back its touch counts.
func (cm *ContactManager) Destroy(c *Contact) {
	if c.isSensor() && c.IsTouching() {
		c.fixtureA.touchCount--
		c.fixtureB.touchCount--
	}
	c.fixtureA.body.removeLink(c.handle)
	c.fixtureB.body.removeLink(c.handle)
	cm.contacts.Remove(c.handle)
}
