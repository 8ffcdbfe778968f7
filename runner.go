package rigid

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gekko3d/rigid/slotmap"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// BodyState is a body as published after a step.
type BodyState struct {
	ID              uuid.UUID
	Handle          slotmap.Handle[Body]
	Type            BodyType
	Position        mgl32.Vec3
	Rotation        mgl32.Quat
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3
	Awake           bool
	TouchCount      int
	UserData        any
}

// Snapshot is the state of every body after one runner tick.
type Snapshot struct {
	Step   int
	Time   float32
	Bodies []BodyState
	Stats  Stats
}

// Runner steps a World at a fixed rate on its own goroutine. Other goroutines
// talk to the world only through Submit and read it through Latest.
type Runner struct {
	world *World
	hz    float32

	mu      sync.Mutex
	pending []func(*World) error

	latest atomic.Pointer[Snapshot]
	steps  int
}

func NewRunner(w *World, hz float32) (*Runner, error) {
	if hz <= 0 {
		return nil, fmt.Errorf("%w: runner frequency %v must be positive", ErrInvalidConfig, hz)
	}
	return &Runner{world: w, hz: hz}, nil
}

func (r *Runner) Dt() float32 { return 1 / r.hz }

// Submit queues fn to run on the stepping goroutine before the next step.
func (r *Runner) Submit(fn func(w *World) error) {
	r.mu.Lock()
	r.pending = append(r.pending, fn)
	r.mu.Unlock()
}

// RegisterForce queues a force for the body with the given ID.
func (r *Runner) RegisterForce(id uuid.UUID, f mgl32.Vec3) {
	r.Submit(func(w *World) error {
		b, ok := w.BodyByID(id)
		if !ok {
			return fmt.Errorf("failed to register force on %s: %w", id, ErrBodyDestroyed)
		}
		b.RegisterForce(f)
		return nil
	})
}

// Latest returns the most recent snapshot, or nil before the first tick.
func (r *Runner) Latest() *Snapshot {
	return r.latest.Load()
}

// Tick applies queued commands, starts the frame, steps once and publishes a
// snapshot. Command errors are logged and do not stop the step.
func (r *Runner) Tick() *Snapshot {
	r.mu.Lock()
	cmds := r.pending
	r.pending = nil
	r.mu.Unlock()

	w := r.world
	for _, fn := range cmds {
		if err := fn(w); err != nil {
			w.logs.runner.Warnf("command failed: %v", err)
		}
	}

	dt := r.Dt()
	w.StartFrame()
	w.Step(dt)
	r.steps++

	snap := &Snapshot{
		Step:   r.steps,
		Time:   float32(r.steps) * dt,
		Bodies: make([]BodyState, 0, w.BodyCount()),
		Stats:  w.Stats(),
	}
	for b := range w.Bodies() {
		snap.Bodies = append(snap.Bodies, BodyState{
			ID:              b.id,
			Handle:          b.handle,
			Type:            b.typ,
			Position:        b.xf.Position,
			Rotation:        b.xf.Rotation,
			LinearVelocity:  b.linearVelocity,
			AngularVelocity: b.angularVelocity,
			Awake:           b.awake,
			TouchCount:      b.TouchCount(),
			UserData:        b.userData,
		})
	}
	r.latest.Store(snap)
	return snap
}

// Run ticks at the runner frequency until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / float64(r.hz)))
	defer ticker.Stop()

	r.world.logs.runner.Infof("started: hz=%v", r.hz)
	for {
		select {
		case <-ctx.Done():
			r.world.logs.runner.Infof("stopped after %d steps", r.steps)
			return ctx.Err()
		case <-ticker.C:
			r.Tick()
		}
	}
}
