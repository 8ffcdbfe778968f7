package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gekko3d/rigid"
	"github.com/gekko3d/rigid/shape"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or TOML world config")
	steps := flag.Int("steps", 600, "Number of steps to simulate")
	hz := flag.Float64("hz", 60, "Steps per simulated second")
	every := flag.Int("every", 60, "Print body state every N steps (0 disables)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if err := run(*configPath, *steps, float32(*hz), *every, *debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, steps int, hz float32, every int, debug bool) error {
	cfg := rigid.DefaultConfig()
	if configPath != "" {
		loaded, err := rigid.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Debug = cfg.Debug || debug

	logger := rigid.NewDefaultLogger("rigidsim", cfg.Debug)
	world, err := rigid.NewWorld(cfg, rigid.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := buildScene(world); err != nil {
		return err
	}

	runner, err := rigid.NewRunner(world, hz)
	if err != nil {
		return err
	}
	for i := 1; i <= steps; i++ {
		snap := runner.Tick()
		if every > 0 && i%every == 0 {
			printSnapshot(snap)
		}
	}

	s := world.Stats()
	logger.Infof("done: steps=%d bodies=%d awake=%d contacts=%d islands=%d tree_height=%d",
		s.Steps, s.Bodies, s.AwakeBodies, s.Contacts, s.Islands, s.TreeHeight)
	return nil
}

// buildScene places a static floor and drops one body of every shape kind
// onto it, plus a small box stack.
func buildScene(w *rigid.World) error {
	floor := rigid.DefaultBodyDef()
	floor.Type = rigid.StaticBody
	floor.Position = mgl32.Vec3{0, -0.5, 0}
	floor.UserData = "floor"
	if err := spawn(w, floor, shape.NewBox(mgl32.Vec3{20, 0.5, 20})); err != nil {
		return err
	}

	drops := []struct {
		name  string
		pos   mgl32.Vec3
		shape shape.Shape
	}{
		{"sphere", mgl32.Vec3{-4, 3, 0}, shape.NewSphere(0.5)},
		{"box", mgl32.Vec3{-2, 4, 0}, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5})},
		{"cylinder", mgl32.Vec3{2, 3, 0}, shape.NewCylinder(0.5, 1)},
		{"capsule", mgl32.Vec3{4, 3, 0}, shape.NewCapsule(0.3, 1)},
	}
	for _, d := range drops {
		def := rigid.DefaultBodyDef()
		def.Position = d.pos
		def.UserData = d.name
		if err := spawn(w, def, d.shape); err != nil {
			return err
		}
	}

	for i := 0; i < 3; i++ {
		def := rigid.DefaultBodyDef()
		def.Position = mgl32.Vec3{0, 0.5 + float32(i)*1.05, 3}
		def.UserData = fmt.Sprintf("stack-%d", i)
		if err := spawn(w, def, shape.NewBox(mgl32.Vec3{0.5, 0.5, 0.5})); err != nil {
			return err
		}
	}
	return nil
}

func spawn(w *rigid.World, def rigid.BodyDef, s shape.Shape) error {
	b, err := w.CreateBody(def)
	if err != nil {
		return err
	}
	fd := rigid.DefaultFixtureDef(s)
	fd.Friction = 0.5
	_, err = b.CreateFixture(fd)
	return err
}

func printSnapshot(snap *rigid.Snapshot) {
	fmt.Printf("step %d t=%.2fs\n", snap.Step, snap.Time)
	for _, b := range snap.Bodies {
		if b.Type == rigid.StaticBody {
			continue
		}
		p, v := b.Position, b.LinearVelocity
		fmt.Printf("  %-8v pos=(%6.3f %6.3f %6.3f) vel=(%6.3f %6.3f %6.3f) awake=%t\n",
			b.UserData, p.X(), p.Y(), p.Z(), v.X(), v.Y(), v.Z(), b.Awake)
	}
}
