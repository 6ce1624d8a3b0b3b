package physics

import (
	"math"
	"testing"

	"github.com/san-kum/trajcost/internal/dynamo"
)

func TestDroneDims(t *testing.T) {
	d := NewDrone()
	if d.StateDim() != 6 {
		t.Errorf("expected 6 states, got %d", d.StateDim())
	}
	if d.ControlDim() != len(d.Actuators()) {
		t.Errorf("control dim %d does not match %d actuators", d.ControlDim(), len(d.Actuators()))
	}
}

func TestDroneLayoutMatchesActuators(t *testing.T) {
	d := NewDrone()
	layout := d.ControlLayout()
	for i, name := range d.Actuators() {
		if layout[name] != i {
			t.Errorf("actuator %s at %d, layout says %d", name, i, layout[name])
		}
	}
}

func TestDroneHover(t *testing.T) {
	d := NewDrone()
	h := d.HoverThrust()

	dx := d.Derive(dynamo.State{0, 5, 0, 0, 0, 0}, dynamo.Control{h, h}, 0)

	for i, name := range []string{"ax", "ay", "alpha"} {
		if math.Abs(dx[3+i]) > 0.01 {
			t.Errorf("%s should be ~0, got %f", name, dx[3+i])
		}
	}
}

func TestDroneFreefall(t *testing.T) {
	d := NewDrone()
	dx := d.Derive(dynamo.State{0, 5, 0, 0, 0, 0}, dynamo.Control{0, 0}, 0)
	if math.Abs(dx[4]+d.Gravity) > 1e-9 {
		t.Errorf("expected ay=%f, got %f", -d.Gravity, dx[4])
	}
}

func TestDroneNegativeThrustClamped(t *testing.T) {
	d := NewDrone()
	x := dynamo.State{0, 5, 0, 0, 0, 0}
	a := d.Derive(x, dynamo.Control{-3, 0}, 0)
	b := d.Derive(x, dynamo.Control{0, 0}, 0)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("negative thrust changed derivative %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestDroneTorque(t *testing.T) {
	d := NewDrone()
	dx := d.Derive(dynamo.State{0, 5, 0, 0, 0, 0}, dynamo.Control{0, 5}, 0)
	if dx[5] <= 0 {
		t.Errorf("angular acceleration should be positive, got %f", dx[5])
	}
}

func TestDroneMassCenter(t *testing.T) {
	c := NewDrone().MassCenter(dynamo.State{3, 4, 1.2, 9, 9, 9})
	if c.X != 3 || c.Y != 4 || c.Z != 0 {
		t.Errorf("unexpected mass center %+v", c)
	}
}

func TestDroneSetParam(t *testing.T) {
	d := NewDrone()
	if err := d.SetParam("mass", 2); err != nil {
		t.Fatal(err)
	}
	if d.GetParams()["mass"] != 2 {
		t.Errorf("mass not updated")
	}
	if err := d.SetParam("bogus", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}
