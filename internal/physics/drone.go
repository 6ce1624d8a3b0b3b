package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/trajcost/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

var droneActuators = []string{"thrust_left", "thrust_right"}

// Drone is a planar quadrotor with two rotors.
// State: [x, y, theta, vx, vy, omega], controls: [thrust_left, thrust_right].
type Drone struct {
	Mass, Inertia, ArmLength float64
	Gravity, DragCoeff       float64
	AngDrag                  float64
}

func NewDrone() *Drone {
	return &Drone{
		Mass:      DefaultMass,
		Inertia:   0.1,
		ArmLength: 0.25,
		Gravity:   DefaultGravity,
		DragCoeff: 0.1,
		AngDrag:   0.05,
	}
}

func (d *Drone) StateDim() int   { return 6 }
func (d *Drone) ControlDim() int { return len(droneActuators) }

func (d *Drone) Actuators() []string { return append([]string(nil), droneActuators...) }

func (d *Drone) ControlLayout() map[string]int {
	return map[string]int{"thrust_left": 0, "thrust_right": 1}
}

func (d *Drone) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, vx, vy, omega := x[2], x[3], x[4], x[5]

	thrustL, thrustR := 0.0, 0.0
	if len(u) >= 2 {
		thrustL, thrustR = u[0], u[1]
	}

	// rotors only push
	thrustL = math.Max(0, thrustL)
	thrustR = math.Max(0, thrustR)

	totalThrust := thrustL + thrustR
	torque := (thrustR - thrustL) * d.ArmLength

	sin, cos := math.Sincos(theta)
	fx := -totalThrust*sin - d.DragCoeff*vx
	fy := totalThrust*cos - d.Mass*d.Gravity - d.DragCoeff*vy

	return dynamo.State{
		vx, vy, omega,
		fx / d.Mass,
		fy / d.Mass,
		(torque - d.AngDrag*omega) / d.Inertia,
	}
}

func (d *Drone) MassCenter(x dynamo.State) r3.Vec {
	return r3.Vec{X: x[0], Y: x[1]}
}

func (d *Drone) HoverThrust() float64 {
	return d.Mass * d.Gravity / 2.0
}

func (d *Drone) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       d.Mass,
		"gravity":    d.Gravity,
		"drag":       d.DragCoeff,
		"ang_drag":   d.AngDrag,
		"arm_length": d.ArmLength,
		"inertia":    d.Inertia,
	}
}

func (d *Drone) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		d.Mass = value
	case "gravity":
		d.Gravity = value
	case "drag":
		d.DragCoeff = value
	case "ang_drag":
		d.AngDrag = value
	case "arm_length":
		d.ArmLength = value
	case "inertia":
		d.Inertia = value
	default:
		return fmt.Errorf("drone: unknown param: %s", name)
	}
	return nil
}
