package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/trajcost/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// CartPole is a pole hinged on a cart pushed by a single horizontal force.
// State: [pos, vel, theta, omega]; theta = 0 is upright.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64 // hinge to pole center
	Gravity    float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   1.0,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    DefaultGravity,
	}
}

func (c *CartPole) StateDim() int   { return 4 }
func (c *CartPole) ControlDim() int { return 1 }

func (c *CartPole) Actuators() []string           { return []string{"cart_force"} }
func (c *CartPole) ControlLayout() map[string]int { return map[string]int{"cart_force": 0} }

func (c *CartPole) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel, theta, omega := x[1], x[2], x[3]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	mc, mp, l, g := c.CartMass, c.PoleMass, c.PoleLength, c.Gravity
	sint, cost := math.Sincos(theta)

	temp := (force + mp*l*omega*omega*sint) / (mc + mp)
	thetaAcc := (g*sint - cost*temp) / (l * (4.0/3.0 - mp*cost*cost/(mc+mp)))
	xAcc := temp - mp*l*thetaAcc*cost/(mc+mp)

	return dynamo.State{vel, xAcc, omega, thetaAcc}
}

// MassCenter returns the combined center of cart and pole in the x-y plane.
func (c *CartPole) MassCenter(x dynamo.State) r3.Vec {
	pos, theta := x[0], x[2]
	sint, cost := math.Sincos(theta)
	masses := []float64{c.CartMass, c.PoleMass}
	xs := []float64{pos, pos + c.PoleLength*sint}
	ys := []float64{0, c.PoleLength * cost}
	total := floats.Sum(masses)
	return r3.Vec{
		X: floats.Dot(masses, xs) / total,
		Y: floats.Dot(masses, ys) / total,
	}
}

func (c *CartPole) GetParams() map[string]float64 {
	return map[string]float64{
		"cart_mass":   c.CartMass,
		"pole_mass":   c.PoleMass,
		"pole_length": c.PoleLength,
		"gravity":     c.Gravity,
	}
}

func (c *CartPole) SetParam(name string, value float64) error {
	switch name {
	case "cart_mass":
		c.CartMass = value
	case "pole_mass":
		c.PoleMass = value
	case "pole_length":
		c.PoleLength = value
	case "gravity":
		c.Gravity = value
	default:
		return fmt.Errorf("cartpole: unknown param: %s", name)
	}
	return nil
}
