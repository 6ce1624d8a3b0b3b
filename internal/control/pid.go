package control

import (
	"fmt"

	"github.com/san-kum/trajcost/internal/dynamo"
)

// PID regulates x[0] toward Target and writes the same signal to each of
// Dim actuators.
type PID struct {
	Kp, Ki, Kd float64
	Target     float64
	Dim        int

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64, dim int) *PID {
	if dim < 1 {
		dim = 1
	}
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target, Dim: dim, first: true}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) == 0 {
		return make(dynamo.Control, p.Dim)
	}

	err := p.Target - x[0]
	out := p.Kp * err

	if p.first {
		p.first = false
	} else if dt := t - p.prevT; dt > 0 {
		p.integral += err * dt
		out += p.Ki*p.integral + p.Kd*(err-p.prevErr)/dt
	}
	p.prevErr = err
	p.prevT = t

	u := make(dynamo.Control, p.Dim)
	for i := range u {
		u[i] = out
	}
	return u
}

// Reset clears integral and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":     p.Kp,
		"ki":     p.Ki,
		"kd":     p.Kd,
		"target": p.Target,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	default:
		return fmt.Errorf("pid: unknown param: %s", name)
	}
	return nil
}
