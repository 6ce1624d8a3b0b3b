package control

import (
	"fmt"

	"github.com/san-kum/trajcost/internal/dynamo"
)

type LQR struct {
	K      [][]float64
	Target dynamo.State
	Bias   dynamo.Control // feedforward added to every output, e.g. hover thrust
}

// NewLQR copies k so tuning one controller never leaks into another.
func NewLQR(k [][]float64, target dynamo.State) *LQR {
	gains := make([][]float64, len(k))
	for i, row := range k {
		gains[i] = append([]float64(nil), row...)
	}
	return &LQR{K: gains, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	for i := range u {
		if i < len(l.Bias) {
			u[i] = l.Bias[i]
		}
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

var cartpoleGains = [][]float64{{-1.0, -1.73, 35.36, 8.94}}

func NewCartPoleLQR() *LQR {
	return NewLQR(cartpoleGains, dynamo.State{0, 0, 0, 0})
}

// NewDroneLQR holds altitude targetY with hover thrust as feedforward.
func NewDroneLQR(targetY, hoverThrust float64) *LQR {
	k := [][]float64{
		{0.0, 5.0, -10.0, 0.0, 3.5, -2.0},
		{0.0, 5.0, 10.0, 0.0, 3.5, 2.0},
	}
	l := NewLQR(k, dynamo.State{0, targetY, 0, 0, 0, 0})
	l.Bias = dynamo.Control{hoverThrust, hoverThrust}
	return l
}

// NewDiagonalLQR applies a position/velocity gain pair to each of n
// independent channels laid out as [x1, v1, x2, v2, ...].
func NewDiagonalLQR(n int, kp, kd float64) *LQR {
	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, 2*n)
		k[i][2*i] = kp
		k[i][2*i+1] = kd
	}
	return NewLQR(k, make(dynamo.State, 2*n))
}

func (l *LQR) GetParams() map[string]float64 {
	params := make(map[string]float64)
	for i, row := range l.K {
		for j, v := range row {
			params[fmt.Sprintf("k%d_%d", i, j)] = v
		}
	}
	return params
}

func (l *LQR) SetParam(name string, value float64) error {
	var i, j int
	if _, err := fmt.Sscanf(name, "k%d_%d", &i, &j); err != nil {
		return fmt.Errorf("lqr: unknown param: %s", name)
	}
	if i < 0 || i >= len(l.K) || j < 0 || j >= len(l.K[i]) {
		return fmt.Errorf("lqr: gain %s out of range", name)
	}
	l.K[i][j] = value
	return nil
}
