package integrators

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
)

// Rule selects how sampled integrand values are summed into a path integral.
type Rule string

const (
	Trapezoid Rule = "trapezoid"
	Simpson   Rule = "simpson"
)

var ErrQuadrature = errors.New("integrators: invalid quadrature input")

func ParseRule(name string) (Rule, error) {
	switch Rule(name) {
	case Trapezoid, "":
		return Trapezoid, nil
	case Simpson:
		return Simpson, nil
	}
	return "", fmt.Errorf("unknown quadrature rule: %s", name)
}

// Quadrature integrates f sampled at times. Fewer than two samples give a
// zero integral; Simpson falls back to the trapezoid rule below three.
func Quadrature(rule Rule, times, f []float64) (float64, error) {
	if len(times) != len(f) {
		return 0, fmt.Errorf("%w: %d times, %d values", ErrQuadrature, len(times), len(f))
	}
	if len(times) < 2 {
		return 0, nil
	}
	if !sort.Float64sAreSorted(times) {
		return 0, fmt.Errorf("%w: times not sorted", ErrQuadrature)
	}

	switch rule {
	case Simpson:
		if len(times) >= 3 {
			return integrate.Simpsons(times, f), nil
		}
		return integrate.Trapezoidal(times, f), nil
	case Trapezoid, "":
		return integrate.Trapezoidal(times, f), nil
	}
	return 0, fmt.Errorf("unknown quadrature rule: %s", rule)
}
