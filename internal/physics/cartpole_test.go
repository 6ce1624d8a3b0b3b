package physics

import (
	"math"
	"testing"

	"github.com/san-kum/trajcost/internal/dynamo"
)

func TestCartPoleUprightEquilibrium(t *testing.T) {
	c := NewCartPole()
	dx := c.Derive(dynamo.State{0, 0, 0, 0}, dynamo.Control{0}, 0)
	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("dx[%d] = %g, want 0", i, v)
		}
	}
}

func TestCartPoleForcePushesCart(t *testing.T) {
	c := NewCartPole()
	dx := c.Derive(dynamo.State{0, 0, 0, 0}, dynamo.Control{10}, 0)
	if dx[1] <= 0 {
		t.Errorf("expected positive cart acceleration, got %f", dx[1])
	}
	if dx[3] >= 0 {
		t.Errorf("expected pole to tip backwards, got %f", dx[3])
	}
}

func TestCartPoleMassCenter(t *testing.T) {
	c := NewCartPole()
	total := c.CartMass + c.PoleMass

	tests := []struct {
		name  string
		x     dynamo.State
		wantX float64
		wantY float64
	}{
		{"upright at origin", dynamo.State{0, 0, 0, 0}, 0, c.PoleMass * c.PoleLength / total},
		{"shifted", dynamo.State{2, 0, 0, 0}, 2, c.PoleMass * c.PoleLength / total},
		{"horizontal pole", dynamo.State{0, 0, math.Pi / 2, 0}, c.PoleMass * c.PoleLength / total, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.MassCenter(tt.x)
			if math.Abs(got.X-tt.wantX) > 1e-12 || math.Abs(got.Y-tt.wantY) > 1e-12 {
				t.Errorf("MassCenter = %+v, want (%g, %g)", got, tt.wantX, tt.wantY)
			}
		})
	}
}
