package goal_test

import (
	"bytes"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
)

var _ = Describe("ControlGoal", func() {
	var (
		model *fakeModel
		g     *goal.ControlGoal
	)

	BeforeEach(func() {
		model = newFakeModel("A", "B", "C")
		g = goal.NewControlGoal("effort")
	})

	Describe("Initialize", func() {
		It("binds every control with the default weight when no weights are set", func() {
			Expect(g.Initialize(model)).To(Succeed())
			Expect(g.Bound()).To(Equal([]goal.BoundControl{
				{Index: 0, Weight: 1, Name: "A"},
				{Index: 1, Weight: 1, Name: "B"},
				{Index: 2, Weight: 1, Name: "C"},
			}))
			Expect(g.NumIntegrals()).To(Equal(1))
			Expect(g.NumOutputs()).To(Equal(1))
		})

		It("drops zero-weighted controls and keeps model order", func() {
			g.SetWeightForControl("C", 0)
			g.SetWeightForControl("A", 2)
			Expect(g.Initialize(model)).To(Succeed())
			Expect(g.Bound()).To(Equal([]goal.BoundControl{
				{Index: 0, Weight: 2, Name: "A"},
				{Index: 1, Weight: 1, Name: "B"},
			}))
		})

		It("never binds more controls than the model has", func() {
			for _, ws := range [][]goal.Weight{
				nil,
				{{Name: "A", Weight: 0}},
				{{Name: "A", Weight: 0}, {Name: "B", Weight: 0}, {Name: "C", Weight: 0}},
				{{Name: "B", Weight: -3}},
			} {
				g.SetWeights(goal.NewWeightSet(ws...))
				Expect(g.Initialize(model)).To(Succeed())
				nonzero := len(model.names)
				for _, w := range ws {
					if w.Weight == 0 {
						nonzero--
					}
				}
				Expect(g.Bound()).To(HaveLen(nonzero))
			}
		})

		It("rejects a weight for an unknown control even alongside valid ones", func() {
			g.SetWeightForControl("A", 3)
			g.SetWeightForControl("thruster", 1)
			err := g.Initialize(model)
			Expect(err).To(MatchError(goal.ErrUnrecognizedControl))

			var cfgErr *goal.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Value).To(ContainSubstring("thruster"))
		})

		It("rejects non-finite weights", func() {
			g.SetWeightForControl("B", math.NaN())
			Expect(g.Initialize(model)).To(MatchError(goal.ErrInvalidWeight))
		})

		DescribeTable("exponent validation",
			func(p float64, ok bool) {
				g.SetExponent(p)
				err := g.Initialize(model)
				if ok {
					Expect(err).NotTo(HaveOccurred())
					return
				}
				Expect(err).To(MatchError(goal.ErrInvalidExponent))
				var cfgErr *goal.ConfigError
				Expect(errors.As(err, &cfgErr)).To(BeTrue())
				Expect(cfgErr.Field).To(Equal("exponent"))
			},
			Entry("exactly 2", 2.0, true),
			Entry("non-integer above 2", 2.5, true),
			Entry("integer 4", 4.0, true),
			Entry("just below 2", 1.999, false),
			Entry("one", 1.0, false),
			Entry("NaN", math.NaN(), false),
			Entry("+Inf", math.Inf(1), false),
		)

		It("reports a control order mismatch from the model", func() {
			model.orderErr = errors.New("controls reordered")
			Expect(g.Initialize(model)).To(MatchError(goal.ErrControlOrder))
		})

		It("reports a name missing from the index map as an order mismatch", func() {
			delete(model.layout, "B")
			Expect(g.Initialize(model)).To(MatchError(goal.ErrControlOrder))
		})

		It("keeps the previous binding when re-initialization fails", func() {
			Expect(g.Initialize(model)).To(Succeed())
			g.SetExponent(1)
			Expect(g.Initialize(model)).NotTo(Succeed())
			Expect(g.Bound()).To(HaveLen(3))
		})
	})

	Describe("Integrand", func() {
		It("fails before Initialize", func() {
			_, err := g.Integrand(&dynamo.Node{U: dynamo.Control{1, 2, 3}})
			Expect(err).To(MatchError(goal.ErrNotInitialized))
		})

		It("matches the worked example", func() {
			g.SetWeightForControl("A", 2)
			g.SetWeightForControl("C", 0)
			Expect(g.Initialize(model)).To(Succeed())

			v, err := g.Integrand(&dynamo.Node{U: dynamo.Control{3, -1, 5}})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("==", 19))
			Expect(model.realized).To(Equal(1))
		})

		It("is the sum of squares by default", func() {
			Expect(g.Initialize(model)).To(Succeed())
			v, err := g.Integrand(&dynamo.Node{U: dynamo.Control{1, -2, 3}})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("~", 14, 1e-12))
		})

		It("equals the sum without a zero-weighted control", func() {
			u := dynamo.Control{0.7, -1.3, 9.0}

			g.SetWeightForControl("C", 0)
			Expect(g.Initialize(model)).To(Succeed())
			withZero, err := g.Integrand(&dynamo.Node{U: u})
			Expect(err).NotTo(HaveOccurred())

			reduced := goal.NewControlGoal("reduced")
			Expect(reduced.Initialize(newFakeModel("A", "B"))).To(Succeed())
			without, err := reduced.Integrand(&dynamo.Node{U: u[:2]})
			Expect(err).NotTo(HaveOccurred())

			Expect(withZero).To(BeNumerically("~", without, 1e-12))
		})

		It("is symmetric in the sign of every control", func() {
			g.SetExponent(3)
			g.SetWeightForControl("B", 0.5)
			Expect(g.Initialize(model)).To(Succeed())

			base, err := g.Integrand(&dynamo.Node{U: dynamo.Control{1.5, -2, 0.25}})
			Expect(err).NotTo(HaveOccurred())
			for mask := 0; mask < 8; mask++ {
				u := dynamo.Control{1.5, -2, 0.25}
				for i := range u {
					if mask&(1<<i) != 0 {
						u[i] = -u[i]
					}
				}
				v, err := g.Integrand(&dynamo.Node{U: u})
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(BeNumerically("~", base, 1e-12))
				Expect(v).To(BeNumerically(">=", 0))
			}
		})

		It("applies non-integer exponents to magnitudes", func() {
			g.SetExponent(2.5)
			g.SetWeightForControl("A", 0)
			g.SetWeightForControl("C", 0)
			Expect(g.Initialize(model)).To(Succeed())
			v, err := g.Integrand(&dynamo.Node{U: dynamo.Control{0, -4, 0}})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("~", 32, 1e-9))
		})

		It("propagates realization failures", func() {
			Expect(g.Initialize(model)).To(Succeed())
			_, err := g.Integrand(&dynamo.Node{U: dynamo.Control{1}})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Cost", func() {
		node := func(x, y, z float64) *dynamo.Node {
			return &dynamo.Node{X: dynamo.State{x, y, z}}
		}

		It("passes the integral through without normalization", func() {
			Expect(g.Initialize(model)).To(Succeed())
			cost, err := g.Cost(goal.Input{Integral: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(cost).To(Equal([]float64{10}))
		})

		It("divides by the mass-center displacement", func() {
			g.SetDivideByDisplacement(true)
			Expect(g.Initialize(model)).To(Succeed())
			cost, err := g.Cost(goal.Input{Integral: 10, Initial: node(0, 0, 0), Final: node(3, 4, 0)})
			Expect(err).NotTo(HaveOccurred())
			Expect(cost).To(HaveLen(1))
			Expect(cost[0]).To(BeNumerically("~", 2.0, 1e-12))
		})

		It("fails on zero displacement", func() {
			g.SetDivideByDisplacement(true)
			Expect(g.Initialize(model)).To(Succeed())
			_, err := g.Cost(goal.Input{Integral: 10, Initial: node(1, 2, 3), Final: node(1, 2, 3)})
			Expect(err).To(MatchError(goal.ErrDegenerateDisplacement))
		})

		It("requires both endpoints when normalizing", func() {
			g.SetDivideByDisplacement(true)
			Expect(g.Initialize(model)).To(Succeed())
			_, err := g.Cost(goal.Input{Integral: 1, Initial: node(0, 0, 0)})
			Expect(err).To(MatchError(goal.ErrMissingEndpoint))
		})

		It("uses the normalization setting frozen at Initialize", func() {
			Expect(g.Initialize(model)).To(Succeed())
			g.SetDivideByDisplacement(true)
			cost, err := g.Cost(goal.Input{Integral: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(cost).To(Equal([]float64{4}))
		})
	})

	Describe("Describe", func() {
		It("lists bound controls in frozen order", func() {
			g.SetWeightForControl("B", 0)
			g.SetWeightForControl("C", 0.25)
			Expect(g.Initialize(model)).To(Succeed())

			var buf bytes.Buffer
			Expect(g.Describe(&buf)).To(Succeed())
			Expect(buf.String()).To(Equal(
				"        control: A, weight: 1\n" +
					"        control: C, weight: 0.25\n"))
		})

		It("fails before Initialize", func() {
			var buf bytes.Buffer
			Expect(g.Describe(&buf)).To(MatchError(goal.ErrNotInitialized))
		})
	})
})
