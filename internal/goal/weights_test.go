package goal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/trajcost/internal/goal"
)

var _ = Describe("WeightSet", func() {
	It("updates an existing name in place", func() {
		ws := goal.NewWeightSet()
		ws.SetWeight("knee", 1)
		ws.SetWeight("hip", 4)
		ws.SetWeight("knee", 7)

		Expect(ws.Len()).To(Equal(2))
		w, ok := ws.Get("knee")
		Expect(ok).To(BeTrue())
		Expect(w).To(Equal(7.0))
		Expect(ws.Entries()).To(Equal([]goal.Weight{{Name: "knee", Weight: 7}, {Name: "hip", Weight: 4}}))
	})

	It("reports absent names", func() {
		ws := goal.NewWeightSet(goal.Weight{Name: "a", Weight: 0})
		Expect(ws.Contains("a")).To(BeTrue())
		Expect(ws.Contains("b")).To(BeFalse())
		_, ok := ws.Get("b")
		Expect(ok).To(BeFalse())
	})

	It("works from its zero value", func() {
		var ws goal.WeightSet
		ws.SetWeight("x", 2)
		Expect(ws.Contains("x")).To(BeTrue())
	})

	It("returns entries that do not alias the set", func() {
		ws := goal.NewWeightSet(goal.Weight{Name: "a", Weight: 1})
		entries := ws.Entries()
		entries[0].Weight = 99
		w, _ := ws.Get("a")
		Expect(w).To(Equal(1.0))
	})

	It("round-trips through yaml keeping order", func() {
		src := "zeta: 2\nalpha: 0\nmid: 0.5\n"
		var ws goal.WeightSet
		Expect(yaml.Unmarshal([]byte(src), &ws)).To(Succeed())
		Expect(ws.Entries()).To(Equal([]goal.Weight{
			{Name: "zeta", Weight: 2},
			{Name: "alpha", Weight: 0},
			{Name: "mid", Weight: 0.5},
		}))

		out, err := yaml.Marshal(&ws)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(src))
	})

	It("rejects non-mapping yaml", func() {
		var ws goal.WeightSet
		Expect(yaml.Unmarshal([]byte("- a\n- b\n"), &ws)).NotTo(Succeed())
	})
})
