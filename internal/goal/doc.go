// Package goal provides cost terms for trajectory optimization.
//
// A goal is configured by name, bound once to a [Model], and then evaluated
// many times:
//
//	g := goal.NewControlGoal("effort")
//	g.SetWeightForControl("thrust_left", 2)
//	g.SetWeightForControl("thrust_right", 0) // excluded entirely
//	if err := g.Initialize(plant); err != nil {
//	    return err
//	}
//	v, err := g.Integrand(&traj.Nodes[i])
//
// Binding translates names into control-vector positions so the integrand
// never looks names up. Weights for names the model does not expose, and
// exponents below 2, fail [ControlGoal.Initialize] with a [ConfigError].
//
// The running integral is owned by the caller (see package problem); a goal
// only supplies the integrand and the final combination in [ControlGoal.Cost].
package goal
