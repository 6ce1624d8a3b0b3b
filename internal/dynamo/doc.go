// Package dynamo provides the shared primitives for simulating actuated
// dynamical systems and handing their trajectories to cost terms.
//
//   - [State]: vector representing system state
//   - [Control]: actuator input vector
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Controller]: feedback law producing a [Control] from a [State]
//   - [Node], [Trajectory]: the recorded time history
//
// # Example
//
//	dyn := physics.NewDrone()
//	s := sim.New(dyn, integrators.NewRK4(), control.NewNone(dyn.ControlDim()))
//	traj, _ := s.Run(ctx, x0, sim.Config{Dt: 0.01, Duration: 5})
//
// # Thread Safety
//
// A [Trajectory] is plain data. Realizing its nodes writes controls into
// them, so a trajectory must not be realized from two goroutines at once.
package dynamo
