// Package physics provides actuated dynamical models.
//
// Each model implements [dynamo.System] and also describes its actuators:
//
//   - Actuators() lists control channel names in declaration order
//   - ControlLayout() maps each name to its position in the control vector
//   - MassCenter(x) gives the reference point used for displacement
//
// Models:
//
//   - [Drone]: planar quadrotor, channels thrust_left and thrust_right
//   - [CartPole]: cart with an inverted pole, channel cart_force
//   - [MassChain]: N masses on springs, channels force_0..force_{N-1}
//
// All models implement [dynamo.Configurable] for parameter overrides.
package physics
