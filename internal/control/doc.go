// Package control provides feedback laws that generate actuator signals
// for simulated trajectories.
//
//   - [LQR]: full-state linear feedback u = -K(x - target), one row per actuator
//   - [PID]: single-error PID on x[0], fanned out to every actuator
//   - [None]: zero control
//   - [Scaled]: multiplies another controller's output by a gain
//
// Controllers implementing [dynamo.Configurable] can be tuned by name.
package control
