package physics

const (
	DefaultMass    = 1.0
	DefaultGravity = 9.81
)
