package ml

// Error is a sentinel error for the failure classes of the network engine.
// Callers match them with errors.Is; the returned errors carry extra context.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

var (
	// ErrFileOpen means the weight file is missing or unreadable.
	ErrFileOpen = Error{"cannot open weight file"}
	// ErrBadWeightSize means the weight vector does not match the topology.
	ErrBadWeightSize = Error{"weight count does not match network topology"}
	// ErrBadInputSize means the caller supplied the wrong number of inputs.
	ErrBadInputSize = Error{"input size does not match network"}

	// ErrBadFormat means a weight file token could not be parsed, or a value
	// cannot be written as a source literal.
	ErrBadFormat = Error{"malformed weight file"}
	// ErrBadScale means the mean or sigma vectors do not fit the inputs, or a
	// sigma is zero where generated code would divide by it.
	ErrBadScale = Error{"normalization vectors do not match network inputs"}
	// ErrBadName means an input, function or package name is empty, repeated,
	// reserved, or cannot be written where it is needed.
	ErrBadName = Error{"invalid input or function name"}
	// ErrBadTopology means fewer than two layers or an empty layer.
	ErrBadTopology = Error{"invalid network topology"}
)
