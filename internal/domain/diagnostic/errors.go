package diagnostic

import "errors"

var (
	// ErrDuplicateName is returned when inserting a tool whose name exists.
	ErrDuplicateName = errors.New("tool name already exists")

	// ErrUnknownTool is returned when a problem references a missing tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownProblem is returned when a symptom or solution references a
	// missing problem.
	ErrUnknownProblem = errors.New("unknown problem")

	// ErrNoVector signals that the embedding provider cannot represent the
	// input. It maps to a status "error" result, never to not_found.
	ErrNoVector = errors.New("no vector representation for input")
)
