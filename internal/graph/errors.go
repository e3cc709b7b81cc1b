package graph

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a snapshot was rejected.
type ErrorKind int

const (
	MalformedEntry ErrorKind = iota
	DuplicateNodeID
	DanglingEdge
)

func (k ErrorKind) String() string {
	switch k {
	case DuplicateNodeID:
		return "DuplicateNodeId"
	case DanglingEdge:
		return "DanglingEdge"
	default:
		return "MalformedEntry"
	}
}

var (
	ErrMalformedEntry  = errors.New("malformed snapshot entry")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrDanglingEdge    = errors.New("edge references unknown node")
)

// ValidationError rejects a whole snapshot.
type ValidationError struct {
	Kind      ErrorKind
	NodeID    string
	EdgeIndex int
	Detail    string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case DuplicateNodeID:
		return fmt.Sprintf("%s: %q", ErrDuplicateNodeID, e.NodeID)
	case DanglingEdge:
		return fmt.Sprintf("%s: edge %d references %q", ErrDanglingEdge, e.EdgeIndex, e.NodeID)
	default:
		return fmt.Sprintf("%s: %s", ErrMalformedEntry, e.Detail)
	}
}

// Is lets callers match with errors.Is(err, graph.ErrDanglingEdge).
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case DuplicateNodeID:
		return target == ErrDuplicateNodeID
	case DanglingEdge:
		return target == ErrDanglingEdge
	default:
		return target == ErrMalformedEntry
	}
}

func malformed(detail string) *ValidationError {
	return &ValidationError{Kind: MalformedEntry, Detail: detail}
}

// KindOf returns the kind of a validation error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}
