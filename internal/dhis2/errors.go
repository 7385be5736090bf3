package dhis2

import "errors"

// Error kinds the metadata client classifies failures into. All are terminal
// for a run; callers match with errors.Is.
var (
	// ErrAuth marks rejected credentials (401/403).
	ErrAuth = errors.New("authentication rejected")
	// ErrNetwork marks transport failures before a response was received.
	ErrNetwork = errors.New("network failure")
	// ErrRemote marks non-success statuses and unusable response shapes.
	ErrRemote = errors.New("unexpected remote response")
	// ErrNoGroupMatch marks a group description matching no group.
	ErrNoGroupMatch = errors.New("no indicator group matches description")
	// ErrAmbiguousGroup marks a group description matching more than one group.
	ErrAmbiguousGroup = errors.New("indicator group description is ambiguous")
)
