package registry

import "errors"

var (
	// ErrAmbiguousInstance is returned when no instance name is given and
	// more than one instance is configured.
	ErrAmbiguousInstance = errors.New("ambiguous instance")

	// ErrInstanceNotFound is returned when the named instance does not exist.
	ErrInstanceNotFound = errors.New("instance not found")
)
