package cloze

import "errors"

// Sentinel errors for the cloze package.
var (
	ErrInvalidPriority = errors.New("cloze: invalid priority")
	ErrInvalidFeedback = errors.New("cloze: invalid feedback")
	ErrNotAnnotation   = errors.New("cloze: node is not an annotation")
)
