package risk

import "errors"

var (
	// ErrInsufficientData means a series is shorter than the minimum a computation needs
	ErrInsufficientData = errors.New("insufficient data")

	// ErrCollaborator wraps failures from price, news, or sentiment providers
	ErrCollaborator = errors.New("external collaborator failure")
)
