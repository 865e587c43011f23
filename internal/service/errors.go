package service

import "errors"

// Sentinel errors checked with errors.Is at the controller boundary.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPuzzleNotFound = errors.New("puzzle not found")
	ErrInvalidPuzzle  = errors.New("invalid puzzle")
	ErrInvalidAttempt = errors.New("invalid attempt")
)
