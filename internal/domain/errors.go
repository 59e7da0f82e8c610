package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Player errors
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoLivesLeft    = errors.New("no lives left")
	ErrLevelLocked    = errors.New("level locked")
	ErrNoAttemptsLeft = errors.New("no attempts left")
)

// Catalog errors
var (
	ErrLevelNotFound       = errors.New("level not found")
	ErrAchievementNotFound = errors.New("achievement not found")
)

// Evaluation errors
var (
	ErrAllProvidersFailed = errors.New("all evaluation providers failed")
	ErrNoScoreInResponse  = errors.New("no parseable score in response")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
