package util

import "errors"

var (
	ErrActionNotFound      = errors.New("action not found")
	ErrPhaseNotFound       = errors.New("phase not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrActionCompleted     = errors.New("action already completed")
	ErrDailyLimitReached   = errors.New("daily limit reached (max 1 completed action per day)")
	ErrGoalAlreadyComplete = errors.New("goal already completed")
)
