package domain

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrStatsNotFound = errors.New("stats not found")
)
