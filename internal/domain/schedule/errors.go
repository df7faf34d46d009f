package schedule

import "errors"

var (
	ErrScheduleNotFound = errors.New("week schedule not found")
	ErrInvalidRRule     = errors.New("invalid recurrence rule")
	ErrEndBeforeStart   = errors.New("shift end must be after shift start")
)
