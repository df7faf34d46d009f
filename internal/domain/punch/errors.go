package punch

import (
	"errors"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/geofence"
)

var (
	// ErrOutOfRange is returned wrapped in a *geofence.OutOfRangeError carrying the distance.
	ErrOutOfRange     = geofence.ErrOutOfRange
	ErrDuplicatePunch = errors.New("a punch of this type was already recorded today")
)
