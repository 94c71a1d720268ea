package odontogram

import (
	"errors"
	"fmt"
)

// Common errors returned by tooth and odontogram operations.
var (
	ErrNotFound           = errors.New("not found")
	ErrToothNotFound      = fmt.Errorf("tooth %w", ErrNotFound)
	ErrInvalidCondition   = errors.New("invalid condition")
	ErrInvalidRestoration = errors.New("invalid restoration")
	ErrInvalidAnomaly     = errors.New("invalid anomaly")
	ErrInvalidTreatment   = errors.New("invalid treatment")
	ErrInvalidStatus      = errors.New("invalid general status")
)
