package user

import "errors"

var (
	ErrInvalidToken              = errors.New("invalid or expired token")
	ErrCoordinatorAccessRequired = errors.New("coordinator access required")
)
