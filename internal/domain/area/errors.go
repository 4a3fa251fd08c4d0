package area

import "errors"

var (
	ErrAreaNotFound = errors.New("area not found")
)
