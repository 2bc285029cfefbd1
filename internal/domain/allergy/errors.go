package allergy

import "errors"

var (
	ErrNotFound = errors.New("allergy not found")
)
