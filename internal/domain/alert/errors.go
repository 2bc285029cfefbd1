package alert

import "errors"

var (
	ErrNotFound  = errors.New("alert not found")
	ErrNotActive = errors.New("alert is no longer active")
)
