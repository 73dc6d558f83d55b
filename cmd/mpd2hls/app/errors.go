package app

import (
	"errors"
)

var errNotFound = errors.New("not found")
