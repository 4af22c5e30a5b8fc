package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrInvalidMedia = errors.New("invalid media item")
