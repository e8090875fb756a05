package resolve

import "errors"

// ErrNoNavigationData is returned when the navigation document lacks a data array.
var ErrNoNavigationData = errors.New("no navigation data")
