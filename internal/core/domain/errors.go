package domain

import "errors"

// ErrNotFound indicates a keyed datum is absent from a store or the catalog.
var ErrNotFound = errors.New("domain: not found")
