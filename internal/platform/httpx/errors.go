package httpx

import "errors"

// ErrDuplicate indicates a uniqueness conflict surfaced by the storage layer.
var ErrDuplicate = errors.New("duplicate entry")
