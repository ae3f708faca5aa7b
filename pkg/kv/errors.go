package kv

import "errors"

// ErrNotFound is returned when no value exists under a key, either
// because it was never written or because its TTL has expired.
var ErrNotFound = errors.New("kv: key not found")
