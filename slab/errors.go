package slab

import "errors"

var (
	ErrCapacity   = errors.New("slab.capacity: must be at least 1")
	ErrObjectSize = errors.New("slab.objectsize: must be at least sizeof(uintptr)")
)
