package pool

import "errors"

var (
	ErrInitialRegionSize = errors.New("pool.initialregionsize: must be at least 1")
	ErrSize              = errors.New("pool.alloc: size must be at least 1")
	ErrAlignment         = errors.New("pool.alloc: alignment must be a power of two")
	ErrGrowthFailed      = errors.New("pool.alloc: growth region acquisition failed")
	ErrNotPointerToValue = errors.New("pool.emplace: sample must be a non-nil pointer")
)
