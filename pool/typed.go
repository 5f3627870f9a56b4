package pool

import (
	"reflect"
	"unsafe"

	"github.com/modern-go/reflect2"
)

// eface mirrors the runtime's interface header layout, the same
// substitution alloc/chunkgen.go and bitmap/bitmap.go both lean on to
// move raw pointers in and out of interface{} values without a type
// assertion the compiler can check.
type eface struct {
	rtype unsafe.Pointer
	data  unsafe.Pointer
}

func rtypeOf(v interface{}) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&v)).rtype
}

func packEface(rtype unsafe.Pointer, data unsafe.Pointer) interface{} {
	e := eface{rtype: rtype, data: data}
	return *(*interface{})(unsafe.Pointer(&e))
}

// Emplace allocates a 16-byte-aligned block sized for *T (where sample is
// any *T, a nil *T included) and returns an interface{} holding a *T backed by pool
// memory, letting callers hand out pool-owned values without touching
// unsafe.Pointer at every call site. sample's own memory is not used;
// only its runtime type is inspected.
func Emplace(p *Pool, sample interface{}) (interface{}, error) {
	if sample == nil {
		return nil, ErrNotPointerToValue
	}
	t := reflect2.TypeOf(sample).Type1()
	if t.Kind() != reflect.Ptr {
		return nil, ErrNotPointerToValue
	}
	elem := t.Elem()

	ptr, err := p.Alloc(elem.Size(), 16)
	if err != nil {
		return nil, err
	}
	return packEface(rtypeOf(sample), ptr), nil
}
