package bulkset_test

import (
	"testing"
	"unsafe"

	"github.com/Feralthedogg/Allocates/bulkset"
	"github.com/stretchr/testify/require"
)

func TestSetFillsExactRange(t *testing.T) {
	buf := make([]byte, 257)
	for i := range buf {
		buf[i] = 0xaa
	}

	bulkset.Set(unsafe.Pointer(&buf[1]), 0x42, 200)

	require.Equal(t, byte(0xaa), buf[0], "byte before range must be untouched")
	for i := 1; i <= 200; i++ {
		require.Equal(t, byte(0x42), buf[i], "byte %d in range", i)
	}
	for i := 201; i < len(buf); i++ {
		require.Equal(t, byte(0xaa), buf[i], "byte %d after range must be untouched", i)
	}
}

func TestSetZeroLength(t *testing.T) {
	buf := []byte{1, 2, 3}
	bulkset.Set(unsafe.Pointer(&buf[0]), 0, 0)
	require.Equal(t, []byte{1, 2, 3}, buf)
}

func TestSetSmallerThanStride(t *testing.T) {
	buf := make([]byte, 3)
	bulkset.Set(unsafe.Pointer(&buf[0]), 7, 3)
	require.Equal(t, []byte{7, 7, 7}, buf)
}

func TestWideStoreWidthIsWordMultiple(t *testing.T) {
	require.Zero(t, bulkset.WideStoreWidth()%8)
}
