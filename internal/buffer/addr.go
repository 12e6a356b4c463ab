package buffer

import "unsafe"

// sliceAddr returns the starting address of raw's backing array. Used only
// to compute the padding needed for cache-line alignment; no pointer
// arithmetic escapes this package.
func sliceAddr(raw []byte) uintptr {
	return uintptr(unsafe.Pointer(&raw[0]))
}
