package common

import "unsafe"

// AsBytes reinterprets a typed slice as the raw bytes of its backing array,
// without copying. Buffer payloads flow through here on their way into a
// frame's create/update commands.
//
// The result aliases the input; the caller must not mutate the source until
// the payload has been copied out.
//
// Parameters:
//   - data: source slice of any element type
//
// Returns:
//   - []byte: byte view of the slice's memory, nil for an empty slice
func AsBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(data[0])) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), size)
}
