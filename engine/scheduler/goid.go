package scheduler

import (
	"runtime"
	"strconv"
	"strings"
)

// goid returns the current goroutine's id by decoding the header line of a
// single-goroutine stack dump ("goroutine 123 [running]:"). The id is used
// only to route submissions to the owning worker's deque and to answer
// IsMainThread; no execution decision ever dereferences it.
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(header, ' '); i > 0 {
		if id, err := strconv.ParseUint(header[:i], 10, 64); err == nil {
			return id
		}
	}
	return 0
}
