package memory

import (
	"strconv"

	"github.com/memalloc-go/memalloc/internal/debug"
)

// AssertBuffer panics (under the assert build tag) when buffer is shared,
// i.e. has more than one outstanding reference.
func AssertBuffer(pfx string, buffer *Buffer) {
	if buffer == nil {
		return
	}
	debug.Assert(buffer.refCount == 1, pfx+": buffer.refCount="+strconv.Itoa(int(buffer.refCount)))
}
