package macro

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the id from the current goroutine's stack header
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// threadName names the calling goroutine, goroutines carry no user-visible names
func threadName() string {
	return "goroutine-" + strconv.FormatUint(goroutineID(), 10)
}
