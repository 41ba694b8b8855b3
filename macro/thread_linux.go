//go:build linux

package macro

import "golang.org/x/sys/unix"

// threadID returns the kernel thread id the caller currently runs on
func threadID() uint64 {
	return uint64(unix.Gettid())
}
