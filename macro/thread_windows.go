//go:build windows

package macro

import "golang.org/x/sys/windows"

// threadID returns the OS thread id the caller currently runs on
func threadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
