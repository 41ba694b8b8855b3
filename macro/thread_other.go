//go:build !linux && !windows

package macro

// threadID falls back to the goroutine id where no portable thread id exists
func threadID() uint64 {
	return goroutineID()
}
