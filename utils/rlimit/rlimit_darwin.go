// +build darwin

package rlimit

// syscall.Rlimit's field widths differ enough on darwin that it's not
// worth sharing the unix implementation; nothing raises the limit there
// today.
func Raise() {
}
