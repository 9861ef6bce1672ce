package probe

import "golang.org/x/sys/unix"

// PhysicalMemory returns the total physical memory in bytes, or -1 if it
// cannot be determined.
func PhysicalMemory() int64 {
	mem, err := unix.SysctlUint64("hw.physmem")
	if err != nil {
		return -1
	}
	return int64(mem)
}
