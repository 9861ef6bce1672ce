package probe

import "golang.org/x/sys/unix"

// PhysicalMemory returns the total physical memory in bytes, or -1 if it
// cannot be determined.
func PhysicalMemory() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return -1
	}
	return int64(uint64(info.Totalram) * uint64(info.Unit))
}
