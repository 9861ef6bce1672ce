//go:build !linux && !darwin && !freebsd

package probe

// PhysicalMemory returns -1: the physical memory size is not queried on this
// platform.
func PhysicalMemory() int64 {
	return -1
}
