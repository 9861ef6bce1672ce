package probe

import (
	"math"
	"runtime"
	"runtime/debug"

	"enginehost/internal/types"
)

// memoryLimitUnset is what debug.SetMemoryLimit reports when neither
// GOMEMLIMIT nor a programmatic limit has been configured.
const memoryLimitUnset = math.MaxInt64

const undeterminableMessage = "Could not determine the amount of free memory.\n" +
	"Please set the maximum memory for the process, e.g. GOMEMLIMIT=512MiB for 512 mebibytes."

// MaxHeapMemory returns the maximum heap size in bytes.
//
// It is the configured Go memory limit, if one is set. Otherwise, as a
// heuristic, one quarter of the physical memory is returned. If the physical
// memory cannot be determined either, a fatal ErrCodeMemoryUndeterminable
// error is returned.
func MaxHeapMemory() (int64, error) {
	return maxHeapMemory(currentMemoryLimit(), PhysicalMemory)
}

func currentMemoryLimit() int64 {
	// A negative input only queries the limit.
	return debug.SetMemoryLimit(-1)
}

func maxHeapMemory(limit int64, physical func() int64) (int64, error) {
	if limit != memoryLimitUnset {
		return limit, nil
	}
	if mem := physical(); mem > 0 {
		return mem / 4, nil
	}
	return 0, types.NewAppError(types.ErrCodeMemoryUndeterminable, undeterminableMessage, nil)
}

// SizeOfFreeHeapMemory returns an estimate of the free heap in bytes: the
// heap ceiling minus the committed heap plus the idle part of the committed
// heap. The estimate depends on fragmentation and on how much garbage is
// waiting to be collected; SizeOfFreeHeapMemoryWithDefrag is more accurate.
func SizeOfFreeHeapMemory() (int64, error) {
	maxHeap, err := MaxHeapMemory()
	if err != nil {
		return 0, err
	}
	committed, free := heapReadings()
	return freeHeapEstimate(maxHeap, committed, free), nil
}

// SizeOfFreeHeapMemoryWithDefrag forces a garbage collection before taking
// the estimate. The collection may pause the whole process briefly; callers
// that need predictable latency should use SizeOfFreeHeapMemory.
func SizeOfFreeHeapMemoryWithDefrag() (int64, error) {
	runtime.GC()
	return SizeOfFreeHeapMemory()
}

// heapReadings returns the heap memory obtained from the OS and not yet
// returned to it, and the unused part of that memory.
func heapReadings() (committed, free int64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapSys - ms.HeapReleased), int64(ms.HeapIdle - ms.HeapReleased)
}

// freeHeapEstimate computes maxHeap - committed + free, kept within
// [0, maxHeap]. The Go memory limit is soft, so committed may briefly exceed
// maxHeap.
func freeHeapEstimate(maxHeap, committed, free int64) int64 {
	est := maxHeap - committed + free
	if est < 0 {
		return 0
	}
	if est > maxHeap {
		return maxHeap
	}
	return est
}
