package meter

import (
	"runtime"
	"strconv"
)

// currentLoadSnapshot renders a coarse process load indicator for the
// print_load data-record field. Spec section 4.8 leaves the exact payload
// unspecified ("not specified further here"); this reports the active
// goroutine count, the simplest available proxy for scheduler load.
func currentLoadSnapshot() string {
	return "goroutines=" + strconv.Itoa(runtime.NumGoroutine())
}

// currentMemorySnapshot renders a coarse heap usage indicator for the
// print_memory data-record field.
func currentMemorySnapshot() string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return "heap_alloc=" + strconv.FormatUint(ms.HeapAlloc, 10)
}
