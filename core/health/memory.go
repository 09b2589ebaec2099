package health

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// ReadMemory samples Go runtime statistics and the process resident set size.
// RSS is zero when the platform does not expose it.
func ReadMemory(ctx context.Context) Memory {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := Memory{
		HeapAlloc:    ms.HeapAlloc,
		HeapSys:      ms.HeapSys,
		Sys:          ms.Sys,
		NumGoroutine: runtime.NumGoroutine(),
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfoWithContext(ctx); err == nil && info != nil {
			m.RSS = info.RSS
		}
	}

	return m
}
