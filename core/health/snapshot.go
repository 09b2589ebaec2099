package health

import (
	"fmt"
	"strings"
	"time"
)

// Status is the tri-state health classification.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Memory is a process memory reading.
type Memory struct {
	HeapAlloc    uint64 `json:"heapAlloc"`
	HeapSys      uint64 `json:"heapSys"`
	Sys          uint64 `json:"sys"`
	RSS          uint64 `json:"rss"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HeapMB returns the heap in use, rounded to whole megabytes.
func (m Memory) HeapMB() int64 {
	return int64((m.HeapAlloc + (1<<20)/2) >> 20)
}

// Snapshot is one health evaluation. It is never persisted.
type Snapshot struct {
	Status           Status        `json:"status"`
	Timestamp        time.Time     `json:"timestamp"`
	Uptime           time.Duration `json:"uptime"`
	Latency          time.Duration `json:"latency"`
	Memory           Memory        `json:"memory"`
	GuildCount       int64         `json:"guilds"`
	CommandsExecuted int64         `json:"commandsExecuted"`
	ErrorsInLastHour int           `json:"errorsInLastHour"`
}

// Summary formats the snapshot for an operator alert.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("Bot health status: %s\nUptime: %d minutes\nLatency: %dms\nMemory: %dMB\nErrors (1h): %d",
		strings.ToUpper(string(s.Status)),
		int64(s.Uptime/time.Minute),
		s.Latency.Milliseconds(),
		s.Memory.HeapMB(),
		s.ErrorsInLastHour,
	)
}

// BotStats is a summary of bot activity.
type BotStats struct {
	GuildCount   int64         `json:"guildCount"`
	UserCount    int64         `json:"userCount"`
	CommandCount int64         `json:"commandCount"`
	Uptime       time.Duration `json:"uptime"`
	Memory       Memory        `json:"memory"`
}

// Thresholds drive Classify.
type Thresholds struct {
	MaxLatency time.Duration
	MaxHeap    uint64
	MaxErrors  int
}

// DefaultThresholds: unhealthy above 5s probe latency or 500MB heap, degraded above 10 errors per hour.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLatency: 5 * time.Second,
		MaxHeap:    500 << 20,
		MaxErrors:  10,
	}
}

// Classify maps readings to a Status. Unhealthy takes precedence over degraded.
func Classify(t Thresholds, latency time.Duration, heap uint64, errorsInLastHour int) Status {
	if latency > t.MaxLatency || heap > t.MaxHeap {
		return StatusUnhealthy
	}
	if errorsInLastHour > t.MaxErrors {
		return StatusDegraded
	}
	return StatusHealthy
}
