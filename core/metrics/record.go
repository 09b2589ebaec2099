package metrics

import (
	"time"
)

// DirectMessageScope is the guild id recorded for commands run outside a guild.
const DirectMessageScope = "DM"

// ExecutionRecord describes one dispatch of a registered command.
type ExecutionRecord struct {
	ID              string    `json:"id"`
	CommandName     string    `json:"commandName"`
	UserID          string    `json:"userId"`
	GuildID         string    `json:"guildId"`
	ExecutionTimeMs int64     `json:"executionTime"`
	Success         bool      `json:"success"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// CommandCount is a (name, count) pair in a frequency ranking.
type CommandCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CommandStats aggregates the execution log over a time window.
type CommandStats struct {
	Window                 time.Duration  `json:"window"`
	TotalCommands          int            `json:"totalCommands"`
	SuccessfulCommands     int            `json:"successfulCommands"`
	FailedCommands         int            `json:"failedCommands"`
	AverageExecutionTimeMs float64        `json:"averageExecutionTime"`
	TopCommands            []CommandCount `json:"topCommands"`
	Errors                 []string       `json:"errors"`
}
