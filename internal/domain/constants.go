package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for config and history files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultDiscoveryTimeout bounds each model listing call
	DefaultDiscoveryTimeout = 2 * time.Second
	// DefaultModelCacheTTL is how long a discovered model list stays fresh
	DefaultModelCacheTTL = 30 * time.Second
	// DefaultServerGenerationTimeout bounds generation calls made through the HTTP API
	DefaultServerGenerationTimeout = 120 * time.Second
	// DefaultOllamaKeepAlive keeps an Ollama model resident between calls
	DefaultOllamaKeepAlive = "5m"
)

// Generation constants
const (
	// DefaultMaxTokens is the default completion budget for prompt generation
	DefaultMaxTokens = 500
	// MinMaxTokens and MaxMaxTokens bound a caller supplied token budget
	MinMaxTokens = 100
	MaxMaxTokens = 2000
	// IdeasTemperature is the fixed sampling temperature for brainstorming
	IdeasTemperature = 0.85
	// IdeasMaxTokens is the completion budget for brainstorming
	IdeasMaxTokens = 500
	// SequenceMaxTokens is the completion budget for multi-segment sequences
	SequenceMaxTokens = 1500
	// MaxIdeas is the number of idea slots exposed to callers
	MaxIdeas = 6
	// DefaultIdeas is the default number of requested ideas
	DefaultIdeas = 3
	// MinSegments and MaxSegments bound a sequence request
	MinSegments = 2
	MaxSegments = 6
	// DefaultSegments is the default number of requested segments
	DefaultSegments = 4
)

// History constants
const (
	// MaxHistoryEntries caps every history store
	MaxHistoryEntries = 100
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
	// ExportTimestampFormat names exported history files
	ExportTimestampFormat = "20060102_150405"
)
