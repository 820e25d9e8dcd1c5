// Package common contains constants shared by the mediaqr client and the
// offline cache agent.
package common

import "encoding/json"

// Remote API paths, relative to the API base URL.
const (
	UploadPath  = "/api/v1/upload"
	MediaPath   = "/api/v1/media/"
	StoragePath = "/storage"
	HealthPath  = "/health"
)

// ShortLinkPath is the public path prefix of shareable short links.
const ShortLinkPath = "/q/"

// Upload constraints enforced before any network call.
const (
	MaxUploadSize = 52428800 // 50 MiB
)

// AllowedMediaPrefixes lists the accepted MIME type prefixes.
var AllowedMediaPrefixes = []string{"audio/", "video/", "image/"}

// HistoryKey is the local store key that holds the JSON-encoded history.
const HistoryKey = "mediaHistory"

// HistoryCapacity bounds the number of remembered uploads.
const HistoryCapacity = 50

// Storage indicator thresholds, in megabytes available.
const (
	StorageAmpleAbove   = 100
	StorageCautionFloor = 50
)

// Agent control channel message types.
const (
	MessageSkipWaiting  = "SKIP_WAITING"
	MessageCacheHistory = "CACHE_HISTORY"
)

// AgentMessagesPath is the agent endpoint accepting control messages.
const AgentMessagesPath = "/__agent/messages"

// AgentMessage is the envelope posted to the agent control channel.
type AgentMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
