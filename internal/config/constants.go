package config

import "time"

const (
	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Default session title for new chats
	DefaultSessionTitle = "New Chat"

	// Default completion temperature
	DefaultTemperature = 1.0

	// Link preview fetch timeout and cache duration
	PreviewTimeout       = 10 * time.Second
	PreviewCacheDuration = 1 * time.Hour

	// Notices kept per user before the oldest are dropped
	MaxNoticesPerUser = 50

	// Notice lifetime in the per-user feed
	NoticeTTL = 30 * time.Second

	// HTTP server timeouts
	ReadTimeout = 30 * time.Second
	IdleTimeout = 120 * time.Second
)

// PersonaPreamble is the fixed system instruction prepended to every
// completion request.
const PersonaPreamble = "You are Mission Commander, an advanced AI assistant with a cosmic military flair. " +
	"Your responses should be precise, strategic, and delivered with a space commander's authority. " +
	"Use terms like 'mission objectives,' 'tactical analysis,' and 'strategic operations.' " +
	"Help users navigate their tasks like a seasoned space fleet commander guiding their crew through the cosmos."
