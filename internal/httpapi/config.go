package httpapi

import (
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// chatTimeout bounds a /chat request on top of the gateway's own timeout.
// Zero means no additional timeout.
var chatTimeout = int64(0) // seconds

// SetChatTimeoutSeconds sets the chat timeout in seconds (0 disables).
func SetChatTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	chatTimeout = sec
}

func chatDeadline() time.Duration { return time.Duration(chatTimeout) * time.Second }

// Paging defaults for /memory.
const (
	defaultPageSize    = 50
	defaultMaxPageSize = 1000
)

// maxPageSize caps the limit query parameter on list and search endpoints.
var maxPageSize = defaultMaxPageSize

// SetMaxPageSize sets the largest page a client may request.
func SetMaxPageSize(n int) {
	if n <= 0 {
		n = defaultMaxPageSize
	}
	maxPageSize = n
}

// CORS configuration. If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// chatLimiter throttles POST /chat before any decoding work. Nil disables it.
var chatLimiter *rate.Limiter

// SetChatRateLimit allows rps requests per second with the given burst.
// A non-positive rps removes the limiter.
func SetChatRateLimit(rps float64, burst int) {
	if rps <= 0 {
		chatLimiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	chatLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func chatAllowed() bool { return chatLimiter == nil || chatLimiter.Allow() }
