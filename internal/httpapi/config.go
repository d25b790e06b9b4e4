package httpapi

import "time"

const defaultMaxBodyBytes int64 = 4 << 20

// maxBodyBytes bounds JSON request bodies. /ask carries whole documents, so
// the default is larger than a typical API.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// askTimeout bounds an /ask request on top of the engine's own timeout.
// Zero means no additional timeout.
var askTimeout time.Duration

// SetAskTimeout sets the /ask timeout (0 disables).
func SetAskTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	askTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	corsAllowedHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty methods
// or headers keep the defaults.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	if len(methods) > 0 {
		corsAllowedMethods = append([]string(nil), methods...)
	}
	if len(headers) > 0 {
		corsAllowedHeaders = append([]string(nil), headers...)
	}
}
