package featureflags

import (
	"os"
	"strings"
)

// Flags controlling optional subsystems. Each is read from the environment as
// FLAG_<NAME>=true/1/yes (case-insensitive).
const (
	// OrderEvents gates publishing order lifecycle events to Kafka.
	OrderEvents = "order_events"
	// OrderStream gates the websocket order status stream.
	OrderStream = "order_stream"
)

// defaults apply when the environment does not mention the flag at all.
var defaults = map[string]bool{
	OrderEvents: true,
	OrderStream: true,
}

// Enabled reports whether a flag is on.
func Enabled(name string) bool {
	v, ok := os.LookupEnv("FLAG_" + strings.ToUpper(name))
	if !ok {
		return defaults[name]
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
