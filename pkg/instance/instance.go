package instance

import (
	"os"

	"github.com/parejaapp/pareja-backend/pkg/env"
)

const EnvInstanceID = "PAREJA_INSTANCE_ID"

// ID identifies this dispatcher process in logs. It prefers the configured
// id, then the hostname, then a fixed default.
func ID() string {
	if id := env.Get(EnvInstanceID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "dispatcher-0"
}
