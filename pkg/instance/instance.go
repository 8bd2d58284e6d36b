package instance

import (
	"os"

	"github.com/hoangdh1/eCommerce/pkg/env"
)

const (
	// EnvInstanceID overrides the detected process identifier.
	EnvInstanceID = "ECOMMERCE_INSTANCE_ID"
	envDyno       = "DYNO"
)

// GetID returns the process identity used in logs and lock ownership.
// It prefers an explicit id, then the platform dyno name, then the hostname.
func GetID(kind string) string {
	if id := env.First("", EnvInstanceID, envDyno); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return kind + "-" + host
	}
	return kind + "-0"
}
