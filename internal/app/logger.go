package app

import (
	"strings"

	"github.com/alumnethq/alumnet/pkg/logger"
)

// ConfigureLogging initialises the process-wide logger from the configured
// level. An unset or unrecognised level falls back to info.
func ConfigureLogging(level string) error {
	if level = strings.TrimSpace(level); level == "" {
		level = "info"
	}
	return logger.Init(strings.ToLower(level))
}
