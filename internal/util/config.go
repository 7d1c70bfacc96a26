package util

import (
	"time"

	"github.com/spf13/viper"
)

// ArtifactsDir returns the directory for event logs and reports
func ArtifactsDir() string {
	if dir := viper.GetString("artifacts"); dir != "" {
		return dir
	}
	return "artifacts"
}

// ColorsEnabled returns false when colors were disabled with --no-color
// or the NO_COLOR convention
func ColorsEnabled() bool {
	if viper.GetBool("no-color") {
		return false
	}
	return viper.GetString("NO_COLOR") == ""
}

// RequestTimeout returns the per-request timeout, defaulting to 30s
func RequestTimeout() time.Duration {
	if d := viper.GetDuration("timeout"); d > 0 {
		return d
	}
	return 30 * time.Second
}
