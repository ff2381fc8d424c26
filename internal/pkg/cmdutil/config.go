// Package cmdutil provides shared utilities for CLI command implementations.
package cmdutil

import (
	"github.com/spf13/viper"
)

// GetStringConfig returns the config value for key, or flagValue if the key is not set.
// Flag values take precedence over config file values.
func GetStringConfig(key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}

// GetBoolConfig returns the config value for key, or flagValue if the key is not set.
func GetBoolConfig(key string, flagValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return flagValue
}
