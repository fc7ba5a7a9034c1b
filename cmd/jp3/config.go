package main

import (
	"os"

	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (JP3_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// applyLogLevel sets the log level from --verbose/--quiet. Every command
// calls it first.
func applyLogLevel() {
	util.SetVerbose(GetConfigBool("verbose"))
	util.SetQuiet(GetConfigBool("quiet"))
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))
}

func libraryBase() string {
	return GetConfigString("library", ".")
}

// journalPath returns "" when history recording is disabled
func journalPath() string {
	return viper.GetString("journal")
}
