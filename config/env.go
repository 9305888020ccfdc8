package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces the environment variables that override profile
// values.
const EnvPrefix = "ESCROW_"

// EnvName returns the environment variable consulted for the named flag,
// e.g. "platform-fee-bps" maps to ESCROW_PLATFORM_FEE_BPS.
func EnvName(flag string) string {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(flag), "-", "_"))
	return EnvPrefix + name
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set keep their value.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
