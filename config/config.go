package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Profile holds platform-wide defaults for payload inputs so operators do not
// have to repeat the same addresses and fee on every invocation.
type Profile struct {
	TokenContractID string       `toml:"token_contract_id"`
	PlatformFeeBps  *int64       `toml:"platform_fee_bps"`
	ReceiverMemo    *int64       `toml:"receiver_memo"`
	MilestonesFile  string       `toml:"milestones_file"`
	Roles           RolesProfile `toml:"roles"`
	Log             LogProfile   `toml:"log"`
}

// RolesProfile lists default role addresses.
type RolesProfile struct {
	Approver        string `toml:"approver"`
	ServiceProvider string `toml:"service_provider"`
	PlatformAddress string `toml:"platform_address"`
	ReleaseSigner   string `toml:"release_signer"`
	DisputeResolver string `toml:"dispute_resolver"`
	Receiver        string `toml:"receiver"`
}

// LogProfile configures logging defaults.
type LogProfile struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load reads a TOML profile from path. Unknown keys are rejected so typos do
// not silently fall back to defaults. A relative milestones_file is resolved
// against the profile's directory.
func Load(path string) (*Profile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	profile := &Profile{}
	meta, err := toml.DecodeFile(path, profile)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if profile.MilestonesFile != "" && !filepath.IsAbs(profile.MilestonesFile) {
		profile.MilestonesFile = filepath.Join(filepath.Dir(path), profile.MilestonesFile)
	}
	if err := ValidateProfile(profile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return profile, nil
}

// Lookup returns the profile value for the named input flag. The second
// result reports whether the profile sets it.
func (p *Profile) Lookup(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	var value string
	switch name {
	case "token-contract-id":
		value = p.TokenContractID
	case "platform-fee-bps":
		if p.PlatformFeeBps == nil {
			return "", false
		}
		return strconv.FormatInt(*p.PlatformFeeBps, 10), true
	case "receiver-memo":
		if p.ReceiverMemo == nil {
			return "", false
		}
		return strconv.FormatInt(*p.ReceiverMemo, 10), true
	case "milestones-file":
		value = p.MilestonesFile
	case "approver":
		value = p.Roles.Approver
	case "service-provider":
		value = p.Roles.ServiceProvider
	case "platform-address":
		value = p.Roles.PlatformAddress
	case "release-signer":
		value = p.Roles.ReleaseSigner
	case "dispute-resolver":
		value = p.Roles.DisputeResolver
	case "receiver":
		value = p.Roles.Receiver
	case "log-level":
		value = p.Log.Level
	case "log-format":
		value = p.Log.Format
	default:
		return "", false
	}
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
