package config

import (
	"os"
	"strings"
)

// Source identifies where a resolved input value came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceProfile Source = "profile"
	SourceDefault Source = "default"
)

// Resolver merges explicit flags, ESCROW_* environment variables and a
// profile. Precedence is flag, then environment, then profile, then the
// flag's default.
type Resolver struct {
	Profile   *Profile
	LookupEnv func(string) (string, bool)
}

// NewResolver returns a resolver reading the process environment.
func NewResolver(profile *Profile) *Resolver {
	return &Resolver{Profile: profile, LookupEnv: os.LookupEnv}
}

// Resolve returns the effective value of the named flag. flagValue is the
// parsed flag value and explicit reports whether the flag appeared on the
// command line. Blank environment variables are treated as unset.
func (r *Resolver) Resolve(name, flagValue string, explicit bool) (string, Source) {
	if explicit {
		return flagValue, SourceFlag
	}
	if r != nil && r.LookupEnv != nil {
		if value, ok := r.LookupEnv(EnvName(name)); ok && strings.TrimSpace(value) != "" {
			return value, SourceEnv
		}
	}
	if r != nil {
		if value, ok := r.Profile.Lookup(name); ok {
			return value, SourceProfile
		}
	}
	return flagValue, SourceDefault
}
