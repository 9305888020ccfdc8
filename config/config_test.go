package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PeerlyPay/peerlypay/escrow"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadParsesProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "escrow.toml", `token_contract_id = "CUSDC"
platform_fee_bps = 250
receiver_memo = 7
milestones_file = "milestones.yaml"

[roles]
platform_address = "GPLATFORM"
release_signer = "GSIGNER"
dispute_resolver = "GRESOLVER"

[log]
level = "debug"
format = "json"
`)
	profile, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if profile.TokenContractID != "CUSDC" {
		t.Fatalf("unexpected token contract: %q", profile.TokenContractID)
	}
	if profile.PlatformFeeBps == nil || *profile.PlatformFeeBps != 250 {
		t.Fatalf("unexpected fee: %v", profile.PlatformFeeBps)
	}
	if want := filepath.Join(dir, "milestones.yaml"); profile.MilestonesFile != want {
		t.Fatalf("milestones file not resolved: got %q want %q", profile.MilestonesFile, want)
	}

	lookups := map[string]string{
		"token-contract-id": "CUSDC",
		"platform-fee-bps":  "250",
		"receiver-memo":     "7",
		"platform-address":  "GPLATFORM",
		"release-signer":    "GSIGNER",
		"dispute-resolver":  "GRESOLVER",
		"log-level":         "debug",
		"log-format":        "json",
	}
	for name, want := range lookups {
		got, ok := profile.Lookup(name)
		if !ok || got != want {
			t.Fatalf("Lookup(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}
	for _, name := range []string{"approver", "receiver", "engagement-id", "amount"} {
		if _, ok := profile.Lookup(name); ok {
			t.Fatalf("Lookup(%q) unexpectedly set", name)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "escrow.toml", `token_contract = "CUSDC"

[roles]
approvr = "GAPPROVER"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
	if !strings.Contains(err.Error(), "token_contract") || !strings.Contains(err.Error(), "roles.approvr") {
		t.Fatalf("error does not name unknown keys: %v", err)
	}
}

func TestLoadValidatesFee(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "escrow.toml", "platform_fee_bps = 9971\n")
	_, err := Load(path)
	if !errors.Is(err, escrow.ErrInvalidFee) {
		t.Fatalf("expected fee error, got %v", err)
	}
}

func TestLoadValidatesLog(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "escrow.toml", "[log]\nlevel = \"loud\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected log level error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestNilProfileLookup(t *testing.T) {
	var profile *Profile
	if _, ok := profile.Lookup("approver"); ok {
		t.Fatalf("nil profile must not resolve values")
	}
}
