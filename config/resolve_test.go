package config

import (
	"os"
	"path/filepath"
	"testing"
)

func fakeEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestEnvName(t *testing.T) {
	cases := map[string]string{
		"platform-fee-bps": "ESCROW_PLATFORM_FEE_BPS",
		"approver":         "ESCROW_APPROVER",
		" receiver-memo ":  "ESCROW_RECEIVER_MEMO",
	}
	for in, want := range cases {
		if got := EnvName(in); got != want {
			t.Fatalf("EnvName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	fee := int64(100)
	profile := &Profile{
		PlatformFeeBps: &fee,
		Roles:          RolesProfile{Approver: "GPROFILE"},
	}
	r := &Resolver{
		Profile: profile,
		LookupEnv: fakeEnv(map[string]string{
			"ESCROW_APPROVER":         "GENV",
			"ESCROW_RELEASE_SIGNER":   "   ",
			"ESCROW_DISPUTE_RESOLVER": "GENVRESOLVER",
		}),
	}

	cases := []struct {
		name       string
		flagValue  string
		explicit   bool
		wantValue  string
		wantSource Source
	}{
		{name: "approver", flagValue: "GFLAG", explicit: true, wantValue: "GFLAG", wantSource: SourceFlag},
		{name: "approver", wantValue: "GENV", wantSource: SourceEnv},
		{name: "dispute-resolver", wantValue: "GENVRESOLVER", wantSource: SourceEnv},
		{name: "platform-fee-bps", wantValue: "100", wantSource: SourceProfile},
		{name: "release-signer", wantValue: "", wantSource: SourceDefault},
		{name: "receiver-memo", flagValue: "0", wantValue: "0", wantSource: SourceDefault},
		{name: "receiver", flagValue: "", explicit: true, wantValue: "", wantSource: SourceFlag},
	}
	for _, tc := range cases {
		got, src := r.Resolve(tc.name, tc.flagValue, tc.explicit)
		if got != tc.wantValue || src != tc.wantSource {
			t.Fatalf("Resolve(%q, %q, %v) = %q/%s; want %q/%s", tc.name, tc.flagValue, tc.explicit, got, src, tc.wantValue, tc.wantSource)
		}
	}
}

func TestNilResolver(t *testing.T) {
	var r *Resolver
	got, src := r.Resolve("approver", "GDEFAULT", false)
	if got != "GDEFAULT" || src != SourceDefault {
		t.Fatalf("unexpected nil resolver result: %q/%s", got, src)
	}
}

func TestLoadEnvFileKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	contents := "ESCROW_TEST_APPROVER=GFROMFILE\nESCROW_TEST_RECEIVER=GRECEIVERFILE\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ESCROW_TEST_APPROVER", "GFROMPROCESS")
	t.Setenv("ESCROW_TEST_RECEIVER", "")
	os.Unsetenv("ESCROW_TEST_RECEIVER")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("ESCROW_TEST_APPROVER"); got != "GFROMPROCESS" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("ESCROW_TEST_RECEIVER"); got != "GRECEIVERFILE" {
		t.Fatalf("variable not loaded from file: %q", got)
	}
}

func TestLoadEnvFileErrors(t *testing.T) {
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("blank path should be a no-op: %v", err)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected missing env file error")
	}
}
