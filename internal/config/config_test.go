package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
database:
  url: user:pass@/donations
payments:
  secret_key: sk_test
  webhook_secret: whsec_test
auth:
  jwt_secret: secret
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Payments.Currency != "usd" {
		t.Errorf("currency = %q, want usd", cfg.Payments.Currency)
	}
	if cfg.Payments.FlatFee != 50 {
		t.Errorf("flat fee = %d, want 50", cfg.Payments.FlatFee)
	}
	if len(cfg.Payments.AllowedIntervals) == 0 {
		t.Error("allowed intervals not defaulted")
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver = %q, want mysql", cfg.Database.Driver)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	writeConfig(t, `
database:
  url: from-file
payments:
  secret_key: sk_file
  webhook_secret: whsec_file
  flat_fee: 30
auth:
  jwt_secret: secret
`)
	t.Setenv("DATABASE_URL", "from-env")
	t.Setenv("PAYMENTS_SECRET_KEY", "sk_env")
	t.Setenv("PLATFORM_FLAT_FEE", "75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "from-env" {
		t.Errorf("database url = %q, want from-env", cfg.Database.URL)
	}
	if cfg.Payments.SecretKey != "sk_env" {
		t.Errorf("secret key = %q, want sk_env", cfg.Payments.SecretKey)
	}
	if cfg.Payments.FlatFee != 75 {
		t.Errorf("flat fee = %d, want 75", cfg.Payments.FlatFee)
	}
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing database", `
payments:
  secret_key: sk
  webhook_secret: whsec
auth:
  jwt_secret: secret
`},
		{"missing payments", `
database:
  url: user:pass@/donations
auth:
  jwt_secret: secret
`},
		{"missing jwt secret", `
database:
  url: user:pass@/donations
payments:
  secret_key: sk
  webhook_secret: whsec
`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			writeConfig(t, c.content)
			if _, err := Load(); err == nil {
				t.Error("incomplete config accepted")
			}
		})
	}
}
