package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"catalogd/internal/config"
	"catalogd/internal/testsupport"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInit(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, err = runCLI(t, "", "config", "init", "--path", target)
	if err == nil {
		t.Fatalf("expected error for existing config, got output:\n%s", out)
	}
}

func TestStatusAndProducts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	master := testsupport.SeedDrugMaster(t, st, nil)

	out, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Master records:  1")
	requireContains(t, out, "Pending reviews: 0")

	out, err = runCLI(t, configPath, "products", "list")
	if err != nil {
		t.Fatalf("products list: %v", err)
	}
	requireContains(t, out, master.ProductName)

	out, err = runCLI(t, configPath, "products", "show", "1")
	if err != nil {
		t.Fatalf("products show: %v", err)
	}
	requireContains(t, out, master.ApprovalNumber)

	out, err = runCLI(t, configPath, "products", "show", "99")
	if err == nil {
		t.Fatalf("expected error for missing record, got output:\n%s", out)
	}
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "<redacted>")
	if strings.Contains(out, "api_key = '"+cfg.LLM.APIKey+"'") {
		t.Fatalf("expected api key to be redacted, got:\n%s", out)
	}
}

func TestReviewListEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, err := runCLI(t, configPath, "review", "list")
	if err != nil {
		t.Fatalf("review list: %v", err)
	}
	requireContains(t, out, "Review queue is empty")

	if _, err := runCLI(t, configPath, "review", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}
