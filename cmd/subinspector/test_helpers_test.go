package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

type cliTestEnv struct {
	configHome string
	workDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{configHome: t.TempDir(), workDir: t.TempDir()}
	t.Setenv("XDG_CONFIG_HOME", env.configHome)
	t.Setenv("SUBINSPECTOR_FONT_DIR", "")
	xdg.Reload()
	t.Chdir(env.workDir)
	return env
}

func (e *cliTestEnv) defaultConfigPath() string {
	return filepath.Join(e.configHome, "subinspector", "config.toml")
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
