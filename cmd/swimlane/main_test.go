package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dori/swimlane/internal/db"
	"github.com/dori/swimlane/internal/model"
	"github.com/dori/swimlane/internal/server"
)

const testSecret = "s3cret-for-tests"

// writeConfig points the data dir and the global config dir at temp dirs
func writeConfig(t *testing.T) (configPath, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)

	dataDir = filepath.Join(dir, "data")
	configPath = filepath.Join(dir, "swimlane.yaml")
	body := "data_dir: " + dataDir + "\n" +
		"server:\n" +
		"  auth_secret: " + testSecret + "\n"
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, dataDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddCreatesTaskInColumn(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "add", "Ship", "the", "release", "#review", "!high")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	for _, want := range []string{"Created: Ship the release", "Status: In Review", "Priority: high"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	database, err := db.Open(filepath.Join(dataDir, "swimlane.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	tasks, err := database.ListTasksForProject(context.Background(), model.InboxProjectID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != model.StatusReview {
		t.Fatalf("expected one task in review, got %+v", tasks)
	}
}

func TestAddDefaultsToTodo(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "add", "Water plants")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Status: To Do") {
		t.Fatalf("expected the To Do column, got:\n%s", out)
	}
}

func TestAddNeedsTitle(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	if _, err := execute(t, "--config", cfgPath, "add", "!high", "#done"); err == nil {
		t.Fatal("expected an error for a task without a title")
	}
}

func TestProjectsMarksCurrent(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "projects")
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if !strings.Contains(out, "Inbox *") {
		t.Fatalf("expected the inbox to be marked current, got:\n%s", out)
	}
}

func TestTokenIsAcceptedByServer(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "token", "--subject", "ci")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	sub, err := server.NewAuth(testSecret).SubjectFromHeader("Bearer " + strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("token rejected: %v", err)
	}
	if sub != "ci" {
		t.Fatalf("subject = %q, want ci", sub)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "--theme", "gruvbox", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, testSecret) {
		t.Fatalf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, "********") {
		t.Fatalf("expected a masked secret:\n%s", out)
	}
	if !strings.Contains(out, "theme: gruvbox") {
		t.Fatalf("expected the --theme override:\n%s", out)
	}
}

func TestInvalidBackendFlag(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "--config", cfgPath, "--backend", "carrier-pigeon", "config", "show")
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("expected an unknown backend error, got %v", err)
	}
}

func TestServeRefusesHTTPBackend(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	t.Setenv("SWIMLANE_API_BASE_URL", "http://127.0.0.1:1")

	_, err := execute(t, "--config", cfgPath, "--backend", "http", "serve")
	if err == nil || !strings.Contains(err.Error(), "serve needs the sqlite backend") {
		t.Fatalf("expected serve to refuse the http backend, got %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if _, err := execute(t, "config", "init", "--path", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := execute(t, "config", "init", "--path", path); err == nil {
		t.Fatal("expected an error when the file exists")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "swimlane "+Version) {
		t.Fatalf("unexpected version output %q", out)
	}
}
