package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrateUpDownStatus(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "migrate.sqlite"))

	output, err := execute(t, NewRootCommand(), "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up: %v\n%s", err, output)
	}
	if !strings.Contains(output, "backend: sqlite") || !strings.Contains(output, "dirty:   false") {
		t.Errorf("unexpected migrate up output:\n%s", output)
	}
	if strings.Contains(output, "version: 0\n") {
		t.Errorf("expected a non-zero schema version:\n%s", output)
	}

	if _, err := execute(t, NewRootCommand(), "migrate", "status"); err != nil {
		t.Fatalf("migrate status: %v", err)
	}

	if _, err := execute(t, NewRootCommand(), "migrate", "down", "--steps", "0"); err == nil {
		t.Fatal("expected error for --steps 0")
	}
}
