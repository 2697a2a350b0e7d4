package database

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "menu.db")

	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"execution_metrics", "shopping_lists"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	// Re-running migrations on an up-to-date database is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Errorf("Expected second migration run to succeed, got %v", err)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got, err := ParseTime(FormatTime(ts))
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("Expected %v, got %v", ts, got)
	}
	if FormatTime(ts) >= FormatTime(ts.Add(time.Second)) {
		t.Error("Expected formatted timestamps to sort chronologically")
	}
}
