package storage

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDiscoverDatabaseInDir_CurrentDirOnly verifies that discoverDatabaseInDir
// only checks the specified directory and does NOT walk up the tree.
func TestDiscoverDatabaseInDir_CurrentDirOnly(t *testing.T) {
	// tmpRoot/
	//   parent/
	//     .quizdedup/
	//       history.db
	//     child/
	tmpRoot := t.TempDir()
	parentDir := filepath.Join(tmpRoot, "parent")
	childDir := filepath.Join(parentDir, "child")

	parentProjectDir := filepath.Join(parentDir, ProjectDirName)
	if err := os.MkdirAll(parentProjectDir, 0755); err != nil {
		t.Fatalf("failed to create parent project dir: %v", err)
	}
	parentDB := filepath.Join(parentProjectDir, HistoryFileName)
	if err := os.WriteFile(parentDB, []byte(""), 0644); err != nil {
		t.Fatalf("failed to create parent database: %v", err)
	}
	if err := os.MkdirAll(childDir, 0755); err != nil {
		t.Fatalf("failed to create child dir: %v", err)
	}

	if _, err := discoverDatabaseInDir(childDir); err == nil {
		t.Error("Expected error when no database in current dir, but got success")
	}

	dbPath, err := discoverDatabaseInDir(parentDir)
	if err != nil {
		t.Errorf("Expected to find database in parent dir, got error: %v", err)
	}
	if dbPath != parentDB {
		t.Errorf("Expected database path %s, got %s", parentDB, dbPath)
	}
}

// TestDiscoverDatabaseInDir_IgnoresOtherFiles verifies non-.db files and
// directories are skipped.
func TestDiscoverDatabaseInDir_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, ProjectDirName)
	if err := os.MkdirAll(filepath.Join(projectDir, "backup.db"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "config.yaml"), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := discoverDatabaseInDir(tmpDir); err == nil {
		t.Error("Expected error with no .db file present")
	}
}

func TestDiscoverProject_Home(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("QUIZDEDUP_HOME", tmpDir)

	if _, err := DiscoverProject(); err == nil {
		t.Fatal("Expected error before init")
	}

	if err := os.MkdirAll(filepath.Join(tmpDir, ProjectDirName), 0755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	dir, err := DiscoverProject()
	if err != nil {
		t.Fatalf("DiscoverProject failed: %v", err)
	}
	if dir != filepath.Join(tmpDir, ProjectDirName) {
		t.Errorf("Expected %s, got %s", filepath.Join(tmpDir, ProjectDirName), dir)
	}
}

func TestGetProjectRoot(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		want    string
		wantErr bool
	}{
		{"project db", "/home/user/exams/.quizdedup/history.db", "/home/user/exams", false},
		{"outside project dir", "/home/user/exams/history.db", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetProjectRoot(tt.dbPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetProjectRoot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetProjectRoot() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInitProject(t *testing.T) {
	tmpDir := t.TempDir()

	dir, dbPath, err := InitProject(tmpDir)
	if err != nil {
		t.Fatalf("InitProject failed: %v", err)
	}
	if dir != filepath.Join(tmpDir, ProjectDirName) {
		t.Errorf("unexpected project dir %s", dir)
	}
	if dbPath != filepath.Join(dir, HistoryFileName) {
		t.Errorf("unexpected database path %s", dbPath)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("project dir not created: %v", err)
	}

	// Re-running is allowed until the database exists
	if _, _, err := InitProject(tmpDir); err != nil {
		t.Errorf("second InitProject failed: %v", err)
	}
	if err := os.WriteFile(dbPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if _, _, err := InitProject(tmpDir); err == nil {
		t.Error("Expected error when database already exists")
	}

	if _, _, err := InitProject(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Expected error for missing project directory")
	}
}
