package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProjectDirName is the per-project directory holding config and history
const ProjectDirName = ".quizdedup"

// DiscoverProject returns the absolute path of the project directory.
//
// QUIZDEDUP_HOME, when set, names the project root directly. Otherwise only
// the current directory is checked; parent directories are never searched so
// a nested checkout cannot pick up an enclosing project's history.
func DiscoverProject() (string, error) {
	if home := os.Getenv("QUIZDEDUP_HOME"); home != "" {
		return projectDirIn(home)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return projectDirIn(dir)
}

func projectDirIn(root string) (string, error) {
	projectDir := filepath.Join(root, ProjectDirName)
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf(
			"no %s directory found in %s\n"+
				"  Run 'quizdedup init' to initialize a project in this directory\n"+
				"  Or set QUIZDEDUP_HOME to an initialized project",
			ProjectDirName, root)
	}
	absPath, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absPath, nil
}

// DiscoverDatabase finds the history database for the current project.
//
// QUIZDEDUP_DB_PATH is checked first so tests can isolate themselves; it may
// be ":memory:" or an explicit path. Otherwise the first .db file inside the
// discovered project directory is returned.
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("QUIZDEDUP_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	projectDir, err := DiscoverProject()
	if err != nil {
		return "", err
	}
	return discoverDatabaseInDir(filepath.Dir(projectDir))
}

// discoverDatabaseInDir checks for .quizdedup/*.db in dir only
func discoverDatabaseInDir(dir string) (string, error) {
	projectDir := filepath.Join(dir, ProjectDirName)

	if info, err := os.Stat(projectDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(projectDir)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".db") {
					absPath, err := filepath.Abs(filepath.Join(projectDir, entry.Name()))
					if err != nil {
						return "", fmt.Errorf("failed to get absolute path: %w", err)
					}
					return absPath, nil
				}
			}
		}
	}

	return "", fmt.Errorf(
		"no %s/*.db found in %s\n"+
			"  Run 'quizdedup init' to initialize a project in this directory\n"+
			"  Or use --db flag to specify database path explicitly",
		ProjectDirName, dir)
}

// GetProjectRoot returns the project root directory for a given database path.
// The project root is the directory containing the .quizdedup/ directory.
//
// Example:
//
//	dbPath: /home/user/exams/.quizdedup/history.db
//	returns: /home/user/exams
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)
	if filepath.Base(dbDir) != ProjectDirName {
		return "", fmt.Errorf(
			"database must be in a %s/ directory, got: %s",
			ProjectDirName, dbPath)
	}

	return filepath.Dir(dbDir), nil
}

// InitProject creates the .quizdedup directory under projectDir.
// Returns the project directory and the history database path; the database
// itself is created on first connection.
func InitProject(projectDir string) (string, string, error) {
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("project directory does not exist: %s", projectDir)
	}

	dir := filepath.Join(projectDir, ProjectDirName)
	dbPath := filepath.Join(dir, HistoryFileName)
	if _, err := os.Stat(dbPath); err == nil {
		return "", "", fmt.Errorf("database already exists: %s", dbPath)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create %s directory: %w", ProjectDirName, err)
	}

	return dir, dbPath, nil
}
