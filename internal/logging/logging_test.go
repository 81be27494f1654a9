package logging

import (
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupKeepsRetentionWindow(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 11, 20, 15, 0, 0, 0, time.UTC)
	for _, name := range []string{
		"app-2024-11-20.log",
		"app-2024-11-14.log",
		"app-2024-11-13.log",
		"app-garbage.log",
		"other.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	Cleanup(dir, 7, now)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	left := []string{}
	for _, e := range entries {
		left = append(left, e.Name())
	}
	assert.ElementsMatch(t, []string{"app-2024-11-20.log", "app-2024-11-14.log", "app-garbage.log", "other.txt"}, left)
}

func TestSetupWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	closeLogs, err := Setup(dir, 30)
	require.NoError(t, err)
	log.Printf("hello from test")
	closeLogs()

	content, err := os.ReadFile(filepath.Join(dir, "app-"+time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello from test")
}
