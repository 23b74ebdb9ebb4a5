package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func mkdirAll(dir string) error {
	return os.MkdirAll(dir, 0750)
}
