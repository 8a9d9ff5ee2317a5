package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server:
  listen: "127.0.0.1:0"
network_session:
  wiki_id: enwiki
  principals:
    - username: Bot
      token: secret
      ip_ranges: ["10.0.0.0/8", "192.0.2.1-192.0.2.9"]
    - username: Twin
      token: shared
      ip_ranges: ["127.0.0.1"]
    - username: Twin2
      token: shared
      ip_ranges: ["127.0.0.0/24", "not-a-range"]
accounts:
  users:
    - name: Bot
      rights: [read, edit]
`

// useConfig writes content to a temp file and points --config at it.
// Tests using it cannot run in parallel (cfgFile is global).
func useConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
	return path
}

// newMockCmd returns a command writing to the returned buffer.
func newMockCmd(use string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: use}
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}
