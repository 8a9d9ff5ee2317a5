package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/identity"
)

func newMockCheckCmd(t *testing.T, flags map[string]string) (*cobra.Command, func() string) {
	t.Helper()
	cmd, out := newMockCmd("check")
	cmd.Flags().String("ip", "", "")
	cmd.Flags().String("token", "", "")
	cmd.Flags().String("header", "", "")
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd, out.String
}

func TestRunCheck(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)
	useConfig(t, testConfig)

	tests := []struct {
		flags    map[string]string
		wantErr  error
		name     string
		contains []string
	}{
		{
			name:     "token in range",
			flags:    map[string]string{"ip": "10.1.2.3", "token": "secret"},
			contains: []string{"decision:   authenticated", "username:   Bot", "entry:      0", "rights:     [read edit]"},
		},
		{
			name:     "header in dash range",
			flags:    map[string]string{"ip": "192.0.2.5", "header": "networksession secret"},
			contains: []string{"decision:   authenticated", "session_id: " + auth.DeriveSessionID("enwiki", "Bot", "secret")},
		},
		{
			name:     "address outside ranges",
			flags:    map[string]string{"ip": "203.0.113.1", "token": "secret"},
			wantErr:  auth.ErrNoMatch,
			contains: []string{"decision:   no_match"},
		},
		{
			name:     "two principals match",
			flags:    map[string]string{"ip": "127.0.0.1", "token": "shared"},
			wantErr:  auth.ErrAmbiguous,
			contains: []string{"decision:   ambiguous", "entry:      2"},
		},
		{
			name:     "other scheme",
			flags:    map[string]string{"ip": "10.1.2.3", "header": "Bearer secret"},
			wantErr:  auth.ErrNoCredential,
			contains: []string{"decision:   no_credential"},
		},
		{
			name:     "no credential",
			flags:    map[string]string{"ip": "10.1.2.3"},
			wantErr:  auth.ErrNoCredential,
			contains: []string{"decision:   no_credential"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, output := newMockCheckCmd(t, tt.flags)

			err := runCheck(cmd, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tt.contains {
				assert.Contains(t, output(), want)
			}
			assert.NotContains(t, output(), "secret\n")
		})
	}
}

func TestRunCheck_NoAccount(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)
	useConfig(t, testConfig)

	cmd, output := newMockCheckCmd(t, map[string]string{"ip": "127.0.0.5", "token": "shared"})

	err := runCheck(cmd, nil)
	assert.ErrorIs(t, err, identity.ErrNoAccount)
	assert.Contains(t, output(), "username:   Twin2")
	assert.Contains(t, output(), "account:    none")
}

func TestRunCheck_ConfigError(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)
	useConfig(t, `
server:
  listen: "127.0.0.1:0"
network_session:
  wiki_id: enwiki
  principals:
    - username: Bot
      token: secret
      ip_ranges: ["127.0.0.1"]
    - username: Broken
      ip_ranges: ["127.0.0.1"]
`)

	cmd, output := newMockCheckCmd(t, map[string]string{"ip": "127.0.0.1", "token": "secret"})

	err := runCheck(cmd, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrConfig)
	assert.Contains(t, output(), "decision:   config_error")
	assert.Contains(t, output(), "error:      invalid_token")
	assert.Contains(t, output(), "entry:      1")
}

func TestRunCheck_MissingConfig(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)
	prev := cfgFile
	cfgFile = "/nonexistent/config.yaml"
	defer func() { cfgFile = prev }()

	cmd, _ := newMockCheckCmd(t, map[string]string{"ip": "127.0.0.1", "token": "x"})
	assert.Error(t, runCheck(cmd, nil))
}
