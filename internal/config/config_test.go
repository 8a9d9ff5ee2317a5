package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestServerConfig_Defaults(t *testing.T) {
	t.Parallel()

	var s ServerConfig
	assert.True(t, s.IsHTTPSRequired())
	assert.True(t, s.GetTimeoutOption().IsAbsent())

	off := false
	s.RequireHTTPS = &off
	s.TimeoutMS = 1500
	assert.False(t, s.IsHTTPSRequired())
	assert.Equal(t, 1500*time.Millisecond, s.GetTimeoutOption().MustGet())
}

func TestFailureLimitConfig_Defaults(t *testing.T) {
	t.Parallel()

	var f FailureLimitConfig
	assert.False(t, f.IsEnabled())
	assert.Equal(t, int64(10_000), f.GetMaxClients())
	assert.Equal(t, 10*time.Minute, f.GetTTL())

	f = FailureLimitConfig{PerMinute: 12}
	assert.True(t, f.IsEnabled())
	assert.Equal(t, 12, f.GetBurst())

	f = FailureLimitConfig{PerMinute: 12, Burst: 3, MaxClients: 5, TTLSeconds: 30}
	assert.Equal(t, 3, f.GetBurst())
	assert.Equal(t, int64(5), f.GetMaxClients())
	assert.Equal(t, 30*time.Second, f.GetTTL())
}

func TestNetworkSessionConfig_AllowedRights(t *testing.T) {
	t.Parallel()

	var n NetworkSessionConfig
	assert.True(t, n.GetAllowedRights().IsAbsent())

	none := []string{}
	n.AllowedRights = &none
	rights, ok := n.GetAllowedRights().Get()
	assert.True(t, ok)
	assert.Empty(t, rights)
}

func TestPrincipalEntry_Principal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entry      PrincipalEntry
		name       string
		wantRanges []string
		wantUser   bool
		wantToken  bool
	}{
		{
			name:       "all strings",
			entry:      PrincipalEntry{"username": "Bot", "token": "s", "ip_ranges": []any{"1.2.3.4"}},
			wantUser:   true,
			wantToken:  true,
			wantRanges: []string{"1.2.3.4"},
		},
		{
			name:       "typed string slice",
			entry:      PrincipalEntry{"username": "Bot", "token": "s", "ip_ranges": []string{"::1"}},
			wantUser:   true,
			wantToken:  true,
			wantRanges: []string{"::1"},
		},
		{
			name:       "non string range is printed",
			entry:      PrincipalEntry{"username": "Bot", "token": "s", "ip_ranges": []any{"1.2.3.4", 5}},
			wantUser:   true,
			wantToken:  true,
			wantRanges: []string{"1.2.3.4", "5"},
		},
		{
			name:     "scalar ranges are absent",
			entry:    PrincipalEntry{"username": "Bot", "ip_ranges": "1.2.3.4"},
			wantUser: true,
		},
		{
			name:  "wrong types are absent",
			entry: PrincipalEntry{"username": 1, "token": true},
		},
		{
			name:  "empty entry",
			entry: PrincipalEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := tt.entry.Principal()
			assert.Equal(t, tt.wantUser, p.Username.IsPresent())
			assert.Equal(t, tt.wantToken, p.Token.IsPresent())
			if tt.wantRanges == nil {
				assert.True(t, p.IPRanges.IsAbsent())
			} else {
				assert.Equal(t, tt.wantRanges, p.IPRanges.MustGet())
			}
		})
	}
}

func TestPrincipalEntry_DoesNotAlias(t *testing.T) {
	t.Parallel()

	ranges := []string{"1.2.3.4"}
	p := PrincipalEntry{"ip_ranges": ranges}.Principal()
	ranges[0] = "9.9.9.9"

	assert.Equal(t, []string{"1.2.3.4"}, p.IPRanges.MustGet())
}

func TestLoggingConfig_ParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"INFO":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
	}

	for level, want := range tests {
		l := LoggingConfig{Level: level}
		assert.Equal(t, want, l.ParseLevel(), level)
	}
}
