package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/iprange"
)

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":      true, // Empty defaults to info
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty defaults to json
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

// Validate checks the configuration for errors.
// It validates all required fields, valid values, and cross-field constraints.
// Returns a ValidationError containing all errors found, or nil if valid.
//
// The principal table is deliberately not validated here: its problems are
// reported per entry at evaluation time. See PrincipalProblems.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateServer(c, errs)
	validateNetworkSession(c, errs)
	validateAccounts(c, errs)
	validateLogging(c, errs)

	return errs.ToError()
}

// validateServer validates the server configuration section.
func validateServer(c *Config, errs *ValidationError) {
	if c.Server.Listen == "" {
		errs.Add("server.listen is required")
	} else {
		validateListenAddress(c.Server.Listen, errs)
	}

	if c.Server.TimeoutMS < 0 {
		errs.Add("server.timeout_ms must be >= 0")
	}

	if _, err := iprange.ParseSet(c.Server.TrustedProxies); err != nil {
		errs.Addf("server.trusted_proxies is invalid: %v", err)
	}

	if c.Server.APIKey.IsEnabled() && c.Server.APIKey.Username == "" {
		errs.Add("server.api_key.username is required when server.api_key.key is set")
	}

	limit := c.Server.AuthFailureLimit
	if limit.PerMinute < 0 {
		errs.Add("server.auth_failure_limit.per_minute must be >= 0")
	}
	if limit.Burst < 0 {
		errs.Add("server.auth_failure_limit.burst must be >= 0")
	}
	if limit.MaxClients < 0 {
		errs.Add("server.auth_failure_limit.max_clients must be >= 0")
	}
	if limit.TTLSeconds < 0 {
		errs.Add("server.auth_failure_limit.ttl_seconds must be >= 0")
	}
}

// validateListenAddress validates a listen address in host:port format.
func validateListenAddress(addr string, errs *ValidationError) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		errs.Addf("server.listen must be in host:port format (got %q)", addr)
		return
	}

	// Host can be empty (listen on all interfaces) or a valid IP/hostname
	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " \t\n") {
		errs.Add("server.listen host contains invalid characters")
	}

	if port == "" {
		errs.Add("server.listen port is required")
	}
}

// validateNetworkSession validates the fields around the principal table.
func validateNetworkSession(c *Config, errs *ValidationError) {
	if len(c.NetworkSession.PrincipalEntries) > 0 && c.NetworkSession.WikiID == "" {
		errs.Add("network_session.wiki_id is required when principals are configured")
	}

	if rights, ok := c.NetworkSession.GetAllowedRights().Get(); ok {
		for i, right := range rights {
			if right == "" {
				errs.Addf("network_session.allowed_rights[%d] must not be empty", i)
			}
		}
	}
}

// validateAccounts validates the account directory.
func validateAccounts(c *Config, errs *ValidationError) {
	seen := make(map[string]bool)
	for i, user := range c.Accounts.Users {
		if user.Name == "" {
			errs.Addf("accounts.users[%d].name is required", i)
			continue
		}
		if seen[user.Name] {
			errs.Addf("duplicate account name: %s", user.Name)
		}
		seen[user.Name] = true
	}
}

// validateLogging validates the logging configuration section.
func validateLogging(c *Config, errs *ValidationError) {
	if !validLogLevels[c.Logging.Level] {
		errs.Addf("logging.level is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}

	if !validLogFormats[c.Logging.Format] {
		errs.Addf("logging.format is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}
}

// PrincipalProblem describes an issue in one principal entry.
type PrincipalProblem struct {
	Message string
	Entry   int
	// Fatal problems make every credential-bearing request fail once the
	// entry is reached. Non-fatal ones only stop a range from matching.
	Fatal bool
}

func (p PrincipalProblem) String() string {
	return fmt.Sprintf("network_session.principals[%d]: %s", p.Entry, p.Message)
}

// PrincipalProblems lists structural errors and unparseable ranges in the
// principal table, in table order. The server logs these at startup and
// reload; the engine enforces them per request.
func (c *Config) PrincipalProblems() []PrincipalProblem {
	var problems []PrincipalProblem

	for i, p := range c.NetworkSession.Principals() {
		if kind, bad := p.Check().Get(); bad {
			problems = append(problems, PrincipalProblem{Entry: i, Message: string(kind), Fatal: true})
			continue
		}
		for j, spec := range p.IPRanges.MustGet() {
			if _, err := iprange.Parse(spec); err != nil {
				problems = append(problems, PrincipalProblem{
					Entry:   i,
					Message: fmt.Sprintf("ip_ranges[%d] %q never matches: %v", j, spec, err),
				})
			}
		}
		if len(p.IPRanges.MustGet()) == 0 {
			problems = append(problems, PrincipalProblem{Entry: i, Message: "ip_ranges is empty, entry never matches"})
		}
	}

	return problems
}
