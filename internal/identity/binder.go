package identity

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
)

var (
	// ErrNotAuthenticated is returned when Bind is given a non-successful result.
	ErrNotAuthenticated = errors.New("identity: result is not authenticated")
	// ErrNoAccount is returned when the user has no account and may not get one.
	ErrNoAccount = errors.New("identity: account does not exist and cannot be auto-created")
)

// Directory is the set of known accounts.
type Directory struct {
	accounts      map[string][]string
	defaultRights []string
	autocreate    bool
}

// NewDirectory builds a directory from the accounts section.
func NewDirectory(cfg config.AccountsConfig) *Directory {
	return &Directory{
		accounts: lo.SliceToMap(cfg.Users, func(u config.AccountConfig) (string, []string) {
			return u.Name, lo.Uniq(u.Rights)
		}),
		defaultRights: lo.Uniq(cfg.DefaultRights),
		autocreate:    cfg.Autocreate,
	}
}

// Lookup returns the rights of an existing account.
func (d *Directory) Lookup(username string) mo.Option[[]string] {
	rights, ok := d.accounts[username]
	if !ok {
		return mo.None[[]string]()
	}
	return mo.Some(rights)
}

// Len returns the number of known accounts.
func (d *Directory) Len() int {
	return len(d.accounts)
}

// Policy is the network session policy applied after authentication.
// It only affects identities produced by the network session mechanism.
type Policy struct {
	AllowedRights       mo.Option[[]string]
	CanAlwaysAutocreate bool
}

// Binder resolves authenticated results to identities.
type Binder struct {
	directory *Directory
	policy    Policy
}

// NewBinder creates a binder.
func NewBinder(directory *Directory, policy Policy) *Binder {
	return &Binder{directory: directory, policy: policy}
}

// NewBinderFromConfig creates a binder from a configuration snapshot.
func NewBinderFromConfig(cfg *config.Config) *Binder {
	return NewBinder(NewDirectory(cfg.Accounts), Policy{
		AllowedRights:       cfg.NetworkSession.GetAllowedRights(),
		CanAlwaysAutocreate: cfg.NetworkSession.CanAlwaysAutocreate,
	})
}

// Bind returns the identity for an authenticated result.
//
// An unknown user is created for the request only when the directory allows
// auto-creation, or when the network session policy always allows it.
// Network session rights are capped by AllowedRights when it is set.
func (b *Binder) Bind(result auth.Result) (*Identity, error) {
	if !result.Valid() {
		return nil, ErrNotAuthenticated
	}

	networkSession := result.Type == auth.TypeNetworkSession
	username := result.Outcome.Username

	rights, existing := b.directory.Lookup(username).Get()
	if !existing {
		if !b.directory.autocreate && !(networkSession && b.policy.CanAlwaysAutocreate) {
			return nil, fmt.Errorf("%w: %s", ErrNoAccount, username)
		}
		rights = b.directory.defaultRights
	}

	if allowed, capped := b.policy.AllowedRights.Get(); capped && networkSession {
		rights = lo.Filter(rights, func(r string, _ int) bool {
			return lo.Contains(allowed, r)
		})
	}

	return &Identity{
		Username:  username,
		SessionID: result.Outcome.SessionID,
		Provider:  result.Type,
		Rights:    append([]string{}, rights...),
		Ephemeral: !existing,
	}, nil
}
