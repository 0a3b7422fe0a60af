package users

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// User is an authenticated account.
type User struct {
	ID   string
	Name string
}

type credential struct {
	token []byte
	user  User
}

// Directory resolves API tokens to users.
type Directory struct {
	creds []credential
}

// NewDirectory validates cfg and builds a Directory. Every user needs an ID
// and at least one token; IDs and tokens must be unique.
func NewDirectory(cfg UsersConfig) (*Directory, error) {
	if len(cfg.Users) == 0 {
		return nil, fmt.Errorf("no users defined")
	}

	d := &Directory{}
	seenIDs := make(map[string]bool, len(cfg.Users))
	seenTokens := make(map[string]bool)

	for i, entry := range cfg.Users {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("user #%d has no id", i+1)
		}
		if seenIDs[id] {
			return nil, fmt.Errorf("duplicate user id %q", id)
		}
		seenIDs[id] = true

		var tokens int
		for _, tok := range entry.Tokens {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if seenTokens[tok] {
				return nil, fmt.Errorf("user %q reuses a token already assigned", id)
			}
			seenTokens[tok] = true
			d.creds = append(d.creds, credential{
				token: []byte(tok),
				user:  User{ID: id, Name: entry.Name},
			})
			tokens++
		}
		if tokens == 0 {
			return nil, fmt.Errorf("user %q has no tokens", id)
		}
	}

	return d, nil
}

// Lookup returns the user owning token. Every credential is compared in
// constant time so lookups don't leak which prefix matched.
func (d *Directory) Lookup(token string) (User, bool) {
	if token == "" {
		return User{}, false
	}
	given := []byte(token)

	var (
		found User
		ok    bool
	)
	for _, c := range d.creds {
		if subtle.ConstantTimeCompare(given, c.token) == 1 {
			found, ok = c.user, true
		}
	}
	return found, ok
}

// Count returns the number of users with at least one token.
func (d *Directory) Count() int {
	ids := make(map[string]struct{})
	for _, c := range d.creds {
		ids[c.user.ID] = struct{}{}
	}
	return len(ids)
}
