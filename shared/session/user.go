package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/itchan-dev/strapikit/shared/domain"
	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/storage"
)

// UserStore is the single current-user slot, mirrored as JSON into the
// store so it survives restarts.
type UserStore struct {
	store storage.Store
	key   string
	ttl   time.Duration

	mu   sync.Mutex
	user *domain.Profile
}

func NewUserStore(store storage.Store, key string, ttl time.Duration) *UserStore {
	return &UserStore{store: store, key: key, ttl: ttl}
}

// Current returns the slot, falling back to the persisted copy. Nil when
// nobody is logged in.
func (u *UserStore) Current(ctx context.Context) *domain.Profile {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.user != nil {
		return u.user
	}
	u.user = u.load(ctx)
	return u.user
}

// Set replaces the slot. A nil profile is ignored; use Clear to log out.
func (u *UserStore) Set(ctx context.Context, p *domain.Profile) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.user = p
	return u.store.Set(ctx, u.key, string(data), u.ttl)
}

func (u *UserStore) Clear(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.user = nil
	return u.store.Delete(ctx, u.key)
}

func (u *UserStore) load(ctx context.Context) *domain.Profile {
	raw, err := u.store.Get(ctx, u.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Log.Error("reading logged user", "key", u.key, "error", err)
		}
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		logger.Log.Warn("discarding malformed logged user", "key", u.key, "error", err)
		return nil
	}
	if _, ok := fields["kind"]; !ok {
		return decodeBareUser([]byte(raw), fields)
	}

	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		logger.Log.Warn("discarding malformed logged user", "key", u.key, "error", err)
		return nil
	}
	if p.User == nil && p.Admin == nil {
		return nil
	}
	return &p
}

// decodeBareUser reads a user object stored without the profile wrapper,
// as browser clients write it. Admin accounts are told apart by fields
// end-user accounts never carry.
func decodeBareUser(raw []byte, fields map[string]json.RawMessage) *domain.Profile {
	_, hasFirstname := fields["firstname"]
	_, hasRoles := fields["roles"]
	_, hasIsActive := fields["isActive"]
	if hasFirstname || hasRoles || hasIsActive {
		var admin domain.AdminUser
		if err := json.Unmarshal(raw, &admin); err != nil || admin.Id == 0 {
			return nil
		}
		return domain.AdminProfile(&admin)
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil || user.Id == 0 {
		return nil
	}
	return domain.UserProfile(&user)
}
