package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cabildo-gob/cabildo/internal/authz"
)

// SessionManager orchestrates cookie based sessions backed by Redis. A
// session stores the identity snapshot taken at login plus the principal
// epoch it was built against; any role or permission change bumps the user's
// epoch so stale snapshots are rebuilt before the next evaluation.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Session holds per-request session data.
type Session struct {
	ID        string
	UserID    int64
	Epoch     int64
	Snapshot  authz.IdentityPayload
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	UserID   int64                 `json:"user_id"`
	Epoch    int64                 `json:"epoch"`
	Snapshot authz.IdentityPayload `json:"snapshot"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load loads the session for a request, or returns a fresh anonymous one.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	raw, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}

	return &Session{
		ID:       cookie.Value,
		UserID:   stored.UserID,
		Epoch:    stored.Epoch,
		Snapshot: stored.Snapshot,
	}, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if !sess.dirty {
		return nil
	}

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	raw, err := json.Marshal(sessionPayload{
		UserID:   sess.UserID,
		Epoch:    sess.Epoch,
		Snapshot: sess.Snapshot,
	})
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.ID), raw, sm.ttl).Err(); err != nil {
		return err
	}

	if sess.isNew {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(sm.ttl / time.Second),
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return nil
}

// Epoch returns the current principal epoch for the user. Zero when no role
// or permission change has been recorded yet.
func (sm *SessionManager) Epoch(ctx context.Context, userID int64) (int64, error) {
	raw, err := sm.client.Get(ctx, sm.epochKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// BumpEpoch invalidates every session snapshot of the user. Called after any
// mutation of the user's roles or of a role's permission set.
func (sm *SessionManager) BumpEpoch(ctx context.Context, userID int64) (int64, error) {
	return sm.client.Incr(ctx, sm.epochKey(userID)).Result()
}

// Authenticate rewrites the session for a freshly logged-in user.
func (s *Session) Authenticate(userID int64, epoch int64, snapshot authz.IdentityPayload) {
	s.UserID = userID
	s.Epoch = epoch
	s.Snapshot = snapshot
	s.dirty = true
}

// Refresh swaps in a rebuilt snapshot after an epoch mismatch.
func (s *Session) Refresh(epoch int64, snapshot authz.IdentityPayload) {
	s.Epoch = epoch
	s.Snapshot = snapshot
	s.dirty = true
}

// Destroy marks the session for deletion at commit time.
func (s *Session) Destroy() {
	s.destroyed = true
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

func (sm *SessionManager) newSession() *Session {
	return &Session{isNew: true}
}

func (sm *SessionManager) redisKey(id string) string {
	return "cabildo:session:" + id
}

func (sm *SessionManager) epochKey(userID int64) string {
	return fmt.Sprintf("cabildo:epoch:%d", userID)
}
