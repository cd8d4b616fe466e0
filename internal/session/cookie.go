package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const CookieName = "storefront_session"

// Manager ties the signed session cookie to the session store.
type Manager struct {
	sc     *securecookie.SecureCookie
	store  Store
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, hashKey, blockKey []byte, maxAge time.Duration, secure bool) *Manager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	return &Manager{sc: sc, store: store, maxAge: maxAge, secure: secure, now: time.Now}
}

// ID returns the session id carried by the request cookie.
func (m *Manager) ID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	value := map[string]string{}
	if err := m.sc.Decode(CookieName, c.Value, &value); err != nil {
		return "", false
	}
	id := value["sid"]
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Load returns the request's session. A missing, tampered or expired cookie
// starts a new session and sets its cookie on w; the new session is only
// persisted by Save.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if id, ok := m.ID(r); ok {
		s, err := m.store.Get(r.Context(), id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}

	s := New(uuid.NewString(), m.now())
	if err := m.setCookie(w, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.now()
	return m.store.Save(ctx, s)
}

// Destroy removes the session and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	if id, ok := m.ID(r); ok {
		if err := m.store.Delete(r.Context(), id); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name: CookieName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: m.secure, SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	encoded, err := m.sc.Encode(CookieName, map[string]string{"sid": id})
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name: CookieName, Value: encoded, Path: "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true, Secure: m.secure, SameSite: http.SameSiteLaxMode,
	})
	return nil
}
