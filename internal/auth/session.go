package auth

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName   = "session"
	sessionUserID = "user_id"
)

// Flash categories, matching the alert styles the templates render.
const (
	FlashSuccess = "success"
	FlashError   = "danger"
	FlashInfo    = "info"
	FlashWarning = "warning"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Sessions keeps the signed-in user and flash messages in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string, maxAge int, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// session ignores decode errors; a tampered or stale cookie yields a fresh
// session.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	session, _ := s.store.Get(r, sessionName)
	return session
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID int) error {
	session := s.session(r)
	session.Values[sessionUserID] = userID
	return session.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session := s.session(r)
	delete(session.Values, sessionUserID)
	return session.Save(r, w)
}

// UserID returns the signed-in user's id, if any.
func (s *Sessions) UserID(r *http.Request) (int, bool) {
	id, ok := s.session(r).Values[sessionUserID].(int)
	return id, ok && id > 0
}

func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	session := s.session(r)
	session.AddFlash(Flash{Category: category, Message: message})
	return session.Save(r, w)
}

// Flashes pops every pending flash message.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := s.session(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save(r, w)

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
