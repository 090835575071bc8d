// Package auth keeps the signed-in donor in a signed cookie session.
//
// Donors sign in to the dashboard with their registered phone number. The
// session stores only the donor's ID plus the few fields shown in the header;
// handlers reload the full record from the store on each request. There is no
// package-level "current donor": LoadDonor puts a *DonorSession on the request
// context and handlers read it with CurrentDonor.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "bloodlink-session"

	// LoginPath is where RequireDonor sends signed-out browsers.
	LoginPath = "/dashboard"

	donorIDKey    = "donor_id"
	donorNameKey  = "donor_name"
	donorGroupKey = "donor_blood_group"
	donorCityKey  = "donor_city"
)

var ErrEmptySessionKey = errors.New("session key is empty; provide 32+ random chars")

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Donor helper                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// DonorSession is the per-browser state: who is signed in.
type DonorSession struct {
	DonorID    string
	Name       string
	BloodGroup models.BloodGroup
	City       string
}

type ctxKey string

const currentDonorKey ctxKey = "currentDonor"

// CurrentDonor returns the signed-in donor and a found flag.
func CurrentDonor(r *http.Request) (*DonorSession, bool) {
	d, ok := r.Context().Value(currentDonorKey).(*DonorSession)
	return d, ok && d != nil
}

// WithDonor returns r carrying d. Used by LoadDonor and by handler tests.
func WithDonor(r *http.Request, d *DonorSession) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentDonorKey, d))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager wraps the cookie store and the session name.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure with SameSite=Lax; over plain http in dev they are not
// Secure so localhost works.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// DevSessionKey returns a random key for dev runs without a configured key.
// Sessions do not survive a restart with it.
func DevSessionKey() string {
	return fmt.Sprintf("%x", securecookie.GenerateRandomKey(32))
}

// Name returns the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// Login records d as the signed-in donor and writes the cookie.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, d models.Donor) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[donorIDKey] = d.ID.Hex()
	sess.Values[donorNameKey] = d.Name
	sess.Values[donorGroupKey] = string(d.BloodGroup)
	sess.Values[donorCityKey] = d.City
	return sess.Save(r, w)
}

// Logout clears the session and expires the cookie.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Refresh rewrites the cached header fields after a profile edit.
func (sm *SessionManager) Refresh(w http.ResponseWriter, r *http.Request, d models.Donor) error {
	return sm.Login(w, r, d)
}

// LoadDonor injects the signed-in donor into the request context. A missing
// or tampered cookie leaves the request anonymous.
func (sm *SessionManager) LoadDonor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			sm.log.Debug("ignoring unreadable session cookie", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if id := getString(sess, donorIDKey); id != "" {
			r = WithDonor(r, &DonorSession{
				DonorID:    id,
				Name:       getString(sess, donorNameKey),
				BloodGroup: models.BloodGroup(getString(sess, donorGroupKey)),
				City:       getString(sess, donorCityKey),
			})
		}
		next.ServeHTTP(w, r)
	})
}

// RequireDonor ensures there is a donor in context (set by LoadDonor).
// If not signed in:
//   - HTMX: sends HX-Redirect to the dashboard login
//   - HTML: 303 redirect to the dashboard login
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireDonor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentDonor(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		dest := LoginPath + "?return=" + url.QueryEscape(r.URL.RequestURI())

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", dest)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, dest, http.StatusSeeOther)
			return
		}

		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// helpers

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
