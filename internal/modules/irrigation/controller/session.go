package controller

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "irrigation_session"
	sessionMaxAge     = 30 * 24 * time.Hour
)

// sessionID returns the caller's session id, issuing a new cookie when the
// request has none or carries a value that is not a UUID. Call it before
// anything is written to w.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
