package portal

import (
	"net/http"
)

// CookieName is the cookie carrying a namespace's session handle. It reuses
// the storage key so the two can never diverge between namespaces.
func CookieName(id ID) string { return Get(id).StorageKey }

// SessionCookie builds the handle cookie for id. Durable namespaces persist
// for the session TTL; the ephemeral namespace gets a browser-session cookie.
func SessionCookie(id ID, value string, secure bool) *http.Cookie {
	ns := Get(id)
	c := &http.Cookie{
		Name:     ns.StorageKey,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ns.Medium == Durable {
		c.MaxAge = int(ns.SessionTTL.Seconds())
	}
	return c
}

// ClearCookie expires the handle cookie for id.
func ClearCookie(id ID, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName(id),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ReadCookie returns the handle cookie value for id, or "".
func ReadCookie(r *http.Request, id ID) string {
	c, err := r.Cookie(CookieName(id))
	if err != nil {
		return ""
	}
	return c.Value
}
