package models

import (
	"time"

	"portalgate/internal/portal"
	id "portalgate/pkg/domain"
)

// AuthSession is a backend session held inside exactly one namespace. The
// tokens are never written to another namespace's store.
type AuthSession struct {
	Handle             id.HandleID  `json:"handle"`
	Namespace          portal.ID    `json:"namespace"`
	SubjectID          id.SubjectID `json:"subject_id"`
	AccessToken        string       `json:"access_token"`
	RefreshToken       string       `json:"refresh_token"`
	AccessExpiresAt    time.Time    `json:"access_expires_at"`
	MustChangePassword bool         `json:"must_change_password"`
	CreatedAt          time.Time    `json:"created_at"`
	RefreshedAt        *time.Time   `json:"refreshed_at,omitempty"`
}

// AccessExpired reports whether the backend access token is past its expiry.
func (s *AuthSession) AccessExpired(now time.Time) bool {
	return !s.AccessExpiresAt.IsZero() && !now.Before(s.AccessExpiresAt)
}

// NeedsRefresh reports whether the access token expires within margin.
func (s *AuthSession) NeedsRefresh(now time.Time, margin time.Duration) bool {
	if s.RefreshToken == "" || s.AccessExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.AccessExpiresAt)
}

// Metadata tracks liveness for a subject independently of which namespace is
// active. It is created on sign-in and deleted on sign-out or forced logout.
type Metadata struct {
	SubjectID        id.SubjectID
	Namespace        portal.ID
	Handle           id.HandleID
	Device           string
	SessionCreatedAt time.Time
	LastActivityAt   time.Time
}

// InvalidReason explains why a session failed validation.
type InvalidReason string

const (
	ReasonInactive        InvalidReason = "inactive"
	ReasonAbsoluteExpired InvalidReason = "absolute_expired"
)

// Validity is the result of a session validity check.
type Validity struct {
	Valid  bool
	Reason InvalidReason
}

func ValidSession() Validity { return Validity{Valid: true} }

func InvalidSession(reason InvalidReason) Validity {
	return Validity{Valid: false, Reason: reason}
}
