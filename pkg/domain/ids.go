package domain

import (
	"github.com/google/uuid"

	dErrors "portalgate/pkg/domain-errors"
)

// SubjectID identifies an authenticated principal as issued by the identity backend.
type SubjectID uuid.UUID

// HandleID identifies one stored namespace session. It is the only value that
// ever leaves the server inside a portal cookie.
type HandleID uuid.UUID

func (id SubjectID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id HandleID) String() string { return uuid.UUID(id).String() }
func (id HandleID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewHandleID returns a random handle.
func NewHandleID() HandleID { return HandleID(uuid.New()) }

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

// ParseSubjectID parses a subject identifier at a trust boundary.
func ParseSubjectID(s string) (SubjectID, error) {
	parsed, err := parseUUID("subject id", s)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(parsed), nil
}

// ParseHandleID parses a session handle identifier at a trust boundary.
func ParseHandleID(s string) (HandleID, error) {
	parsed, err := parseUUID("handle id", s)
	if err != nil {
		return HandleID{}, err
	}
	return HandleID(parsed), nil
}

func (id SubjectID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *SubjectID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = SubjectID(u)
	return nil
}

func (id HandleID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *HandleID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = HandleID(u)
	return nil
}
