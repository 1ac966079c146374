package jwttoken

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"portalgate/internal/portal"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
)

// Claims is the payload of a namespace session handle. The audience is the
// namespace id, so a handle minted for one portal never validates in another.
type Claims struct {
	SubjectID string `json:"sub_id"`
	Handle    string `json:"handle"`
	jwt.RegisteredClaims
}

// HandleService signs and validates the handle tokens carried in namespace
// cookies. Each namespace signs with its own key derived from the root secret.
type HandleService struct {
	issuer string
	keys   map[portal.ID][]byte
	now    func() time.Time
}

func NewHandleService(secret string, issuer string) (*HandleService, error) {
	if len(secret) < 32 {
		return nil, errors.New("handle signing secret must be at least 32 bytes")
	}
	keys := make(map[portal.ID][]byte, len(portal.All()))
	for _, ns := range portal.All() {
		key, err := deriveKey([]byte(secret), ns.ID)
		if err != nil {
			return nil, err
		}
		keys[ns.ID] = key
	}
	return &HandleService{issuer: issuer, keys: keys, now: time.Now}, nil
}

func deriveKey(secret []byte, ns portal.ID) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, []byte("portalgate/handle/"+ns.String()))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s handle key: %w", ns, err)
	}
	return key, nil
}

func (s *HandleService) Issue(ns portal.ID, handle id.HandleID, subjectID id.SubjectID, ttl time.Duration) (string, error) {
	key, ok := s.keys[ns]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown namespace")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID: subjectID.String(),
		Handle:    handle.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{ns.String()},
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign handle")
	}
	return signed, nil
}

// Validate checks signature, expiry, issuer and namespace audience.
func (s *HandleService) Validate(ns portal.ID, tokenString string) (*Claims, error) {
	key, ok := s.keys[ns]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown namespace")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return key, nil
	},
		jwt.WithAudience(ns.String()),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Resolve validates the token and parses its identifiers.
func (s *HandleService) Resolve(ns portal.ID, tokenString string) (id.HandleID, id.SubjectID, error) {
	claims, err := s.Validate(ns, tokenString)
	if err != nil {
		return id.HandleID{}, id.SubjectID{}, err
	}
	handle, err := id.ParseHandleID(claims.Handle)
	if err != nil {
		return id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	subject, err := id.ParseSubjectID(claims.SubjectID)
	if err != nil {
		return id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return handle, subject, nil
}
