// internal/httpserver/device.go
//
// Device identity for the single-device game.
//
// Every browser gets a random device id, carried as an HS256 JWT in a cookie
// (or an Authorization bearer header). The record store is keyed by that id.
// The signing key is derived from JWT_SECRET with HKDF so the raw secret is
// never used directly as a MAC key.

package httpserver

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/hkdf"
)

// deviceTokenHeader carries a freshly issued token for non-cookie clients.
const deviceTokenHeader = "X-Device-Token"

// ctxDeviceKey is the context key type for the device id.
type ctxDeviceKey struct{}

// deviceTokens signs and verifies device tokens.
type deviceTokens struct {
	key    []byte
	cookie string
	ttl    time.Duration
	secure bool
}

// newDeviceTokens derives a 32-byte signing key from secret.
func newDeviceTokens(secret, cookie string, ttl time.Duration, secure bool) (*deviceTokens, error) {
	if secret == "" {
		return nil, errors.New("device token secret is empty")
	}
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("wordle device token v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return &deviceTokens{key: key, cookie: cookie, ttl: ttl, secure: secure}, nil
}

// sign creates a token whose subject is the device id.
func (d *deviceTokens) sign(deviceID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(d.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   deviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(d.key)
	return ss, exp, err
}

// parse verifies a token and returns its device id.
func (d *deviceTokens) parse(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return d.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", errors.New("invalid device token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("invalid device id")
	}
	return claims.Subject, nil
}

// setCookie writes the device cookie with appropriate security attributes.
func (d *deviceTokens) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if d.secure {
		sameSite = http.SameSiteNoneMode // required for third‑party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     d.cookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   d.secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a token from the Authorization header or the cookie.
func (d *deviceTokens) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(d.cookie); err == nil {
		return c.Value
	}
	return ""
}

// withDevice resolves the device id for every request, issuing a new one
// (cookie + header) when the request carries no valid token.
func (s *Server) withDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if tok := s.tokens.bearerOrCookie(r); tok != "" {
			if got, err := s.tokens.parse(tok); err == nil {
				id = got
			} else {
				hlog.FromRequest(r).Debug().Err(err).Msg("discarding device token")
			}
		}
		if id == "" {
			id = uuid.New().String()
			tok, exp, err := s.tokens.sign(id)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("sign device token")
				writeError(w, http.StatusInternalServerError, "sign_failed", "could not issue device token")
				return
			}
			s.tokens.setCookie(w, tok, exp)
			w.Header().Set(deviceTokenHeader, tok)
		}
		ctx := context.WithValue(r.Context(), ctxDeviceKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceID returns the id placed in the context by withDevice.
func deviceID(r *http.Request) string {
	id, _ := r.Context().Value(ctxDeviceKey{}).(string)
	return id
}
