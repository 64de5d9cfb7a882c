package sessioncookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var ErrInvalid = errors.New("invalid session cookie")

// Codec signs the anonymous builder session id. No account, no PII —
// just a stable handle for the draft store.
type Codec struct {
	Secret     []byte
	CookieName string
	Secure     bool
}

func New(secret []byte, name string, secure bool) *Codec {
	return &Codec{Secret: secret, CookieName: name, Secure: secure}
}

// value format: sessionID.base64(hmac(sessionID))
func (c *Codec) Encode(sessionID string) string {
	return sessionID + "." + sign(c.Secret, sessionID)
}

func (c *Codec) Decode(v string) (string, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 2 {
		return "", ErrInvalid
	}
	id := parts[0]
	if id == "" {
		return "", ErrInvalid
	}
	if !verify(c.Secret, id, parts[1]) {
		return "", ErrInvalid
	}
	return id, nil
}

// SessionID returns the current session id, minting and setting a fresh one
// when the cookie is absent or tampered with.
func (c *Codec) SessionID(ctx *gin.Context) string {
	if v, err := ctx.Cookie(c.CookieName); err == nil && v != "" {
		if id, err := c.Decode(v); err == nil {
			return id
		}
	}
	id := uuid.NewString()
	c.Set(ctx, id)
	return id
}

func (c *Codec) Set(ctx *gin.Context, sessionID string) {
	maxAge := int((7 * 24 * time.Hour).Seconds())
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.CookieName, c.Encode(sessionID), maxAge, "/", "", c.Secure, true)
}

func (c *Codec) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.CookieName, "", -1, "/", "", c.Secure, true)
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verify(secret []byte, payload, sig string) bool {
	return hmac.Equal([]byte(sign(secret, payload)), []byte(sig))
}
