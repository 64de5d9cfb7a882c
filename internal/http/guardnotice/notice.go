package guardnotice

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var ErrInvalid = errors.New("invalid notice cookie")

// Notice is the transient shopper notification shown after a guard
// correction. It survives exactly one reload and auto-dismisses client
// side; the cookie is one-shot.
type Notice struct {
	Kind    string `json:"kind"` // "info" | "warning"
	Message string `json:"message"`
}

type Codec struct {
	Secret     []byte
	CookieName string
	Secure     bool
}

func NewCodec(secret []byte, cookieName string, secure bool) *Codec {
	return &Codec{Secret: secret, CookieName: cookieName, Secure: secure}
}

// value format: base64(json).base64(hmac)
func (c *Codec) Encode(n Notice) (string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + sign(c.Secret, payload), nil
}

func (c *Codec) Decode(v string) (*Notice, error) {
	payload, sig, ok := strings.Cut(v, ".")
	if !ok || !verify(c.Secret, payload, sig) {
		return nil, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalid
	}
	var n Notice
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, ErrInvalid
	}
	if strings.TrimSpace(n.Message) == "" {
		return nil, ErrInvalid
	}
	return &n, nil
}

// SetCookie attaches the notice for the post-reload page to pick up.
func (c *Codec) SetCookie(ctx *gin.Context, n Notice) {
	val, err := c.Encode(n)
	if err != nil {
		return
	}
	// short-lived: read once after the reload, then gone
	maxAge := int((2 * time.Minute).Seconds())
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.CookieName, val, maxAge, "/", "", c.Secure, false)
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verify(secret []byte, payload, sig string) bool {
	return hmac.Equal([]byte(sign(secret, payload)), []byte(sig))
}
