package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookies(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	c := CreateCookie(AccessCookie, "tok", "/", exp, true)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	d := DeleteCookie(RefreshCookie, "/", false)
	assert.Empty(t, d.Value)
	assert.Equal(t, -1, d.MaxAge)
	assert.False(t, d.Secure)
}

func TestSha256Hex(t *testing.T) {
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		Sha256Hex("hello"))
	assert.Len(t, Sha256Hex(""), 64)
}
