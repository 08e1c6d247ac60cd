package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func wsRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws/chat/s1", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestOriginCheckerOpenWithoutAllowlist(t *testing.T) {
	check := originChecker("")
	assert.True(t, check(wsRequest("https://anywhere.example")))
	assert.True(t, check(wsRequest("")))
}

func TestOriginCheckerEnforcesAllowlist(t *testing.T) {
	check := originChecker("https://app.example.com, https://staging.example.com")
	assert.True(t, check(wsRequest("https://app.example.com")))
	assert.True(t, check(wsRequest("HTTPS://APP.EXAMPLE.COM")))
	assert.True(t, check(wsRequest("https://staging.example.com")))
	assert.False(t, check(wsRequest("https://evil.example.com")))
}

func TestOriginCheckerAllowsNonBrowserClients(t *testing.T) {
	check := originChecker("https://app.example.com")
	assert.True(t, check(wsRequest("")))
}
