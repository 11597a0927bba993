package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/utils"
)

// Issuer signs tokens accepted by routers built in tests.
var Issuer = utils.NewTokenIssuer("test-secret", time.Hour, time.Hour, time.Hour)

func UserToken(t *testing.T, user models.User) string {
	t.Helper()
	token, err := Issuer.Access(user)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func GuestToken(t *testing.T, guestID string) string {
	t.Helper()
	token, _, err := Issuer.Guest(guestID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

// Do sends body (JSON-encoded unless it is already a string or nil) to the handler.
func Do(h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a recorded JSON body into a generic map.
func Decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}
