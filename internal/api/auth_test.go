package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GarvGoel08/DocOnGo/models"
)

func newTestAuthClient(t *testing.T, handler http.Handler) *AuthClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAuthClient(srv.URL, 5*time.Second)
}

func TestLogin(t *testing.T) {
	var gotBody map[string]string
	auth := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]string{"id": "u1", "name": "Pat", "email": "pat@example.test"},
			"token": "tok-fresh",
		})
	}))

	resp, err := auth.Login(context.Background(), models.LoginRequest{Email: "pat@example.test", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "tok-fresh" || resp.User.Name != "Pat" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if gotBody["email"] != "pat@example.test" || gotBody["password"] != "hunter22" {
		t.Fatalf("unexpected request body %v", gotBody)
	}
}

func TestLoginRejected(t *testing.T) {
	auth := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
	}))

	_, err := auth.Login(context.Background(), models.LoginRequest{Email: "pat@example.test", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestAPIKeyEndpoints(t *testing.T) {
	var setKey string
	var gotAuth string
	auth := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.Method + " " + r.URL.Path {
		case "POST /auth/api-key":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			setKey = body["apiKey"]
			w.WriteHeader(http.StatusOK)
		case "GET /auth/api-key/check":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]bool{"hasApiKey": setKey != ""})
		case "GET /auth/api-key":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"apiKey": setKey})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	ctx := context.Background()
	has, err := auth.CheckAPIKey(ctx, "tok-1")
	if err != nil || has {
		t.Fatalf("CheckAPIKey before set: has=%t err=%v", has, err)
	}

	key := "AIzaServerKey0000000000000000000"
	if err := auth.SetAPIKey(ctx, "tok-1", key); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("auth header = %q", gotAuth)
	}

	has, err = auth.CheckAPIKey(ctx, "tok-1")
	if err != nil || !has {
		t.Fatalf("CheckAPIKey after set: has=%t err=%v", has, err)
	}
	got, err := auth.GetAPIKey(ctx, "tok-1")
	if err != nil || got != key {
		t.Fatalf("GetAPIKey = %q, %v", got, err)
	}
}
