package faceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyAgainstService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		verified := req["user_id"] == "stu-1"
		_ = json.NewEncoder(w).Encode(map[string]any{"verified": verified, "similarity": 0.92})
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	ok, err := c.Verify(context.Background(), "stu-1", "https://cdn/img.jpg")
	if err != nil || !ok {
		t.Fatalf("expected verified, got %v %v", ok, err)
	}
	ok, err = c.Verify(context.Background(), "stu-2", "https://cdn/img.jpg")
	if err != nil || ok {
		t.Fatalf("expected not verified, got %v %v", ok, err)
	}
}

func TestVerifySkipMode(t *testing.T) {
	c := New("http://unused", true)
	ok, err := c.Verify(context.Background(), "anyone", "anything")
	if err != nil || !ok {
		t.Fatalf("skip mode should always verify, got %v %v", ok, err)
	}
}

func TestAuditScoreNoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"score": 0.0, "faces_detected": 0})
	}))
	defer srv.Close()

	if _, err := New(srv.URL, false).AuditScore(context.Background(), "https://cdn/img.jpg"); err == nil {
		t.Fatalf("expected error when no face detected")
	}
}

func TestServiceErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, false).Verify(context.Background(), "stu-1", "https://cdn/img.jpg"); err == nil {
		t.Fatalf("expected service error to surface")
	}
}
