package callercontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("header X-Api-Key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Ada","plan":"pro"}`))
	}))
	defer srv.Close()

	f := New(time.Second)
	blob, err := f.Fetch(context.Background(), srv.URL, map[string]string{"X-Api-Key": "secret"})
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != `{"name":"Ada","plan":"pro"}` {
		t.Errorf("blob = %s", blob)
	}
}

func TestFetchRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := New(time.Second).Fetch(context.Background(), srv.URL, nil); err == nil {
		t.Error("403 response accepted")
	}
}

func TestFetchRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>hi</html>"))
	}))
	defer srv.Close()

	if _, err := New(time.Second).Fetch(context.Background(), srv.URL, nil); err == nil {
		t.Error("HTML body accepted")
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := New(time.Second).Fetch(ctx, srv.URL, nil); err == nil {
		t.Error("cancelled fetch succeeded")
	}
}
