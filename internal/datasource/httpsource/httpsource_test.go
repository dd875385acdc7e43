package httpsource

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"xmletl/internal/httpfetch"
)

func TestRemote_OpenFetchesEachCall(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("<root/>"))
	}))
	defer srv.Close()

	client := httpfetch.NewClient(httpfetch.Config{})
	src := NewRemote(client, srv.URL, nil)

	for i := 0; i < 2; i++ {
		rc, err := src.Open(context.Background())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		if string(b) != "<root/>" {
			t.Fatalf("got %q", b)
		}
	}
	if hits != 2 {
		t.Fatalf("expected 2 requests, got %d", hits)
	}
}

func TestRemote_OpenFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := httpfetch.NewClient(httpfetch.Config{})
	src := NewRemote(client, srv.URL, nil)

	if _, err := src.Open(context.Background()); err == nil {
		t.Fatalf("expected an error for 404 status")
	}
}
