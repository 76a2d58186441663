package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Do_Success(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	headers := http.Header{}
	headers.Set("User-Agent", "test-agent")

	body, err := client.Do(context.Background(), Request{
		URL:     srv.URL,
		Headers: headers,
		Cookie:  "sessionid=abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want hello", body)
	}
	if gotCookie != "sessionid=abc" {
		t.Errorf("cookie = %q, want sessionid=abc", gotCookie)
	}
	if gotUA != "test-agent" {
		t.Errorf("user agent = %q, want test-agent", gotUA)
	}
}

func TestClient_Probe(t *testing.T) {
	var gotMethod, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCookie = r.Header.Get("Cookie")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	if err := client.Probe(context.Background(), srv.URL, nil, "sessionid=abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Probes go out as GET: several platforms reject bare HEAD requests.
	if gotMethod != http.MethodGet {
		t.Errorf("method = %q, want GET", gotMethod)
	}
	if gotCookie != "sessionid=abc" {
		t.Errorf("cookie = %q, want sessionid=abc", gotCookie)
	}

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer rejecting.Close()

	if err := client.Probe(context.Background(), rejecting.URL, nil, "sessionid=abc"); err == nil {
		t.Error("expected error for a rejecting upstream")
	}
}

func TestClient_Do_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("denied"))
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	_, err := client.Do(context.Background(), Request{URL: srv.URL})
	if err == nil {
		t.Fatal("expected error for 403")
	}

	se, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", se.StatusCode)
	}
	if !se.AuthRejected() {
		t.Error("403 should report AuthRejected")
	}
	if se.NotFound() {
		t.Error("403 should not report NotFound")
	}
	if string(se.Body) != "denied" {
		t.Errorf("Body = %q, want denied", se.Body)
	}
}

func TestClient_Do_NetworkError(t *testing.T) {
	client := New(time.Second)
	// Closed server yields a transport error, not a StatusError.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.Do(context.Background(), Request{URL: srv.URL})
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if _, ok := AsStatusError(err); ok {
		t.Error("transport failure must not be a StatusError")
	}
}

func TestClient_Do_NoCookieHeaderWhenEmpty(t *testing.T) {
	var hadCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadCookie = r.Header["Cookie"]
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	if _, err := client.Do(context.Background(), Request{URL: srv.URL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hadCookie {
		t.Error("anonymous request must not carry a Cookie header")
	}
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	client := New(5 * time.Second)
	if _, err := client.Do(ctx, Request{URL: srv.URL}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
