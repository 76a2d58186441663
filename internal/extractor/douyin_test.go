package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/risunCode/downaria/internal/models"
)

func douyinPage(t *testing.T) string {
	t.Helper()
	payload := `{"app":{"videoInfoRes":{"item_list":[{` +
		`"desc":"street food","author":{"nickname":"foodie"},` +
		`"video":{"cover":{"url_list":["https://c.example/cover.jpg"]},` +
		`"play_addr":{"url_list":["https://v.example/playwm/abc.mp4"]}}}]}}}`
	return `<html><script id="RENDER_DATA" type="application/json">` +
		url.QueryEscape(payload) + `</script></html>`
}

func TestDouyin_Extract(t *testing.T) {
	page := douyinPage(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	e := newDouyin(testClient())
	data, extErr := e.Extract(context.Background(), srv.URL, Options{})
	if extErr != nil {
		t.Fatalf("unexpected error: %v", extErr)
	}

	if data.Title != "street food" {
		t.Errorf("Title = %q, want street food", data.Title)
	}
	if data.Author != "foodie" {
		t.Errorf("Author = %q, want foodie", data.Author)
	}
	if len(data.Formats) != 1 {
		t.Fatalf("len(Formats) = %d, want 1", len(data.Formats))
	}
	// Watermark-free rewrite.
	if data.Formats[0].URL != "https://v.example/play/abc.mp4" {
		t.Errorf("URL = %q, want playwm rewritten to play", data.Formats[0].URL)
	}
	if data.Formats[0].Kind != models.MediaVideo {
		t.Errorf("Kind = %q, want video", data.Formats[0].Kind)
	}
}

func TestDouyin_NoRenderData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>empty</body></html>"))
	}))
	defer srv.Close()

	e := newDouyin(testClient())
	_, extErr := e.Extract(context.Background(), srv.URL, Options{})
	if extErr == nil || extErr.Kind != models.ErrNotFound {
		t.Fatalf("got %v, want not_found", extErr)
	}
}

func TestDouyinVideoFormat_SchemeRelative(t *testing.T) {
	f := douyinVideoFormat("//v.example/playwm/abc.mp4")
	if f.URL != "https://v.example/play/abc.mp4" {
		t.Errorf("URL = %q, want https scheme added and playwm rewritten", f.URL)
	}
}
