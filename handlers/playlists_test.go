package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"embertv/internal/jsonstore"
	"embertv/services/playlists"
)

type stubFetcher struct {
	content string
}

func (f stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.content, nil
}

func newPlaylistsRouter(t *testing.T) (*mux.Router, *playlists.Service) {
	t.Helper()
	svc := playlists.NewService(jsonstore.New(afero.NewMemMapFs()), "data", stubFetcher{
		content: "#EXTM3U\n" +
			"#EXTINF:-1 group-title=\"News\",News One\nhttp://x/1.ts\n" +
			"#EXTINF:-1 group-title=\"Sports\",Goal TV\nhttp://x/2.ts\n",
	})
	h := NewPlaylistsHandler(svc)

	r := mux.NewRouter()
	r.HandleFunc("/m3u/lists", h.List).Methods(http.MethodGet)
	r.HandleFunc("/m3u/lists", h.Import).Methods(http.MethodPost)
	r.HandleFunc("/m3u/lists/{listID}/channels", h.Channels).Methods(http.MethodGet)
	r.HandleFunc("/m3u/lists/{listID}/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/m3u/lists/{listID}", h.Delete).Methods(http.MethodDelete)
	return r, svc
}

func do(r *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPlaylistImportEndpoint(t *testing.T) {
	r, _ := newPlaylistsRouter(t)

	rec := do(r, http.MethodPost, "/m3u/lists", `{"url":"http://example.com/a.m3u","name":"Main"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ListID          int `json:"list_id"`
		ChannelsCount   int `json:"channels_count"`
		CategoriesCount int `json:"categories_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.ListID != 1 || resp.ChannelsCount != 2 || resp.CategoriesCount != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rec = do(r, http.MethodPost, "/m3u/lists", `{"url":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty URL should 400, got %d", rec.Code)
	}
}

func TestPlaylistChannelsEndpoint(t *testing.T) {
	r, _ := newPlaylistsRouter(t)
	do(r, http.MethodPost, "/m3u/lists", `{"url":"http://example.com/a.m3u"}`)

	rec := do(r, http.MethodGet, "/m3u/lists/1/channels?q=goal", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Channels []struct {
			Name string `json:"name"`
		} `json:"channels"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Channels) != 1 || resp.Channels[0].Name != "Goal TV" {
		t.Errorf("unexpected channels: %+v", resp.Channels)
	}

	if rec := do(r, http.MethodGet, "/m3u/lists/9/channels", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown list should 404, got %d", rec.Code)
	}
}

func TestPlaylistDeleteEndpoint(t *testing.T) {
	r, svc := newPlaylistsRouter(t)
	do(r, http.MethodPost, "/m3u/lists", `{"url":"http://example.com/a.m3u"}`)

	if rec := do(r, http.MethodDelete, "/m3u/lists/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	lists, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(lists) != 0 {
		t.Errorf("expected empty store, got %+v", lists)
	}
}
