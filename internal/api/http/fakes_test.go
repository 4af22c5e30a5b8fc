package apihttp

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"cineplayer/internal/domain"
	"cineplayer/internal/hls"
	"cineplayer/internal/manifest"
)

// ---- fake media repository ----

type fakeMediaRepo struct {
	mu    sync.Mutex
	items map[domain.MediaID]domain.MediaItem
	err   error
}

func newFakeMediaRepo(items ...domain.MediaItem) *fakeMediaRepo {
	repo := &fakeMediaRepo{items: make(map[domain.MediaID]domain.MediaItem)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (f *fakeMediaRepo) Get(_ context.Context, id domain.MediaID) (domain.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.MediaItem{}, f.err
	}
	item, ok := f.items[id]
	if !ok {
		return domain.MediaItem{}, domain.ErrNotFound
	}
	return item, nil
}

func (f *fakeMediaRepo) List(_ context.Context, limit int) ([]domain.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.MediaItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMediaRepo) Upsert(_ context.Context, item domain.MediaItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeMediaRepo) Delete(_ context.Context, id domain.MediaID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

// ---- fake manifest service ----

type fakeManifests struct {
	result    manifest.Result
	masterErr error
	variants  []hls.Variant
	cues      map[string][]domain.Cue
	cueErr    error
}

func (f *fakeManifests) Master(context.Context, domain.MediaItem) (manifest.Result, error) {
	return f.result, f.masterErr
}

func (f *fakeManifests) Variants(context.Context, domain.MediaItem) ([]hls.Variant, error) {
	return f.variants, f.masterErr
}

func (f *fakeManifests) Subtitle(_ context.Context, rawURL string) ([]domain.Cue, error) {
	if f.cueErr != nil {
		return nil, f.cueErr
	}
	return f.cues[rawURL], nil
}

// ---- helpers ----

func testMediaItem() domain.MediaItem {
	return domain.MediaItem{
		ID:        "movie-42",
		Title:     "Big Buck Bunny",
		MasterURL: "https://cdn.example.com/movies/42/master.m3u8",
		AudioTracks: []domain.AudioTrackInfo{
			{ID: "a1", LanguageCode: "ru", DisplayName: "Дубляж"},
			{ID: "a2", LanguageCode: "ru", DisplayName: "MVO", IsDefault: true},
			{ID: "a3", LanguageCode: "en", DisplayName: "Original"},
		},
		SubtitleTracks: []domain.SubtitleTrackInfo{
			{ID: "s1", LanguageCode: "en", DisplayName: "English", URL: "https://cdn.example.com/subs/en.vtt"},
			{ID: "s2", LanguageCode: "ru", DisplayName: "Русские"},
		},
	}
}

func testCues() []domain.Cue {
	return []domain.Cue{
		{Start: 1, End: 3, Text: "Hello"},
		{Start: 5, End: 7, Text: "World"},
	}
}

func newTestServer(repo *fakeMediaRepo, manifests *fakeManifests, opts ...ServerOption) *Server {
	opts = append([]ServerOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	s := NewServer(repo, manifests, opts...)
	return s
}

func doRequest(s http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	var env errorEnvelope
	if err := decodeBody(rec, &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if env.Error.Code != code {
		t.Fatalf("error code = %q, want %q", env.Error.Code, code)
	}
}
