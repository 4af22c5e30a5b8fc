package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cineplayer/internal/domain"
	"cineplayer/internal/hls"
	"cineplayer/internal/manifest"
)

func decodeBody(rec *httptest.ResponseRecorder, dst interface{}) error {
	return json.NewDecoder(rec.Body).Decode(dst)
}

func TestMediaCRUD(t *testing.T) {
	repo := newFakeMediaRepo()
	s := newTestServer(repo, &fakeManifests{})
	defer s.Close()

	body, _ := json.Marshal(testMediaItem())
	rec := doRequest(s, http.MethodPut, "/media/movie-7", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body.String())
	}
	var saved domain.MediaItem
	if err := decodeBody(rec, &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID != "movie-7" {
		t.Fatalf("path id must win, got %q", saved.ID)
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatalf("UpdatedAt must be set")
	}

	rec = doRequest(s, http.MethodGet, "/media/movie-7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/media?limit=10", nil)
	var list mediaList
	if err := decodeBody(rec, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Items[0].ID != "movie-7" {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = doRequest(s, http.MethodDelete, "/media/movie-7", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	assertErrorCode(t, doRequest(s, http.MethodGet, "/media/movie-7", nil), http.StatusNotFound, "not_found")
	assertErrorCode(t, doRequest(s, http.MethodDelete, "/media/movie-7", nil), http.StatusNotFound, "not_found")
}

func TestMediaListEmpty(t *testing.T) {
	s := newTestServer(newFakeMediaRepo(), &fakeManifests{})
	defer s.Close()

	rec := doRequest(s, http.MethodGet, "/media", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestPutMediaValidation(t *testing.T) {
	s := newTestServer(newFakeMediaRepo(), &fakeManifests{})
	defer s.Close()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "unknown field", body: `{"masterUrl":"https://x/m.m3u8","bogus":1}`},
		{name: "missing master url", body: `{"title":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertErrorCode(t, doRequest(s, http.MethodPut, "/media/x", []byte(tt.body)), http.StatusBadRequest, "invalid_request")
		})
	}
}

func TestPutMediaRejectsLocalFiles(t *testing.T) {
	repo := newFakeMediaRepo()
	s := newTestServer(repo, &fakeManifests{})
	defer s.Close()

	bodies := []string{
		`{"masterUrl":"file:///etc/passwd"}`,
		`{"masterUrl":"https://cdn.example.com/m.m3u8","subtitleTracks":[{"displayName":"x","url":"file:///etc/shadow"}]}`,
		`{"masterUrl":"ftp://cdn.example.com/m.m3u8"}`,
	}
	for _, body := range bodies {
		assertErrorCode(t, doRequest(s, http.MethodPut, "/media/local", []byte(body)), http.StatusBadRequest, "invalid_request")
	}
	if _, err := repo.Get(context.Background(), "local"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected media must not be stored, got %v", err)
	}
}

func TestPutMediaAcceptsFilesInsideRoot(t *testing.T) {
	root := t.TempDir()
	s := newTestServer(newFakeMediaRepo(), &fakeManifests{}, WithFileRoot(root))
	defer s.Close()

	inside := `{"masterUrl":"file://` + filepath.ToSlash(filepath.Join(root, "master.m3u8")) + `"}`
	if rec := doRequest(s, http.MethodPut, "/media/local", []byte(inside)); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, doRequest(s, http.MethodPut, "/media/local", []byte(`{"masterUrl":"file:///etc/passwd"}`)), http.StatusBadRequest, "invalid_request")
}

func TestMediaRepositoryError(t *testing.T) {
	repo := newFakeMediaRepo()
	repo.err = errors.New("mongo down")
	s := newTestServer(repo, &fakeManifests{})
	defer s.Close()

	assertErrorCode(t, doRequest(s, http.MethodGet, "/media", nil), http.StatusInternalServerError, "repository_error")
	assertErrorCode(t, doRequest(s, http.MethodGet, "/media/a", nil), http.StatusInternalServerError, "repository_error")
}

func TestMediaMethodNotAllowed(t *testing.T) {
	s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{})
	defer s.Close()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/media"},
		{http.MethodPost, "/media/movie-42"},
		{http.MethodPost, "/media/movie-42/master.m3u8"},
		{http.MethodDelete, "/media/movie-42/variants"},
		{http.MethodPut, "/media/movie-42/subtitles/0/cues"},
		{http.MethodGet, "/media/movie-42/tracks/match"},
		{http.MethodGet, "/tools/rewrite"},
		{http.MethodGet, "/tools/cues"},
	}
	for _, tt := range tests {
		rec := doRequest(s, tt.method, tt.path, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}

	assertErrorCode(t, doRequest(s, http.MethodGet, "/media/movie-42/unknown", nil), http.StatusNotFound, "not_found")
}

func TestMasterPlaylist(t *testing.T) {
	const playlist = "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nhttps://cdn.example.com/v.m3u8\n"

	t.Run("fresh", func(t *testing.T) {
		s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{result: manifest.Result{Playlist: playlist}})
		defer s.Close()

		rec := doRequest(s, http.MethodGet, "/media/movie-42/master.m3u8", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != playlistContentType {
			t.Fatalf("Content-Type = %q", ct)
		}
		if rec.Header().Get(staleHeader) != "" {
			t.Fatalf("fresh playlist must not carry the stale header")
		}
		if rec.Body.String() != playlist {
			t.Fatalf("body = %q", rec.Body.String())
		}
	})

	t.Run("stale", func(t *testing.T) {
		s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{result: manifest.Result{Playlist: playlist, Stale: true}})
		defer s.Close()

		rec := doRequest(s, http.MethodGet, "/media/movie-42/master.m3u8", nil)
		if rec.Code != http.StatusOK || rec.Header().Get(staleHeader) != "1" {
			t.Fatalf("status = %d, stale header = %q", rec.Code, rec.Header().Get(staleHeader))
		}
	})

	t.Run("no fallback", func(t *testing.T) {
		err := fmt.Errorf("fetch master: %w: %w", manifest.ErrNoFallback, errors.New("timeout"))
		s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{masterErr: err})
		defer s.Close()

		assertErrorCode(t, doRequest(s, http.MethodGet, "/media/movie-42/master.m3u8", nil), http.StatusBadGateway, "upstream_unavailable")
	})

	t.Run("local file refused", func(t *testing.T) {
		s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{masterErr: manifest.ErrLocalFile})
		defer s.Close()

		assertErrorCode(t, doRequest(s, http.MethodGet, "/media/movie-42/master.m3u8", nil), http.StatusBadRequest, "invalid_request")
	})

	t.Run("unknown media", func(t *testing.T) {
		s := newTestServer(newFakeMediaRepo(), &fakeManifests{})
		defer s.Close()

		assertErrorCode(t, doRequest(s, http.MethodGet, "/media/nope/master.m3u8", nil), http.StatusNotFound, "not_found")
	})
}

func TestVariants(t *testing.T) {
	manifests := &fakeManifests{variants: []hls.Variant{
		{Bandwidth: 5000000, Resolution: "1920x1080", Audio: "aud", URI: "https://cdn.example.com/1080.m3u8"},
		{Bandwidth: 500, URI: "https://cdn.example.com/low.m3u8"},
	}}
	s := newTestServer(newFakeMediaRepo(testMediaItem()), manifests)
	defer s.Close()

	rec := doRequest(s, http.MethodGet, "/media/movie-42/variants", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []variantResponse
	if err := decodeBody(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].BandwidthLabel != "5.0 Mbps" || got[1].BandwidthLabel != "500 bps" {
		t.Fatalf("unexpected variants %+v", got)
	}
}

func TestSubtitleCues(t *testing.T) {
	item := testMediaItem()
	manifests := &fakeManifests{cues: map[string][]domain.Cue{item.SubtitleTracks[0].URL: testCues()}}
	s := newTestServer(newFakeMediaRepo(item), manifests)
	defer s.Close()

	rec := doRequest(s, http.MethodGet, "/media/movie-42/subtitles/0/cues", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var cues []domain.Cue
	if err := decodeBody(rec, &cues); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "Hello" {
		t.Fatalf("unexpected cues %+v", cues)
	}

	for _, path := range []string{
		"/media/movie-42/subtitles/1/cues", // no url
		"/media/movie-42/subtitles/9/cues",
		"/media/movie-42/subtitles/x/cues",
		"/media/nope/subtitles/0/cues",
	} {
		assertErrorCode(t, doRequest(s, http.MethodGet, path, nil), http.StatusNotFound, "not_found")
	}

	manifests.cueErr = fmt.Errorf("fetch subtitle: %w: 500", manifest.ErrUpstreamStatus)
	assertErrorCode(t, doRequest(s, http.MethodGet, "/media/movie-42/subtitles/0/cues", nil), http.StatusBadGateway, "upstream_unavailable")
}

func TestMatchTracks(t *testing.T) {
	s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{})
	defer s.Close()

	body := `{"audio":[{"id":"opt-en","language":"en-US"},{"id":"opt-ru","language":"rus"}],"subtitles":[{"id":"sub-en","language":"eng"}]}`
	rec := doRequest(s, http.MethodPost, "/media/movie-42/tracks/match", []byte(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp matchTracksResponse
	if err := decodeBody(rec, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DefaultAudioIndex != 1 {
		t.Fatalf("defaultAudioIndex = %d, want 1", resp.DefaultAudioIndex)
	}
	want := []string{"opt-ru", "", "opt-en"}
	for i, m := range resp.Audio {
		got := ""
		if m.Option != nil {
			got = m.Option.ID
		}
		if got != want[i] {
			t.Fatalf("audio[%d] option = %q, want %q", i, got, want[i])
		}
	}
	if len(resp.Subtitles) != 2 || resp.Subtitles[0].Option == nil || resp.Subtitles[0].Option.ID != "sub-en" || resp.Subtitles[1].Option != nil {
		t.Fatalf("unexpected subtitle matches %+v", resp.Subtitles)
	}
}

func TestMatchTracksSelectedOptions(t *testing.T) {
	s := newTestServer(newFakeMediaRepo(testMediaItem()), &fakeManifests{})
	defer s.Close()

	options := `"audio":[{"id":"opt-en","language":"en"},{"id":"opt-ru","language":"ru"},{"id":"opt-extra","language":"de"},{"id":"opt-more","language":"fr"}],"subtitles":[{"id":"sub-en","language":"en"}]`
	tests := []struct {
		name         string
		selected     string
		wantAudio    string
		wantSubtitle string
	}{
		{name: "matched audio", selected: `"selectedAudio":0`, wantAudio: "opt-ru"},
		{name: "unmatched track", selected: `"selectedAudio":1`},
		{name: "past the matches", selected: `"selectedAudio":3`, wantAudio: "opt-more"},
		{name: "out of range", selected: `"selectedAudio":9,"selectedSubtitle":-1`},
		{name: "subtitle", selected: `"selectedSubtitle":0`, wantSubtitle: "sub-en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/media/movie-42/tracks/match", []byte("{"+options+","+tt.selected+"}"))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var resp matchTracksResponse
			if err := decodeBody(rec, &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got := optionID(resp.SelectedAudio); got != tt.wantAudio {
				t.Errorf("selectedAudio = %q, want %q", got, tt.wantAudio)
			}
			if got := optionID(resp.SelectedSubtitle); got != tt.wantSubtitle {
				t.Errorf("selectedSubtitle = %q, want %q", got, tt.wantSubtitle)
			}
		})
	}
}

func optionID(opt *domain.TrackOption) string {
	if opt == nil {
		return ""
	}
	return opt.ID
}

func TestMatchTracksGeneratesSubtitles(t *testing.T) {
	item := testMediaItem()
	item.SubtitleTracks = nil
	s := newTestServer(newFakeMediaRepo(item), &fakeManifests{})
	defer s.Close()

	body := `{"subtitles":[{"id":"x","language":"fr","displayName":"Français"}]}`
	rec := doRequest(s, http.MethodPost, "/media/movie-42/tracks/match", []byte(body))
	var resp matchTracksResponse
	if err := decodeBody(rec, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Subtitles) != 1 || resp.Subtitles[0].Track.DisplayName != "Français" || resp.Subtitles[0].Option.ID != "x" {
		t.Fatalf("unexpected subtitles %+v", resp.Subtitles)
	}
}
