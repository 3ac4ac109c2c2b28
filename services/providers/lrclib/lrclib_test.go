package lrclib

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lrc-fetch-go/lyrics"
)

func testProvider(url string) *Provider {
	return &Provider{BaseURL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func TestSearch(t *testing.T) {
	var gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id": 42, "trackName": "Song", "artistName": "Artist",
				"albumName": "Album", "duration": 200.5, "instrumental": false,
			},
			{
				"trackName": "No ID",
			},
		})
	}))
	defer server.Close()

	songs, err := testProvider(server.URL).Search("Artist Song", 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotQuery != "Artist Song" {
		t.Errorf("Expected keyword query, got %q", gotQuery)
	}
	if gotUA != "lddc-fetch-core/1.0.0" {
		t.Errorf("Unexpected user agent %q", gotUA)
	}
	if len(songs) != 2 {
		t.Fatalf("Expected 2 songs, got %d", len(songs))
	}

	s := songs[0]
	if s.Source != lyrics.SourceLRCLIB || s.ID != "42" || s.Title != "Song" {
		t.Errorf("Unexpected song: %+v", s)
	}
	if s.Artist.String() != "Artist" || s.Album != "Album" {
		t.Errorf("Unexpected metadata: %+v", s)
	}
	if s.DurationMs != 200500 {
		t.Errorf("Expected duration 200500ms, got %d", s.DurationMs)
	}
	if songs[1].ID != "" {
		t.Errorf("Expected empty ID, got %q", songs[1].ID)
	}
}

func TestSearchPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]any, 25)
		for i := range items {
			items[i] = map[string]any{"id": i, "trackName": "Song"}
		}
		json.NewEncoder(w).Encode(items)
	}))
	defer server.Close()

	p := testProvider(server.URL)

	page1, err := p.Search("Song", 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(page1) != 20 {
		t.Errorf("Expected 20 songs on page 1, got %d", len(page1))
	}

	page2, err := p.Search("Song", 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(page2) != 5 {
		t.Errorf("Expected 5 songs on page 2, got %d", len(page2))
	}
	if page2[0].ID != "20" {
		t.Errorf("Expected page 2 to start at id 20, got %q", page2[0].ID)
	}

	page3, err := p.Search("Song", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(page3) != 0 {
		t.Errorf("Expected empty page 3, got %d", len(page3))
	}
}

func TestSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testProvider(server.URL).Search("Song", 1)
	if lyrics.KindOf(err) != lyrics.KindRequest {
		t.Errorf("Expected request error, got %v", err)
	}
}

func TestGetLyricsParamsRequired(t *testing.T) {
	p := testProvider("http://unused")

	tests := []struct {
		name string
		song lyrics.Song
	}{
		{"Missing title", lyrics.Song{Artist: lyrics.NewArtist("A"), Album: "Al", DurationMs: 1000}},
		{"Missing artist", lyrics.Song{Title: "T", Album: "Al", DurationMs: 1000}},
		{"Missing album", lyrics.Song{Title: "T", Artist: lyrics.NewArtist("A"), DurationMs: 1000}},
		{"Missing duration", lyrics.Song{Title: "T", Artist: lyrics.NewArtist("A"), Album: "Al"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.GetLyrics(tt.song)
			if lyrics.KindOf(err) != lyrics.KindParams {
				t.Errorf("Expected params error, got %v", err)
			}
		})
	}
}

func TestGetLyricsSynced(t *testing.T) {
	var gotParams map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotParams = map[string]string{
			"track_name":  q.Get("track_name"),
			"artist_name": q.Get("artist_name"),
			"album_name":  q.Get("album_name"),
			"duration":    q.Get("duration"),
		}
		json.NewEncoder(w).Encode(map[string]any{
			"trackName":    "Song",
			"artistName":   "Artist",
			"albumName":    "Album",
			"syncedLyrics": "[00:01.00]hello\n[00:03.00]world",
		})
	}))
	defer server.Close()

	song := lyrics.Song{
		Source: lyrics.SourceLRCLIB, ID: "42", Title: "Song",
		Artist: lyrics.NewArtist("Artist"), Album: "Album", DurationMs: 200500,
	}
	bundle, err := testProvider(server.URL).GetLyrics(song)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotParams["track_name"] != "Song" || gotParams["artist_name"] != "Artist" ||
		gotParams["album_name"] != "Album" || gotParams["duration"] != "200.5" {
		t.Errorf("Unexpected request params: %v", gotParams)
	}

	if bundle.Tags["ti"] != "Song" || bundle.Tags["ar"] != "Artist" || bundle.Tags["al"] != "Album" {
		t.Errorf("Unexpected tags: %v", bundle.Tags)
	}
	if len(bundle.Orig) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(bundle.Orig))
	}
	if bundle.Orig[0].Text() != "hello" || *bundle.Orig[0].Start != 1000 {
		t.Errorf("Unexpected first line: %+v", bundle.Orig[0])
	}
}

func TestGetLyricsPlainFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"plainLyrics": "hello\nworld",
		})
	}))
	defer server.Close()

	song := lyrics.Song{
		Title: "Song", Artist: lyrics.NewArtist("Artist"), Album: "Album", DurationMs: 200000,
	}
	bundle, err := testProvider(server.URL).GetLyrics(song)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(bundle.Orig) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(bundle.Orig))
	}
	if bundle.Orig[0].Start != nil {
		t.Error("Plain lyrics carry no timing")
	}
	// Request metadata backfills missing response fields
	if bundle.Tags["ti"] != "Song" || bundle.Tags["ar"] != "Artist" {
		t.Errorf("Unexpected tags: %v", bundle.Tags)
	}
}

func TestGetLyricsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "TrackNotFound"})
	}))
	defer server.Close()

	song := lyrics.Song{
		Title: "Song", Artist: lyrics.NewArtist("Artist"), Album: "Album", DurationMs: 200000,
	}
	_, err := testProvider(server.URL).GetLyrics(song)
	if lyrics.KindOf(err) != lyrics.KindRequest {
		t.Errorf("Expected request error, got %v", err)
	}
}
