package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/listkit/internal/models"
)

func TestYouTubeRepository(t *testing.T) {
	ctx := context.Background()
	token := NewToken("yt-token")

	t.Run("NewYouTubeRepository", func(t *testing.T) {
		if repo := NewYouTubeRepository(""); repo.client.baseURL != youtubeBaseURL {
			t.Errorf("expected default base URL, got %s", repo.client.baseURL)
		}
		if NewYouTubeRepository("").Provider() != models.ProviderYouTube {
			t.Error("expected youtube provider")
		}
	})

	t.Run("GetMinePlaylists follows page tokens", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("mine") != "true" {
				t.Error("expected mine=true")
			}
			if q.Get("pageToken") == "" {
				json.NewEncoder(w).Encode(map[string]any{
					"items":         []map[string]any{{"id": "PL1", "snippet": map[string]any{"title": "One"}}},
					"nextPageToken": "page2",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":             "PL2",
					"snippet":        map[string]any{"title": "Two"},
					"contentDetails": map[string]int{"itemCount": 7},
				}},
			})
		}))
		defer server.Close()

		playlists, err := NewYouTubeRepository(server.URL).GetMinePlaylists(ctx, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[1].ItemsTotal != 7 {
			t.Errorf("expected 7 items, got %d", playlists[1].ItemsTotal)
		}
		if playlists[0].URL != "https://www.youtube.com/playlist?list=PL1" {
			t.Errorf("unexpected url %s", playlists[0].URL)
		}
	})

	t.Run("GetFullPlaylist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/playlists":
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{"id": "PL1", "snippet": map[string]any{"title": "Mix"}}},
				})
			case "/playlistItems":
				if r.URL.Query().Get("playlistId") != "PL1" {
					t.Errorf("unexpected playlistId %s", r.URL.Query().Get("playlistId"))
				}
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{
						{"id": "item1", "snippet": map[string]any{
							"title":                  "Video A",
							"position":               0,
							"videoOwnerChannelTitle": "Channel A",
							"resourceId":             map[string]string{"kind": "youtube#video", "videoId": "vidA"},
						}},
						{"id": "item2", "snippet": map[string]any{
							"title":      "Video B",
							"position":   1,
							"resourceId": map[string]string{"kind": "youtube#video", "videoId": "vidB"},
						}},
					},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		full, err := NewYouTubeRepository(server.URL).GetFullPlaylist(ctx, "PL1", token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(full.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(full.Items))
		}
		first := full.Items[0]
		if first.ID != "item1" || first.ResourceID != "vidA" || first.Author != "Channel A" {
			t.Errorf("unexpected item %+v", first)
		}
		if full.Items[1].Position != 1 {
			t.Errorf("expected position 1, got %d", full.Items[1].Position)
		}
	})

	t.Run("GetFullPlaylist missing playlist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
		}))
		defer server.Close()

		_, err := NewYouTubeRepository(server.URL).GetFullPlaylist(ctx, "missing", token)
		f, ok := AsFailure(err)
		if !ok || f.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 failure, got %v", err)
		}
	})

	t.Run("AddPlaylist sends privacy status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			var body YouTubePlaylist
			json.NewDecoder(r.Body).Decode(&body)
			if body.Status == nil || body.Status.PrivacyStatus != "unlisted" {
				t.Errorf("unexpected status %+v", body.Status)
			}
			body.ID = "PLnew"
			json.NewEncoder(w).Encode(body)
		}))
		defer server.Close()

		p, err := NewYouTubeRepository(server.URL).AddPlaylist(ctx, "Fresh", models.PrivacyUnlisted, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID != "PLnew" || p.Title != "Fresh" {
			t.Errorf("unexpected playlist %+v", p)
		}
	})

	t.Run("AddPlaylistItem", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body YouTubePlaylistItem
			json.NewDecoder(r.Body).Decode(&body)
			if body.Snippet.PlaylistID != "PL1" || body.Snippet.ResourceID.VideoID != "vidZ" {
				t.Errorf("unexpected body %+v", body)
			}
			body.ID = "itemZ"
			body.Snippet.Position = 4
			json.NewEncoder(w).Encode(body)
		}))
		defer server.Close()

		item, err := NewYouTubeRepository(server.URL).AddPlaylistItem(ctx, "PL1", "vidZ", token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.ID != "itemZ" || item.ResourceID != "vidZ" || item.Position != 4 {
			t.Errorf("unexpected item %+v", item)
		}
	})

	t.Run("UpdatePlaylistItemPosition", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			var body YouTubePlaylistItem
			json.NewDecoder(r.Body).Decode(&body)
			if body.ID != "item1" || body.Snippet.Position != 5 || body.Snippet.ResourceID.VideoID != "vidA" {
				t.Errorf("unexpected body %+v", body)
			}
			json.NewEncoder(w).Encode(body)
		}))
		defer server.Close()

		item := models.PlaylistItem{ID: "item1", ResourceID: "vidA", Position: 0}
		moved, err := NewYouTubeRepository(server.URL).UpdatePlaylistItemPosition(ctx, "PL1", item, 5, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if moved.Position != 5 {
			t.Errorf("expected position 5, got %d", moved.Position)
		}
	})

	t.Run("deletes by id", func(t *testing.T) {
		var paths []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		repo := NewYouTubeRepository(server.URL)
		if _, err := repo.DeletePlaylist(ctx, "PL1", token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.DeletePlaylistItem(ctx, "PL1", models.PlaylistItem{ID: "item1"}, token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"/playlists?id=PL1", "/playlistItems?id=item1"}
		for i := range want {
			if i >= len(paths) || paths[i] != want[i] {
				t.Errorf("expected requests %v, got %v", want, paths)
				break
			}
		}
	})
}
