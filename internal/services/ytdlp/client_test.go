package ytdlp_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"scribe/internal/services"
	"scribe/internal/services/ytdlp"
	"scribe/internal/testsupport"
)

type fakeExecutor struct {
	output []byte
	err    error
	args   []string
}

func (f *fakeExecutor) Run(_ context.Context, _ string, args []string) ([]byte, error) {
	f.args = args
	return f.output, f.err
}

func newClient(exec *fakeExecutor) *ytdlp.Client {
	return ytdlp.NewClientWithExecutor("yt-dlp", time.Minute, nil, exec)
}

func TestListItemsParsesFlatDump(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{
		"title": "My Channel - Videos",
		"channel": "My Channel",
		"entries": [
			{"id": "vid1", "title": "First"},
			{"id": "vid2", "title": "Second"},
			{"_type": "playlist", "id": "PL123", "title": "A Tab"}
		]
	}`)}

	col, err := newClient(exec).ListItems(context.Background(), "https://youtube.com/@my", 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if col.Name != "My Channel - Videos" {
		t.Fatalf("collection name = %q", col.Name)
	}
	if len(col.Items) != 2 || col.Items[0].ID != "vid1" || col.Items[1].Title != "Second" {
		t.Fatalf("unexpected items: %+v", col.Items)
	}
}

func TestListItemsFlattensNestedTabs(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{
		"title": "Chan",
		"entries": [
			{"_type": "playlist", "id": "tab", "title": "Videos", "entries": [
				{"id": "vid1", "title": "Nested"}
			]}
		]
	}`)}

	col, err := newClient(exec).ListItems(context.Background(), "https://youtube.com/@chan", 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(col.Items) != 1 || col.Items[0].ID != "vid1" {
		t.Fatalf("unexpected items: %+v", col.Items)
	}
}

func TestListItemsHonorsMaxItems(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{
		"title": "Chan",
		"entries": [
			{"id": "a", "title": "A"},
			{"id": "b", "title": "B"},
			{"id": "c", "title": "C"}
		]
	}`)}

	col, err := newClient(exec).ListItems(context.Background(), "https://youtube.com/@chan", 2)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(col.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(col.Items))
	}
	joined := strings.Join(exec.args, " ")
	if !strings.Contains(joined, "--playlist-end 2") {
		t.Fatalf("expected --playlist-end in args: %q", joined)
	}
}

func TestListItemsFallsBackToURLName(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{"title": "NA", "entries": []}`)}
	col, err := newClient(exec).ListItems(context.Background(), "https://youtube.com/@SomeCreator/videos", 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if col.Name != "SomeCreator" {
		t.Fatalf("fallback name = %q", col.Name)
	}
}

func TestListItemsClassifiesFailures(t *testing.T) {
	tests := []struct {
		stderrMsg string
		marker    error
	}{
		{"ERROR: HTTP Error 429: Too Many Requests", services.ErrRateLimited},
		{"ERROR: Video unavailable", services.ErrNotAvailable},
		{"ERROR: HTTP Error 403: Forbidden", services.ErrForbidden},
		{"ERROR: unable to download webpage", services.ErrTransient},
	}
	for _, tt := range tests {
		exec := &fakeExecutor{err: errors.New(tt.stderrMsg)}
		_, err := newClient(exec).ListItems(context.Background(), "https://youtube.com/@x", 0)
		if !errors.Is(err, tt.marker) {
			t.Fatalf("error for %q = %v, want marker %v", tt.stderrMsg, err, tt.marker)
		}
	}
}

func TestListVariantsSeparatesManualAndAuto(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{
		"subtitles": {
			"en": [
				{"ext": "vtt", "url": "https://example.com/en.vtt"},
				{"ext": "json3", "url": "https://example.com/en.json3"}
			]
		},
		"automatic_captions": {
			"es": [{"ext": "json3", "url": "https://example.com/es.json3"}],
			"de": [{"ext": "json3", "url": "https://example.com/de.json3"}]
		}
	}`)}

	variants, err := newClient(exec).ListVariants(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d: %+v", len(variants), variants)
	}
	if variants[0].Language != "en" || variants[0].Auto || variants[0].URL != "https://example.com/en.json3" {
		t.Fatalf("manual variant wrong: %+v", variants[0])
	}
	// Auto tracks follow, sorted by language for determinism.
	if variants[1].Language != "de" || !variants[1].Auto {
		t.Fatalf("auto variant order wrong: %+v", variants[1])
	}
	if variants[2].Language != "es" || !variants[2].Auto {
		t.Fatalf("auto variant order wrong: %+v", variants[2])
	}
}

func TestListPlaylistsReturnsEntryURLs(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{
		"title": "Chan - Playlists",
		"entries": [
			{"id": "PL1", "title": "One", "url": "https://youtube.com/playlist?list=PL1"},
			{"id": "PL2", "title": "Two", "url": "https://youtube.com/playlist?list=PL2"}
		]
	}`)}

	channel, urls, err := newClient(exec).ListPlaylists(context.Background(), "https://youtube.com/@chan")
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if channel != "Chan" {
		t.Fatalf("channel = %q, want Chan", channel)
	}
	if len(urls) != 2 || urls[0] != "https://youtube.com/playlist?list=PL1" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestListItemsMalformedJSON(t *testing.T) {
	exec := &fakeExecutor{output: []byte("not json")}
	_, err := newClient(exec).ListItems(context.Background(), "https://youtube.com/@x", 0)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestAvailable(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("fake-ytdlp"))

	client := ytdlp.NewClient("fake-ytdlp", time.Second, nil)
	if err := client.Available(); err != nil {
		t.Fatalf("Available: %v", err)
	}

	missing := ytdlp.NewClient("definitely-not-on-path", time.Second, nil)
	if err := missing.Available(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
