package captions_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scribe/internal/services"
	"scribe/internal/services/captions"
)

const sampleJSON3 = `{
	"events": [
		{"tStartMs": 0, "dDurationMs": 1500, "segs": [{"utf8": "Hello "}, {"utf8": "world"}]},
		{"tStartMs": 1500, "dDurationMs": 100, "segs": [{"utf8": "\n"}]},
		{"tStartMs": 1600, "dDurationMs": 2000, "segs": [{"utf8": "Second line"}]}
	]
}`

func TestFetchParsesTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "Scribe/") {
			t.Errorf("unexpected user agent %q", got)
		}
		_, _ = w.Write([]byte(sampleJSON3))
	}))
	defer server.Close()

	fetcher := captions.NewFetcher(time.Second, nil)
	track, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(track.Cues) != 2 {
		t.Fatalf("expected 2 cues (filler dropped), got %d", len(track.Cues))
	}
	if track.Cues[0].Text != "Hello world" || track.Cues[0].DurationMS != 1500 {
		t.Fatalf("unexpected first cue: %+v", track.Cues[0])
	}
}

func TestFetchClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		marker error
	}{
		{http.StatusTooManyRequests, services.ErrRateLimited},
		{http.StatusForbidden, services.ErrForbidden},
		{http.StatusNotFound, services.ErrNotAvailable},
		{http.StatusGone, services.ErrNotAvailable},
		{http.StatusInternalServerError, services.ErrTransient},
		{http.StatusBadGateway, services.ErrTransient},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		fetcher := captions.NewFetcher(time.Second, nil)
		_, err := fetcher.Fetch(context.Background(), server.URL)
		server.Close()
		if !errors.Is(err, tt.marker) {
			t.Fatalf("status %d: error %v, want marker %v", tt.status, err, tt.marker)
		}
	}
}

func TestFetchTimeoutIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := captions.NewFetcher(50*time.Millisecond, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("timeout error = %v, want transient", err)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not captions</html>"))
	}))
	defer server.Close()

	fetcher := captions.NewFetcher(time.Second, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, services.ErrNotAvailable) {
		t.Fatalf("malformed body error = %v, want not-available", err)
	}
}

func TestRenderText(t *testing.T) {
	track := captions.Track{Cues: []captions.Cue{
		{StartMS: 0, DurationMS: 1000, Text: "First"},
		{StartMS: 1000, DurationMS: 1000, Text: "Second"},
	}}
	got := string(captions.RenderText(track))
	if got != "First\nSecond\n" {
		t.Fatalf("RenderText = %q", got)
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	meta := captions.Metadata{
		ItemID:     "vid1",
		Title:      "Talk",
		Collection: "Chan",
		Language:   "en",
		Authorship: "manual",
	}
	track := captions.Track{Cues: []captions.Cue{{StartMS: 10, DurationMS: 20, Text: "hi"}}}

	data, err := captions.RenderJSON(meta, track)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	var decoded struct {
		VideoID  string `json:"video_id"`
		Language string `json:"language"`
		Cues     []captions.Cue
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal rendered json: %v", err)
	}
	if decoded.VideoID != "vid1" || decoded.Language != "en" {
		t.Fatalf("metadata lost: %+v", decoded)
	}
	if len(decoded.Cues) != 1 || decoded.Cues[0].Text != "hi" {
		t.Fatalf("cues lost: %+v", decoded.Cues)
	}
}
