package ytdlp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TrackVariant is one caption track reported by yt-dlp for an item.
type TrackVariant struct {
	Language string
	Auto     bool
	URL      string
}

type collectionDump struct {
	Title    string      `json:"title"`
	Channel  string      `json:"channel"`
	Uploader string      `json:"uploader"`
	Entries  []entryDump `json:"entries"`
}

type entryDump struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	URL     string      `json:"url"`
	Type    string      `json:"_type"`
	Entries []entryDump `json:"entries"`
}

func parseCollectionDump(data []byte, url string) (Collection, error) {
	var dump collectionDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return Collection{}, fmt.Errorf("decode listing json: %w", err)
	}

	name := firstNonEmpty(dump.Title, dump.Channel, dump.Uploader)
	if name == "" || strings.EqualFold(name, "na") {
		name = nameFromURL(url)
	}

	col := Collection{Name: name, URL: url}
	collectEntries(dump.Entries, &col.Items)
	return col, nil
}

// collectEntries flattens nested playlist entries. Channel dumps nest their
// videos one level deeper under tab playlists.
func collectEntries(entries []entryDump, out *[]Item) {
	for _, entry := range entries {
		if len(entry.Entries) > 0 {
			collectEntries(entry.Entries, out)
			continue
		}
		if entry.ID == "" || entry.Type == "playlist" {
			continue
		}
		*out = append(*out, Item{ID: entry.ID, Title: entry.Title})
	}
}

// parsePlaylistDump extracts the channel name and the playlist URLs from a
// flat dump of a channel's playlists tab. The tab title carries a
// " - Playlists" suffix that is not part of the channel name.
func parsePlaylistDump(data []byte) (string, []string, error) {
	var dump collectionDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return "", nil, fmt.Errorf("decode playlist json: %w", err)
	}
	channel := firstNonEmpty(dump.Channel, dump.Uploader,
		strings.TrimSuffix(dump.Title, " - Playlists"))
	var urls []string
	for _, entry := range dump.Entries {
		if entry.URL != "" {
			urls = append(urls, entry.URL)
		}
	}
	return channel, urls, nil
}

type subtitleDump struct {
	Subtitles         map[string][]subtitleFormat `json:"subtitles"`
	AutomaticCaptions map[string][]subtitleFormat `json:"automatic_captions"`
}

type subtitleFormat struct {
	URL  string `json:"url"`
	Ext  string `json:"ext"`
	Name string `json:"name"`
}

// parseSubtitleDump extracts caption tracks from a full item dump. Manual
// tracks come from `subtitles`, generated tracks from `automatic_captions`.
// The json3 format is preferred because its cue structure carries timing.
func parseSubtitleDump(data []byte) ([]TrackVariant, error) {
	var dump subtitleDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("decode item json: %w", err)
	}

	var variants []TrackVariant
	appendTracks := func(tracks map[string][]subtitleFormat, auto bool) {
		langs := make([]string, 0, len(tracks))
		for lang := range tracks {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			url := pickTrackURL(tracks[lang])
			if url == "" {
				continue
			}
			variants = append(variants, TrackVariant{Language: lang, Auto: auto, URL: url})
		}
	}
	appendTracks(dump.Subtitles, false)
	appendTracks(dump.AutomaticCaptions, true)
	return variants, nil
}

func pickTrackURL(formats []subtitleFormat) string {
	for _, f := range formats {
		if f.Ext == "json3" && f.URL != "" {
			return f.URL
		}
	}
	for _, f := range formats {
		if f.URL != "" {
			return f.URL
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// nameFromURL derives a collection name from the last meaningful URL
// segment when the dump carries no usable title.
func nameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	segments := strings.Split(trimmed, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		switch seg {
		case "", "videos", "playlists", "featured":
			continue
		}
		return strings.TrimPrefix(seg, "@")
	}
	return "collection"
}
