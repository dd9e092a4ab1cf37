package captions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Cue is one timed caption segment.
type Cue struct {
	StartMS    int64  `json:"start_ms"`
	DurationMS int64  `json:"duration_ms"`
	Text       string `json:"text"`
}

// Track is the parsed content of one caption track.
type Track struct {
	Cues []Cue
}

// json3 is the timedtext format served for caption tracks: a list of events,
// each holding timing plus text segments.
type json3Dump struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMS    int64          `json:"tStartMs"`
	DurationMS int64          `json:"dDurationMs"`
	Segments   []json3Segment `json:"segs"`
}

type json3Segment struct {
	UTF8 string `json:"utf8"`
}

func parseJSON3(data []byte) (Track, error) {
	var dump json3Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return Track{}, fmt.Errorf("decode json3: %w", err)
	}

	track := Track{Cues: make([]Cue, 0, len(dump.Events))}
	for _, event := range dump.Events {
		var b strings.Builder
		for _, seg := range event.Segments {
			b.WriteString(seg.UTF8)
		}
		text := normalizeCueText(b.String())
		if text == "" {
			continue
		}
		track.Cues = append(track.Cues, Cue{
			StartMS:    event.StartMS,
			DurationMS: event.DurationMS,
			Text:       text,
		})
	}
	return track, nil
}

// normalizeCueText collapses the newline-only filler events the timedtext
// format uses for karaoke-style captions.
func normalizeCueText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.Join(strings.Fields(text), " ")
}
