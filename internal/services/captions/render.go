package captions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Metadata describes the artifact being rendered.
type Metadata struct {
	ItemID     string `json:"video_id"`
	Title      string `json:"title"`
	Collection string `json:"collection"`
	Language   string `json:"language"`
	Authorship string `json:"authorship"`
}

// RenderText produces the plain transcript: one cue per line, no timing.
func RenderText(track Track) []byte {
	var b strings.Builder
	for _, cue := range track.Cues {
		b.WriteString(cue.Text)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RenderJSON produces the machine-readable artifact with metadata and cue
// timing preserved.
func RenderJSON(meta Metadata, track Track) ([]byte, error) {
	doc := struct {
		Metadata
		Cues []Cue `json:"cues"`
	}{Metadata: meta, Cues: track.Cues}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode transcript json: %w", err)
	}
	return append(data, '\n'), nil
}
