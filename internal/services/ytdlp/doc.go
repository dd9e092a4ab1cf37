// Package ytdlp wraps the yt-dlp command line tool for collection discovery
// and caption track metadata.
//
// The tool is invoked with JSON dump output and never downloads media; the
// actual caption content is fetched over HTTP by the captions package using
// the track URLs discovered here. Command execution sits behind a small
// Executor interface so tests can substitute canned output.
package ytdlp
