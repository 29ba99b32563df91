// Package ytdlp wraps the yt-dlp command line tool.
//
// Metadata comes from --dump-single-json and downloads are run with
// --newline so progress can be sampled into debug logs. When yt-dlp fails,
// its ERROR lines become the error text returned to callers.
package ytdlp
