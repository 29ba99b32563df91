// Package extractor defines the boundary between vidfetch and the tools that
// resolve and download media.
//
// Backends live under internal/services: ytdlp shells out to the yt-dlp binary
// and ytnative talks to YouTube directly. Failures carry the backend's own
// diagnostic text so the HTTP layer can forward it verbatim.
package extractor
