// Package ytnative resolves and downloads YouTube videos in-process with
// github.com/kkdai/youtube/v2.
//
// Its metadata is reshaped into the same descriptor list yt-dlp reports, and
// FetchToFile understands the subset of yt-dlp selectors vidfetch emits
// (itags, best, bestvideo, bestaudio joined by "+" and "/"). Two-stream
// selections are merged with ffmpeg through github.com/u2takey/ffmpeg-go.
package ytnative
