// Package download maps a client's (url, format_id, stream_type) request onto
// an extractor selector and produces a transient file for the response.
//
// Every transient gets a fresh uuid name inside the download directory and is
// removed together with its extractor sidecars once released. The directory
// itself is owned by one server at a time through a flock on
// .vidfetch.lock, which also makes it safe to sweep leftovers from crashed
// runs at startup.
package download
