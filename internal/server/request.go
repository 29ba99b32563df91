package server

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies; every field is a short string.
const maxBodyBytes = 1 << 20

// formFields reads the named fields from a form-encoded, multipart or JSON
// body. Missing fields come back empty. A body that cannot be parsed yields
// an error together with an all-empty map, so callers reply as if the fields
// were absent.
func formFields(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	values := make(map[string]string, len(names))
	for _, name := range names {
		values[name] = ""
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]any
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		if err := decoder.Decode(&body); err != nil {
			return values, fmt.Errorf("decode json body: %w", err)
		}
		for _, name := range names {
			values[name] = jsonString(body[name])
		}
		return values, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return values, fmt.Errorf("parse multipart body: %w", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return values, fmt.Errorf("parse form body: %w", err)
		}
	}
	for _, name := range names {
		values[name] = strings.TrimSpace(r.PostForm.Get(name))
	}
	return values, nil
}

func jsonString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
