package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookPayload returns a complete, valid create payload for isbn.
func BookPayload(isbn string) map[string]any {
	return map[string]any{
		"isbn":       isbn,
		"amazon_url": "https://amazon.com/bigbook",
		"author":     "James Reid",
		"language":   "english",
		"pages":      200,
		"publisher":  "Penguin",
		"title":      "Big Book",
		"year":       2000,
	}
}

// UpdatePayload returns a complete, valid update payload (no isbn).
func UpdatePayload() map[string]any {
	p := BookPayload("")
	delete(p, "isbn")
	return p
}

// NewRequest creates a new HTTP request for testing. Non-nil bodies are JSON
// encoded unless they already are a string.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	var bodyBytes []byte
	switch b := body.(type) {
	case string:
		bodyBytes = []byte(b)
	default:
		bodyBytes, _ = json.Marshal(body)
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// Do serves r on h and records the result.
func Do(t *testing.T, h http.Handler, r *http.Request) RecordResponse {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return RecordHTTPResponse(w)
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}
