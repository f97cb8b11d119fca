package model

import "encoding/json"

// Document is implemented by every entity that has a text projection
// suitable for embedding.
type Document interface {
	DocumentText() string
}

func encodeVector(vec []float32) string {
	if len(vec) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(vec)
	return string(b)
}

func decodeVector(raw string) []float32 {
	if raw == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(raw), &v)
	return v
}
