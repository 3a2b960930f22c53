package imaging

import (
	"encoding/base64"
	"fmt"
)

// Encode converts raw image bytes to a base64 string safe to embed in a
// model request payload. Total over all inputs, including empty.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// DataURL builds the data URL form the vision API expects for inline images.
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, Encode(data))
}
