package photo

import (
	"bytes"
	"net/http"
	"strings"
)

var tiffSignatures = [][]byte{
	[]byte("II*\x00"),
	[]byte("MM\x00*"),
}

// DetectMIME sniffs the content type from the leading bytes. TIFF is
// matched here because http.DetectContentType has no signature for it.
func DetectMIME(data []byte) string {
	for _, sig := range tiffSignatures {
		if bytes.HasPrefix(data, sig) {
			return "image/tiff"
		}
	}

	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

// IsDecodableMIME reports whether Normalize can decode the type.
func IsDecodableMIME(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}
