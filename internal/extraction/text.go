package extraction

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText tries UTF-8, then Windows-1252. Bytes that map to nothing in
// either encoding yield a decode_error placeholder.
func decodeText(data []byte) (string, Method) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), MethodTextFile
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return PlaceholderDecodeError, MethodDecodeError
	}
	return string(decoded), MethodTextFallback
}

// looksBinary is the guard for unknown kinds: NUL bytes in the first
// kilobytes mean the blob is not text.
func looksBinary(data []byte) bool {
	head := data
	if len(head) > 8192 {
		head = head[:8192]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func decodeUnknown(data []byte) (string, Method) {
	if len(data) == 0 || looksBinary(data) {
		return PlaceholderUnsupported, MethodUnsupportedType
	}
	text, method := decodeText(data)
	if method == MethodDecodeError || strings.TrimSpace(text) == "" {
		return PlaceholderUnsupported, MethodUnsupportedType
	}
	return text, method
}
