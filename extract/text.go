package extract

import "strings"

// decodeText interprets data as UTF-8, replacing each invalid byte sequence
// with U+FFFD and dropping a leading byte order mark.
func decodeText(data []byte) string {
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	return strings.TrimPrefix(text, "\uFEFF")
}
