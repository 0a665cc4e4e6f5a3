package text

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Decoder converts game-encoded bytes to UTF-8.
type Decoder struct {
	enc  encoding.Encoding
	name string
}

// NewDecoder はゲームの言語コードに対応するデコーダを返す。
// "ja" は Shift-JIS、"dos" は CP437、それ以外は Windows-1252。
func NewDecoder(lang string) *Decoder {
	switch strings.ToLower(lang) {
	case "ja", "jp", "japanese":
		return &Decoder{enc: japanese.ShiftJIS, name: "shift_jis"}
	case "dos", "cp437":
		return &Decoder{enc: charmap.CodePage437, name: "cp437"}
	}
	return &Decoder{enc: charmap.Windows1252, name: "windows-1252"}
}

// Name returns the encoding name.
func (d *Decoder) Name() string { return d.name }

// Decode converts b. Bytes the encoding cannot map are passed through as-is.
func (d *Decoder) Decode(b []byte) string {
	out, _, err := transform.Bytes(d.enc.NewDecoder(), b)
	if err != nil {
		// 変換に失敗した場合はそのまま返す
		return string(b)
	}
	return string(out)
}
