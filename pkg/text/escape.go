// Package text はスクリプト中のメッセージ文字列を展開・デコードする。
// Message strings carry 0xFF/0xFE escape sequences that refer to variables,
// verb/actor names and string resources; Expand resolves them.
package text

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// Escape codes following an 0xFF or 0xFE lead byte.
const (
	EscNewline  = 1
	EscKeep     = 2
	EscWait     = 3
	EscInt      = 4
	EscVerb     = 5
	EscName     = 6
	EscString   = 7
	EscAnim     = 9
	EscSound    = 10
	EscColor    = 12
	EscFont     = 14
	escLeadFF   = 0xFF
	escLeadFE   = 0xFE
	soundArgLen = 14
)

// ErrUnterminated is returned when a message runs past the end of its code.
var ErrUnterminated = errors.New("unterminated message")

// argLen は各エスケープコードが後ろに持つ引数のバイト数
func argLen(code byte) int {
	switch code {
	case EscNewline, EscKeep, EscWait, 8:
		return 0
	case EscSound:
		return soundArgLen
	}
	return 2
}

// Scan reads an inline zero-terminated message starting at b[0]. It returns the
// message without the terminator and the number of bytes consumed including it.
func Scan(b []byte) ([]byte, int, error) {
	for i := 0; i < len(b); {
		c := b[i]
		if c == 0 {
			return b[:i], i + 1, nil
		}
		if (c == escLeadFF || c == escLeadFE) && i+1 < len(b) {
			i += 2 + argLen(b[i+1])
			continue
		}
		i++
	}
	return nil, 0, fmt.Errorf("message of %d bytes: %w", len(b), ErrUnterminated)
}

// Resolver supplies the values escape sequences refer to.
type Resolver interface {
	ReadVar(word int) (int32, error)
	VerbName(verb int) []byte
	Name(id int) []byte
	String(id int) []byte
}

// Expanded is a message after escape expansion, still in the game's encoding.
type Expanded struct {
	// Pages holds the text split at wait escapes.
	Pages [][]byte
	// Keep is set when the message asks to stay on screen after it finishes.
	Keep bool
	// Color is the last colour escape, or -1.
	Color int
	// Font is the last font escape, or -1.
	Font int
	// Sound is the sound id requested by a sound escape, or -1.
	Sound int
}

// Text returns every page joined with newlines.
func (e Expanded) Text() []byte {
	var out []byte
	for i, p := range e.Pages {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, p...)
	}
	return out
}

// Expand resolves every escape in msg.
func Expand(msg []byte, r Resolver) (Expanded, error) {
	e := Expanded{Color: -1, Font: -1, Sound: -1}
	var cur []byte
	for i := 0; i < len(msg); {
		c := msg[i]
		if c != escLeadFF && c != escLeadFE {
			cur = append(cur, c)
			i++
			continue
		}
		if i+1 >= len(msg) {
			return e, fmt.Errorf("escape at %d: %w", i, ErrUnterminated)
		}
		code := msg[i+1]
		n := argLen(code)
		if i+2+n > len(msg) {
			return e, fmt.Errorf("escape %d at %d: %w", code, i, ErrUnterminated)
		}
		var arg int
		if n >= 2 {
			arg = int(binary.LittleEndian.Uint16(msg[i+2:]))
		}
		switch code {
		case EscNewline:
			cur = append(cur, '\n')
		case EscKeep:
			e.Keep = true
		case EscWait:
			e.Pages = append(e.Pages, cur)
			cur = nil
		case EscInt:
			v, err := r.ReadVar(arg)
			if err != nil {
				return e, fmt.Errorf("int escape: %w", err)
			}
			cur = strconv.AppendInt(cur, int64(v), 10)
		case EscVerb:
			cur = append(cur, r.VerbName(arg)...)
		case EscName:
			cur = append(cur, r.Name(arg)...)
		case EscString:
			cur = append(cur, r.String(arg)...)
		case EscColor:
			e.Color = arg
		case EscFont:
			e.Font = arg
		case EscSound:
			// 先頭4バイトがサウンド番号、残りはオフセット情報
			e.Sound = int(binary.LittleEndian.Uint32(msg[i+2:]))
		}
		i += 2 + n
	}
	e.Pages = append(e.Pages, cur)
	return e, nil
}
