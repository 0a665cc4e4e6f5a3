package audio

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/zurustar/sputm/pkg/resource"
)

// Format is the payload kind found inside a sound resource.
type Format int

const (
	FormatUnknown Format = iota
	FormatMIDI
	FormatWAV
	FormatPCM
)

func (f Format) String() string {
	switch f {
	case FormatMIDI:
		return "midi"
	case FormatWAV:
		return "wav"
	case FormatPCM:
		return "pcm"
	}
	return "unknown"
}

// DefaultPCMRate is the sample rate of raw 8-bit sound blocks.
const DefaultPCMRate = 11025

// Sound is the playable payload extracted from a sound resource.
type Sound struct {
	Format Format
	Data   []byte
	// Rate is the sample rate of FormatPCM data.
	Rate int
}

var (
	tagSOUN = resource.MakeTag("SOUN")
	tagSOU  = resource.MakeTag("SOU ")
	tagGMD  = resource.MakeTag("GMD ")
	tagMIDI = resource.MakeTag("MIDI")
	tagROL  = resource.MakeTag("ROL ")
	tagADL  = resource.MakeTag("ADL ")
	tagWSOU = resource.MakeTag("WSOU")
	tagSBL  = resource.MakeTag("SBL ")
	tagAUdt = resource.MakeTag("AUdt")
)

// Classify finds the playable payload of a sound resource. Bare MIDI and RIFF
// files are accepted as-is; otherwise the chunk tree is searched depth first.
func Classify(b []byte) Sound {
	switch {
	case bytes.HasPrefix(b, []byte("MThd")):
		return Sound{Format: FormatMIDI, Data: b}
	case bytes.HasPrefix(b, []byte("RIFF")):
		return Sound{Format: FormatWAV, Data: b}
	}

	for off := 0; off < len(b); {
		c, err := resource.ReadChunk(b, off)
		if err != nil {
			break
		}
		off += c.Size()

		switch c.Tag {
		case tagSOUN, tagSOU, tagWSOU, tagGMD, tagMIDI, tagROL, tagADL:
			if s := Classify(c.Data); s.Format != FormatUnknown {
				return s
			}
		case tagSBL:
			pcm := c.Data
			if au, ok := resource.FindChunk(c.Data, tagAUdt); ok {
				pcm = au.Data
			}
			return Sound{Format: FormatPCM, Data: pcm, Rate: DefaultPCMRate}
		}
	}
	return Sound{}
}

// Duration returns how long s plays, or zero when it cannot be worked out.
func Duration(s Sound) time.Duration {
	switch s.Format {
	case FormatMIDI:
		tempo, ppq := ParseTempoMap(s.Data)
		return NewTickCalculator(ppq, tempo).Duration(MIDILength(s.Data))
	case FormatWAV:
		return wavDuration(s.Data)
	case FormatPCM:
		if s.Rate <= 0 {
			return 0
		}
		return time.Duration(len(s.Data)) * time.Second / time.Duration(s.Rate)
	}
	return 0
}

// wavDuration reads the fmt and data chunks of a RIFF/WAVE file.
func wavDuration(b []byte) time.Duration {
	if len(b) < 12 || string(b[8:12]) != "WAVE" {
		return 0
	}
	byteRate, dataSize := 0, 0
	for off := 12; off+8 <= len(b); {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4:]))
		body := off + 8
		switch id {
		case "fmt ":
			if body+12 <= len(b) {
				byteRate = int(binary.LittleEndian.Uint32(b[body+8:]))
			}
		case "data":
			dataSize = min(size, len(b)-body)
		}
		off = body + size + size&1
	}
	if byteRate <= 0 {
		return 0
	}
	return time.Duration(dataSize) * time.Second / time.Duration(byteRate)
}
