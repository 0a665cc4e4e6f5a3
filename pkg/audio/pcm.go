package audio

import "encoding/binary"

// ExpandPCM8 converts unsigned 8-bit mono samples at srcRate into signed
// 16-bit little-endian stereo at SampleRate. pan runs from -MaxPan (left) to
// MaxPan (right).
func ExpandPCM8(src []byte, srcRate, pan int) []byte {
	if srcRate <= 0 || len(src) == 0 {
		return nil
	}
	pan = max(-MaxPan, min(MaxPan, pan))
	leftGain := min(1, float64(MaxPan-pan)/MaxPan)
	rightGain := min(1, float64(MaxPan+pan)/MaxPan)

	frames := int(int64(len(src)) * SampleRate / int64(srcRate))
	out := make([]byte, frames*4)
	for i := range frames {
		s := src[int(int64(i)*int64(srcRate)/SampleRate)]
		v := float64(int(s)-128) * 256
		binary.LittleEndian.PutUint16(out[i*4:], uint16(int16(v*leftGain)))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(int16(v*rightGain)))
	}
	return out
}
