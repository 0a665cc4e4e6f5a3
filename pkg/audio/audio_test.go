package audio

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/sputm/pkg/resource"
)

// testMIDI builds a format-0 file at 96 PPQ: 240 BPM for the first beat, then
// tempoChange (or no change when 0) for the second beat.
func testMIDI(tempoChange int) []byte {
	var trk []byte
	trk = append(trk, 0x00, 0xFF, 0x51, 0x03, 0x03, 0xD0, 0x90) // 250000 us/beat
	trk = append(trk, 0x00, 0x90, 0x3C, 0x40)                   // note on
	if tempoChange > 0 {
		trk = append(trk, 0x60, 0xFF, 0x51, 0x03,
			byte(tempoChange>>16), byte(tempoChange>>8), byte(tempoChange))
		trk = append(trk, 0x00, 0x80, 0x3C, 0x00)
	} else {
		trk = append(trk, 0x60, 0x3C, 0x00) // running status note off
	}
	trk = append(trk, 0x60, 0xFF, 0x2F, 0x00) // end of track

	b := []byte("MThd")
	b = binary.BigEndian.AppendUint32(b, 6)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 1)
	b = binary.BigEndian.AppendUint16(b, 96)
	b = append(b, "MTrk"...)
	b = binary.BigEndian.AppendUint32(b, uint32(len(trk)))
	return append(b, trk...)
}

// testWAV builds an 8-bit mono WAV of n samples at rate.
func testWAV(rate, n int) []byte {
	b := []byte("RIFF")
	b = binary.LittleEndian.AppendUint32(b, uint32(36+n))
	b = append(b, "WAVEfmt "...)
	b = binary.LittleEndian.AppendUint32(b, 16)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint32(b, uint32(rate))
	b = binary.LittleEndian.AppendUint32(b, uint32(rate))
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint16(b, 8)
	b = append(b, "data"...)
	b = binary.LittleEndian.AppendUint32(b, uint32(n))
	return append(b, make([]byte, n)...)
}

func wrap(tag string, payload []byte) []byte {
	return resource.AppendChunk(nil, resource.MakeTag(tag), payload)
}

func TestClassify(t *testing.T) {
	midi := testMIDI(0)
	pcm := []byte{128, 200, 50}

	tests := []struct {
		name   string
		data   []byte
		format Format
		body   []byte
	}{
		{"bare midi", midi, FormatMIDI, midi},
		{"bare wav", testWAV(8000, 4), FormatWAV, nil},
		{"nested gmd", wrap("SOUN", wrap("SOU ", append(wrap("ADL ", []byte{1, 2}), wrap("GMD ", midi)...))), FormatMIDI, midi},
		{"sbl with AUdt", wrap("SOU ", wrap("SBL ", append(wrap("AUhd", []byte{0, 0}), wrap("AUdt", pcm)...))), FormatPCM, pcm},
		{"raw sbl", wrap("SBL ", pcm), FormatPCM, pcm},
		{"wsou", wrap("WSOU", testWAV(8000, 2)), FormatWAV, nil},
		{"garbage", []byte("not a sound"), FormatUnknown, nil},
		{"empty", nil, FormatUnknown, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Classify(tt.data)
			if s.Format != tt.format {
				t.Fatalf("format = %s, want %s", s.Format, tt.format)
			}
			if tt.body != nil && !reflect.DeepEqual(s.Data, tt.body) {
				t.Errorf("payload = % x, want % x", s.Data, tt.body)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		s    Sound
		want time.Duration
	}{
		{"midi single tempo", Classify(testMIDI(0)), 500 * time.Millisecond},
		{"midi tempo change", Classify(testMIDI(500000)), 750 * time.Millisecond},
		{"wav", Classify(testWAV(8000, 4000)), 500 * time.Millisecond},
		{"pcm", Sound{Format: FormatPCM, Data: make([]byte, 11025), Rate: 11025}, time.Second},
		{"unknown", Sound{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.s); got != tt.want {
				t.Errorf("Duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTempoMap(t *testing.T) {
	events, ppq := ParseTempoMap(testMIDI(500000))
	if ppq != 96 {
		t.Errorf("ppq = %d", ppq)
	}
	want := []TempoEvent{{0, 250000}, {96, 500000}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}

	events, ppq = ParseTempoMap([]byte("junk"))
	if ppq != 480 || len(events) != 1 || events[0].MicrosPerBeat != defaultMicrosPerBeat {
		t.Errorf("fallback = %v/%d", events, ppq)
	}
}

func TestProperty_TickCalculatorInverts(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Tick(Duration(tick)) == tick for tick-aligned tempo maps", prop.ForAll(
		func(tick, change, mpb int) bool {
			tc := NewTickCalculator(96, []TempoEvent{{0, 480000}, {change, mpb}})
			return tc.Tick(tc.Duration(tick)) == tick
		},
		gen.IntRange(0, 100000),
		gen.IntRange(1, 5000),
		// multiples of 96 keep every tick a whole number of microseconds
		gen.IntRange(1000, 20000).Map(func(v int) int { return v * 96 }),
	))

	properties.TestingRun(t)
}

func TestExpandPCM8(t *testing.T) {
	src := []byte{128, 255, 0}
	out := ExpandPCM8(src, SampleRate, 0)
	if len(out) != len(src)*4 {
		t.Fatalf("len = %d", len(out))
	}
	sample := func(frame, ch int) int16 {
		return int16(binary.LittleEndian.Uint16(out[frame*4+ch*2:]))
	}
	if sample(0, 0) != 0 || sample(1, 0) != 127*256 || sample(2, 1) != -128*256 {
		t.Errorf("samples = %d %d %d", sample(0, 0), sample(1, 0), sample(2, 1))
	}

	right := ExpandPCM8([]byte{255}, SampleRate, MaxPan)
	if l := int16(binary.LittleEndian.Uint16(right)); l != 0 {
		t.Errorf("hard right pan left channel = %d", l)
	}

	if up := ExpandPCM8(make([]byte, 11025), 11025, 0); len(up) != SampleRate*4 {
		t.Errorf("resampled len = %d, want %d", len(up), SampleRate*4)
	}
	if ExpandPCM8(nil, 11025, 0) != nil {
		t.Error("empty input should give nil")
	}
}

func TestNull_PlaybackLifecycle(t *testing.T) {
	n := NewNull()

	if err := n.PlaySound(1, testMIDI(0), 10, MaxVolume, 0); err != nil {
		t.Fatal(err)
	}
	if err := n.PlaySound(2, wrap("SBL ", make([]byte, 11025)), 0, MaxVolume, 0); err != nil {
		t.Fatal(err)
	}
	if !n.IsSoundRunning(1) || !n.IsSoundRunning(2) {
		t.Fatal("both sounds should be running")
	}

	n.Advance(400 * time.Millisecond)
	if got := n.Timer(); got != 24 {
		t.Errorf("Timer() = %d, want 24 jiffies", got)
	}
	if f := n.Finished(); len(f) != 0 {
		t.Errorf("finished early: %v", f)
	}

	n.Advance(200 * time.Millisecond)
	if f := n.Finished(); !reflect.DeepEqual(f, []int{1}) {
		t.Errorf("Finished() = %v, want [1]", f)
	}
	if n.Timer() != 0 {
		t.Error("timer should reset when music ends")
	}

	n.Advance(time.Second)
	if f := n.Finished(); !reflect.DeepEqual(f, []int{2}) {
		t.Errorf("Finished() = %v, want [2]", f)
	}
	if f := n.Finished(); f != nil {
		t.Errorf("second drain = %v", f)
	}
}

func TestNull_MusicPriority(t *testing.T) {
	n := NewNull()
	_ = n.PlaySound(1, testMIDI(0), 50, MaxVolume, 0)

	if err := n.PlaySound(2, testMIDI(0), 10, MaxVolume, 0); err != nil {
		t.Fatal(err)
	}
	if n.IsSoundRunning(2) || !n.IsSoundRunning(1) {
		t.Error("lower priority music replaced higher")
	}

	_ = n.PlaySound(3, testMIDI(0), 50, MaxVolume, 0)
	if n.IsSoundRunning(1) || !n.IsSoundRunning(3) {
		t.Error("equal priority music should replace the current one")
	}
	if got := n.Played(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("Played() = %v", got)
	}

	if err := n.PlaySound(4, []byte("???"), 0, 0, 0); !errors.Is(err, ErrUnsupportedSound) {
		t.Errorf("unknown data error = %v", err)
	}

	n.StopSound(3)
	if n.IsSoundRunning(3) {
		t.Error("StopSound left sound running")
	}
}

func TestClampVolume(t *testing.T) {
	for _, tt := range []struct {
		in   int
		want float64
	}{{-5, 0}, {0, 0}, {MaxVolume, 1}, {500, 1}} {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
