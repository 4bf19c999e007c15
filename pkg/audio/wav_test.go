package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---- test helpers ----

// buildWAV constructs a minimal valid RIFF/WAVE byte slice around pcm with a
// standard 44-byte header (RIFF + fmt + data).
func buildWAV(pcm []byte, sampleRate, channels int) []byte {
	fmtSize := uint32(16)
	dataSize := uint32(len(pcm))
	fileSize := 4 + (8 + fmtSize) + (8 + dataSize)

	buf := make([]byte, 0, 12+8+fmtSize+8+dataSize)
	le := binary.LittleEndian

	putU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	putU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, []byte("RIFF")...)
	putU32(fileSize)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	putU32(fmtSize)
	putU16(1) // PCM format
	putU16(uint16(channels))
	putU32(uint32(sampleRate))
	putU32(uint32(sampleRate * channels * 2)) // byte rate
	putU16(uint16(channels * 2))              // block align
	putU16(16)                                // bits per sample

	buf = append(buf, []byte("data")...)
	putU32(dataSize)
	buf = append(buf, pcm...)

	return buf
}

// ---- DecodeInfo ----

func TestDecodeInfo(t *testing.T) {
	t.Run("standard header", func(t *testing.T) {
		pcm := make([]byte, 2*22050) // one second of mono 16-bit at 22050 Hz
		wav := buildWAV(pcm, 22050, 1)

		info, err := DecodeInfo(wav)
		if err != nil {
			t.Fatalf("DecodeInfo: unexpected error: %v", err)
		}
		if info.SampleRate != 22050 {
			t.Errorf("SampleRate = %d, want 22050", info.SampleRate)
		}
		if info.Channels != 1 {
			t.Errorf("Channels = %d, want 1", info.Channels)
		}
		if info.BitsPerSample != 16 {
			t.Errorf("BitsPerSample = %d, want 16", info.BitsPerSample)
		}
		if info.DataOffset != 44 {
			t.Errorf("DataOffset = %d, want 44", info.DataOffset)
		}
		if info.DataBytes != len(pcm) {
			t.Errorf("DataBytes = %d, want %d", info.DataBytes, len(pcm))
		}
	})

	t.Run("extra chunk before data", func(t *testing.T) {
		// Insert a 7-byte LIST chunk between fmt and data; the odd size forces
		// the pad-byte handling in the chunk walk.
		pcm := []byte{1, 2, 3, 4}
		wav := buildWAV(pcm, 44100, 2)

		var out bytes.Buffer
		out.Write(wav[:36]) // RIFF header + fmt chunk
		out.WriteString("LIST")
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], 7)
		out.Write(size[:])
		out.Write([]byte{9, 9, 9, 9, 9, 9, 9, 0}) // 7 bytes + 1 pad
		out.Write(wav[36:])                       // data chunk

		info, err := DecodeInfo(out.Bytes())
		if err != nil {
			t.Fatalf("DecodeInfo: unexpected error: %v", err)
		}
		if info.SampleRate != 44100 || info.Channels != 2 {
			t.Errorf("format = %dHz/%dch, want 44100Hz/2ch", info.SampleRate, info.Channels)
		}
		wantOffset := 36 + 8 + 7 + 1 + 8
		if info.DataOffset != wantOffset {
			t.Errorf("DataOffset = %d, want %d", info.DataOffset, wantOffset)
		}
		if info.DataBytes != len(pcm) {
			t.Errorf("DataBytes = %d, want %d", info.DataBytes, len(pcm))
		}
	})

	t.Run("declared data size exceeds file", func(t *testing.T) {
		wav := buildWAV([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 16000, 1)
		binary.LittleEndian.PutUint32(wav[40:44], 1<<20) // lie about the data size

		info, err := DecodeInfo(wav)
		if err != nil {
			t.Fatalf("DecodeInfo: unexpected error: %v", err)
		}
		if info.DataBytes != 8 {
			t.Errorf("DataBytes = %d, want clamped to 8", info.DataBytes)
		}
	})

	t.Run("malformed inputs", func(t *testing.T) {
		cases := []struct {
			name string
			wav  []byte
		}{
			{"empty", nil},
			{"too short", []byte("RIFF")},
			{"not riff", append([]byte("JUNKated."), buildWAV(nil, 8000, 1)[9:]...)},
			{"not wave", func() []byte {
				w := buildWAV(nil, 8000, 1)
				copy(w[8:12], "AIFF")
				return w
			}()},
			{"no data chunk", buildWAV(nil, 8000, 1)[:36]},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := DecodeInfo(tc.wav); err == nil {
					t.Errorf("DecodeInfo(%s): expected error, got none", tc.name)
				}
			})
		}
	})
}

func TestInfoDuration(t *testing.T) {
	cases := []struct {
		name string
		info Info
		want time.Duration
	}{
		{"one second mono", Info{SampleRate: 22050, Channels: 1, BitsPerSample: 16, DataBytes: 44100}, time.Second},
		{"half second stereo", Info{SampleRate: 48000, Channels: 2, BitsPerSample: 16, DataBytes: 96000}, 500 * time.Millisecond},
		{"zero rate", Info{Channels: 1, BitsPerSample: 16, DataBytes: 44100}, 0},
		{"no data", Info{SampleRate: 22050, Channels: 1, BitsPerSample: 16}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Duration(); got != tc.want {
				t.Errorf("Duration() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProbeFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "sample.wav")
	pcm := make([]byte, 2*16000*3) // three seconds mono at 16 kHz
	if err := os.WriteFile(path, buildWAV(pcm, 16000, 1), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := ProbeFile(path)
	if err != nil {
		t.Fatalf("ProbeFile: unexpected error: %v", err)
	}
	if got := info.Duration(); got != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", got)
	}

	if _, err := ProbeFile(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("ProbeFile(missing): expected error, got none")
	}
}

// ---- EncodeWAV ----

func TestEncodeWAV(t *testing.T) {
	pcm := Bytes16([]int16{0, 1000, -1000, 32767, -32768})
	wav := EncodeWAV(pcm, 24000, 1)

	info, err := DecodeInfo(wav)
	if err != nil {
		t.Fatalf("DecodeInfo of encoded WAV: %v", err)
	}
	if info.SampleRate != 24000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Errorf("header = %s, want 24000Hz mono 16-bit", info)
	}
	if !bytes.Equal(wav[info.DataOffset:info.DataOffset+info.DataBytes], pcm) {
		t.Error("payload does not round-trip")
	}
}

// ---- Resample ----

func TestResample(t *testing.T) {
	t.Run("halves sample count", func(t *testing.T) {
		src := make([]int16, 44100)
		for i := range src {
			src[i] = int16(i % 256)
		}
		wav := buildWAV(Bytes16(src), 44100, 1)

		out, err := Resample(wav, 22050)
		if err != nil {
			t.Fatalf("Resample: unexpected error: %v", err)
		}
		info, err := DecodeInfo(out)
		if err != nil {
			t.Fatalf("DecodeInfo: %v", err)
		}
		if info.SampleRate != 22050 {
			t.Errorf("SampleRate = %d, want 22050", info.SampleRate)
		}
		if got, want := info.DataBytes/2, len(src)/2; got != want {
			t.Errorf("resampled to %d samples, want %d", got, want)
		}
	})

	t.Run("no-op when rate matches", func(t *testing.T) {
		wav := buildWAV(Bytes16([]int16{1, 2, 3, 4}), 22050, 1)
		out, err := Resample(wav, 22050)
		if err != nil {
			t.Fatalf("Resample: unexpected error: %v", err)
		}
		if !bytes.Equal(out, wav) {
			t.Error("expected input returned unchanged")
		}
	})

	t.Run("no-op when rate is zero", func(t *testing.T) {
		wav := buildWAV(Bytes16([]int16{1, 2, 3, 4}), 22050, 1)
		out, err := Resample(wav, 0)
		if err != nil {
			t.Fatalf("Resample: unexpected error: %v", err)
		}
		if !bytes.Equal(out, wav) {
			t.Error("expected input returned unchanged")
		}
	})

	t.Run("stereo", func(t *testing.T) {
		src := make([]int16, 8000*2)
		wav := buildWAV(Bytes16(src), 8000, 2)

		out, err := Resample(wav, 16000)
		if err != nil {
			t.Fatalf("Resample: unexpected error: %v", err)
		}
		info, _ := DecodeInfo(out)
		if info.Channels != 2 {
			t.Errorf("Channels = %d, want 2 preserved", info.Channels)
		}
		if got, want := info.DataBytes, len(src)*2*2; got != want {
			t.Errorf("DataBytes = %d, want %d", got, want)
		}
	})

	t.Run("rejects non-wav input", func(t *testing.T) {
		if _, err := Resample([]byte("definitely not audio"), 22050); err == nil {
			t.Error("expected error for non-WAV input")
		}
	})
}
