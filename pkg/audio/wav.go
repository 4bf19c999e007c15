// Package audio is the WAV toolkit shared by the synthesis backends:
// RIFF/WAVE container inspection, 16-bit PCM encoding, and linear resampling.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// Info describes the PCM stream inside a RIFF/WAVE container.
type Info struct {
	SampleRate    int // samples per second (e.g., 22050, 44100, 48000)
	Channels      int // 1 = mono, 2 = stereo
	BitsPerSample int // bits per sample per channel (commonly 16)
	DataOffset    int // byte offset of the first PCM sample
	DataBytes     int // length of the data chunk in bytes
}

// Duration returns the play time of the data chunk. It returns 0 when the
// header fields do not describe a playable stream.
func (i Info) Duration() time.Duration {
	frameBytes := i.Channels * i.BitsPerSample / 8
	if i.SampleRate <= 0 || frameBytes <= 0 {
		return 0
	}
	frames := i.DataBytes / frameBytes
	return time.Duration(float64(frames) / float64(i.SampleRate) * float64(time.Second))
}

// String returns a short human-readable description, e.g. "22050Hz mono 16-bit".
func (i Info) String() string {
	ch := "mono"
	switch {
	case i.Channels == 2:
		ch = "stereo"
	case i.Channels > 2:
		ch = fmt.Sprintf("%dch", i.Channels)
	}
	return fmt.Sprintf("%dHz %s %d-bit", i.SampleRate, ch, i.BitsPerSample)
}

// DecodeInfo scans the RIFF/WAVE container in wav and returns the format and
// data-chunk location. Walking the chunk list is more robust than assuming a
// fixed 44-byte header because the fmt chunk size may vary and encoders are
// free to insert LIST or fact chunks before the data chunk.
//
// Returns an error if wav is not a RIFF/WAVE container or if the fmt or data
// chunk cannot be located.
func DecodeInfo(wav []byte) (Info, error) {
	if len(wav) < 12 {
		return Info{}, errors.New("audio: too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return Info{}, errors.New("audio: missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return Info{}, errors.New("audio: missing WAVE identifier")
	}

	var info Info
	foundFmt := false
	foundData := false

	// Walk chunks starting immediately after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				info.BitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
				foundFmt = true
			}
		case "data":
			info.DataOffset = offset + 8
			info.DataBytes = chunkSize
			// Streaming encoders sometimes declare more data than they wrote.
			if remaining := len(wav) - info.DataOffset; info.DataBytes > remaining {
				info.DataBytes = remaining
			}
			foundData = true
		}

		if foundFmt && foundData {
			return info, nil
		}

		// Advance past this chunk (chunks are word-aligned: pad by 1 if odd size).
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	if !foundFmt {
		return Info{}, errors.New("audio: missing fmt chunk")
	}
	return Info{}, errors.New("audio: missing data chunk")
}

// ProbeFile reads the file at path and decodes its WAV header. It loads the
// whole file, so it is intended for short reference recordings, not hour-long
// material.
func ProbeFile(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("audio: read %q: %w", path, err)
	}
	return DecodeInfo(data)
}

// EncodeWAV wraps little-endian 16-bit PCM in a canonical 44-byte RIFF/WAVE
// header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign

	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}

// Resample re-encodes a complete WAV container at dstRate using linear
// interpolation. The input is returned unchanged when dstRate is 0 or already
// matches the container's rate. Only 16-bit mono or stereo PCM is supported.
func Resample(wav []byte, dstRate int) ([]byte, error) {
	if dstRate <= 0 {
		return wav, nil
	}
	info, err := DecodeInfo(wav)
	if err != nil {
		return nil, err
	}
	if info.SampleRate == dstRate {
		return wav, nil
	}
	if info.BitsPerSample != 16 {
		return nil, fmt.Errorf("audio: resample requires 16-bit PCM, got %d-bit", info.BitsPerSample)
	}

	pcm := Samples16(wav[info.DataOffset : info.DataOffset+info.DataBytes])
	switch info.Channels {
	case 1:
		pcm = ResampleMono16(pcm, info.SampleRate, dstRate)
	case 2:
		pcm = ResampleStereo16(pcm, info.SampleRate, dstRate)
	default:
		return nil, fmt.Errorf("audio: resample supports mono or stereo, got %d channels", info.Channels)
	}
	return EncodeWAV(Bytes16(pcm), dstRate, info.Channels), nil
}
