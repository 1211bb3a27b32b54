package voice

import (
	"errors"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV assembles captured float32 PCM into a 16-bit mono WAV blob.
func EncodeWAV(pcm []float32, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}

	ints := make([]int, len(pcm))
	for i, s := range pcm {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		ints[i] = v
	}

	w := &memWriteSeeker{}
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// memWriteSeeker satisfies the encoder's io.WriteSeeker without touching
// the filesystem; the encoder seeks back to patch the RIFF header sizes.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int
	switch whence {
	case io.SeekStart:
		abs = int(offset)
	case io.SeekCurrent:
		abs = m.pos + int(offset)
	case io.SeekEnd:
		abs = len(m.buf) + int(offset)
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = abs
	return int64(abs), nil
}
