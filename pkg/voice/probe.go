package voice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-audio/wav"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/lenaai/lenachat/pkg/logger"
)

// ProbeDuration derives the playback length of an encoded audio blob,
// formatted "m:ss". The probe runs with a hard bound: when the container
// is unsupported, the blob malformed, or decoding does not finish within
// the timeout, it returns the empty string rather than blocking the turn.
func ProbeDuration(blob []byte, timeout time.Duration) string {
	if len(blob) == 0 {
		return ""
	}
	if timeout <= 0 {
		timeout = 1500 * time.Millisecond
	}

	done := make(chan time.Duration, 1)
	go func() {
		d, err := decodeDuration(blob)
		if err != nil {
			logger.DebugCF("voice", "Duration probe failed", map[string]interface{}{
				"error": err.Error(),
			})
			done <- 0
			return
		}
		done <- d
	}()

	select {
	case d := <-done:
		if d <= 0 {
			return ""
		}
		return FormatDuration(d)
	case <-time.After(timeout):
		logger.DebugCF("voice", "Duration probe timed out", map[string]interface{}{
			"timeout": timeout.String(),
		})
		return ""
	}
}

func decodeDuration(blob []byte) (time.Duration, error) {
	kind, err := filetype.Match(blob)
	if err != nil {
		return 0, err
	}

	switch kind {
	case matchers.TypeWav:
		dec := wav.NewDecoder(bytes.NewReader(blob))
		if !dec.IsValidFile() {
			return 0, fmt.Errorf("invalid wav")
		}
		return dec.Duration()

	case matchers.TypeMp3:
		dec, err := mp3.NewDecoder(bytes.NewReader(blob))
		if err != nil {
			return 0, err
		}
		sr := dec.SampleRate()
		if sr <= 0 {
			return 0, fmt.Errorf("invalid mp3 sample rate")
		}
		// Length is decoded bytes: stereo, 16-bit.
		samples := dec.Length() / 4
		return time.Duration(samples) * time.Second / time.Duration(sr), nil

	case matchers.TypeOgg:
		pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(blob))
		if err != nil {
			return 0, err
		}
		if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
			return 0, fmt.Errorf("invalid ogg/vorbis stream")
		}
		frames := len(pcm) / format.Channels
		return time.Duration(frames) * time.Second / time.Duration(format.SampleRate), nil

	default:
		return 0, fmt.Errorf("unsupported container: %s", kind.Extension)
	}
}

// FormatDuration renders a playback length the way the chat bubbles show
// it: minutes and zero-padded seconds, rounded to the nearest second.
func FormatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
