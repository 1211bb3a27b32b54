// Package voice implements the capture side of voice turns: microphone
// recording, WAV encoding of the captured PCM, and a bounded probe that
// derives the playback duration of an encoded blob.
package voice

import (
	"errors"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/lenaai/lenachat/pkg/logger"
)

// ErrNoAudio is returned when a recording stops without having captured a
// single sample. Callers must not append a voice message or contact the
// backend in that case.
var ErrNoAudio = errors.New("no audio recorded")

const frameSize = 1024

// Recorder captures mono PCM from the default input device. Init must be
// called once before recording and Close once when done; the device is
// opened per recording and released on every exit path.
type Recorder struct {
	sampleRate int
}

func NewRecorder(sampleRate int) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Recorder{sampleRate: sampleRate}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// SampleRate returns the capture rate in Hz.
func (r *Recorder) SampleRate() int { return r.sampleRate }

// Record captures until the stop channel fires or maxDur elapses and
// returns the accumulated samples. The input stream is stopped and closed
// before returning, on success and on error.
func (r *Recorder) Record(stop <-chan struct{}, maxDur time.Duration) ([]float32, error) {
	if maxDur <= 0 {
		maxDur = 60 * time.Second
	}

	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	deadline := time.Now().Add(maxDur)
	out := make([]float32, 0, r.sampleRate*3)

	for {
		if time.Now().After(deadline) {
			logger.DebugCF("voice", "Recording hit max duration", map[string]interface{}{
				"max": maxDur.String(),
			})
			break
		}

		select {
		case <-stop:
			if len(out) == 0 {
				return nil, ErrNoAudio
			}
			return out, nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}
