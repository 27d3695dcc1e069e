// Package speech describes optional text-to-speech and speech-to-text capabilities.
package speech

import (
	"context"
	"errors"
	"io"
)

// ErrUnavailable is returned by capabilities that are not present
var ErrUnavailable = errors.New("speech capability unavailable")

// Output speaks text aloud
type Output interface {
	// Available reports whether Speak can be used at all.
	Available() bool
	// Speak says text in the given language and returns when playback is done.
	Speak(ctx context.Context, text, lang string) error
}

// Input transcribes a spoken phrase
type Input interface {
	// Available reports whether Listen can be used at all.
	Available() bool
	// Listen reads one recorded utterance in lang and returns the best transcript.
	Listen(ctx context.Context, audio io.Reader, lang string) (string, error)
}

// Disabled is used when no speech engine is configured
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) Speak(context.Context, string, string) error { return ErrUnavailable }

func (Disabled) Listen(context.Context, io.Reader, string) (string, error) { return "", ErrUnavailable }

// OutputOrDisabled returns o, or Disabled when o is nil
func OutputOrDisabled(o Output) Output {
	if o == nil {
		return Disabled{}
	}
	return o
}

// InputOrDisabled returns i, or Disabled when i is nil
func InputOrDisabled(i Input) Input {
	if i == nil {
		return Disabled{}
	}
	return i
}
