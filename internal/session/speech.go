package session

import (
	"context"
	"errors"
	"io"
	"strings"

	"linguo/internal/domain"
	"linguo/internal/speech"

	"go.uber.org/zap"
)

// SpeechAvailable reports which speech capabilities the session can use
func (c *Controller) SpeechAvailable() (output, input bool) {
	return c.d.SpeechOut.Available(), c.d.SpeechIn.Available()
}

// Speak reads the current translation aloud in the target language
func (c *Controller) Speak(ctx context.Context) error {
	c.mu.Lock()
	c.lastActive = c.d.Clock.Now()
	text := c.state.TranslatedText
	lang := c.state.TargetLanguage
	if !c.d.SpeechOut.Available() {
		c.mu.Unlock()
		return c.speechUnavailable()
	}
	if strings.TrimSpace(text) == "" {
		derr := domain.NewError(domain.ErrEmptyInput, "There is no translation to read aloud.", nil)
		c.state.ErrorMessage = derr.Message
		c.mu.Unlock()
		return derr
	}
	if c.state.IsSpeaking {
		c.mu.Unlock()
		return nil
	}
	c.state.IsSpeaking = true
	c.mu.Unlock()

	err := c.d.SpeechOut.Speak(ctx, text, lang)

	c.mu.Lock()
	c.state.IsSpeaking = false
	c.mu.Unlock()

	if errors.Is(err, speech.ErrUnavailable) {
		return c.speechUnavailable()
	}
	if err != nil {
		c.d.Logger.Warn("Speech output failed", zap.String("lang", lang), zap.Error(err))
		derr := domain.NewError(domain.ErrSpeechFailed, "Could not read the translation aloud.", err)
		c.fail(derr)
		return derr
	}
	return nil
}

// Listen transcribes one recorded utterance in the source language and makes it the input text
func (c *Controller) Listen(ctx context.Context, audio io.Reader) (string, error) {
	c.mu.Lock()
	c.lastActive = c.d.Clock.Now()
	lang := c.state.SourceLanguage
	if !c.d.SpeechIn.Available() {
		c.mu.Unlock()
		return "", c.speechUnavailable()
	}
	if c.state.IsListening {
		c.mu.Unlock()
		return "", nil
	}
	c.state.IsListening = true
	c.mu.Unlock()

	transcript, err := c.d.SpeechIn.Listen(ctx, audio, lang)

	c.mu.Lock()
	c.state.IsListening = false
	if err == nil {
		c.state.InputText = transcript
	}
	c.mu.Unlock()

	if errors.Is(err, speech.ErrUnavailable) {
		return "", c.speechUnavailable()
	}
	if err != nil {
		c.d.Logger.Warn("Speech input failed", zap.String("lang", lang), zap.Error(err))
		derr := domain.NewError(domain.ErrSpeechFailed, "Speech recognition failed.", err)
		c.fail(derr)
		return "", derr
	}
	return transcript, nil
}

func (c *Controller) speechUnavailable() error {
	derr := domain.NewError(domain.ErrSpeechUnavailable, "Speech is not supported here.", nil)
	c.fail(derr)
	return derr
}
