package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"linguo/internal/domain"
	"linguo/internal/service"
	"linguo/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSpeechController(t *testing.T, sp *testutil.MockSpeech) *Controller {
	t.Helper()
	history := testutil.NewMemoryHistory(testStart)
	deps := Deps{
		Translator: new(testutil.MockTranslator),
		History:    history,
		Feed:       history,
		Quota:      service.NewQuotaService(new(testutil.MockQuotaStore), 10),
	}
	if sp != nil {
		deps.SpeechOut = sp
		deps.SpeechIn = sp
	}
	c := New(deps)
	t.Cleanup(c.Close)
	return c
}

func TestSpeak(t *testing.T) {
	sp := new(testutil.MockSpeech)
	sp.On("Available").Return(true)
	sp.On("Speak", mock.Anything, "Hello", "en").Return(nil).Once()
	c := newSpeechController(t, sp)
	c.LoadFromHistory(domain.HistoryEntry{OriginalText: "Hola", TranslatedText: "Hello", SourceLanguage: "es", TargetLanguage: "en"})

	require.NoError(t, c.Speak(context.Background()))

	assert.False(t, c.Snapshot().IsSpeaking)
	sp.AssertExpectations(t)
}

func TestSpeak_Failures(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c := newSpeechController(t, nil)
		c.LoadFromHistory(domain.HistoryEntry{TranslatedText: "Hello", SourceLanguage: "es", TargetLanguage: "en"})

		err := c.Speak(context.Background())

		assert.Equal(t, domain.ErrSpeechUnavailable, domain.KindOf(err))
		out, in := c.SpeechAvailable()
		assert.False(t, out)
		assert.False(t, in)
	})

	t.Run("nothing to speak", func(t *testing.T) {
		sp := new(testutil.MockSpeech)
		sp.On("Available").Return(true)
		c := newSpeechController(t, sp)

		err := c.Speak(context.Background())

		assert.Equal(t, domain.ErrEmptyInput, domain.KindOf(err))
		sp.AssertNotCalled(t, "Speak", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("engine error", func(t *testing.T) {
		sp := new(testutil.MockSpeech)
		sp.On("Available").Return(true)
		sp.On("Speak", mock.Anything, "Hello", "en").Return(errors.New("audio device busy"))
		c := newSpeechController(t, sp)
		c.LoadFromHistory(domain.HistoryEntry{TranslatedText: "Hello", SourceLanguage: "es", TargetLanguage: "en"})

		err := c.Speak(context.Background())

		assert.Equal(t, domain.ErrSpeechFailed, domain.KindOf(err))
		assert.False(t, c.Snapshot().IsSpeaking)
		assert.NotEmpty(t, c.Snapshot().ErrorMessage)
	})
}

func TestListen(t *testing.T) {
	sp := new(testutil.MockSpeech)
	sp.On("Available").Return(true)
	sp.On("Listen", mock.Anything, "ogg", "es").Return("Buenos días", nil).Once()
	c := newSpeechController(t, sp)

	transcript, err := c.Listen(context.Background(), strings.NewReader("ogg"))

	require.NoError(t, err)
	assert.Equal(t, "Buenos días", transcript)
	assert.Equal(t, "Buenos días", c.Snapshot().InputText)
	assert.False(t, c.Snapshot().IsListening)
}

func TestListen_Failures(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c := newSpeechController(t, nil)

		_, err := c.Listen(context.Background(), strings.NewReader("ogg"))

		assert.Equal(t, domain.ErrSpeechUnavailable, domain.KindOf(err))
	})

	t.Run("recognition error keeps input", func(t *testing.T) {
		sp := new(testutil.MockSpeech)
		sp.On("Available").Return(true)
		sp.On("Listen", mock.Anything, mock.Anything, "es").Return("", errors.New("no speech detected"))
		c := newSpeechController(t, sp)
		c.SetInput("Hola")

		_, err := c.Listen(context.Background(), strings.NewReader("ogg"))

		assert.Equal(t, domain.ErrSpeechFailed, domain.KindOf(err))
		assert.Equal(t, "Hola", c.Snapshot().InputText)
		assert.False(t, c.Snapshot().IsListening)
	})
}
