package handler

import (
	"errors"
	"io"
	"strings"
	"testing"

	"linguo/internal/testutil"
	"linguo/internal/translate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type fakeFiles struct {
	data      map[string]string
	err       error
	downloads int
}

func (f *fakeFiles) File(file *tele.File) (io.ReadCloser, error) {
	f.downloads++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.data[file.FileID])), nil
}

func TestHandleVoice_Disabled(t *testing.T) {
	f := newHandlerFixture(t)
	files := &fakeFiles{}
	f.h.files = files
	f.signIn(t, 0)

	c := testutil.NewFakeVoice(1, "voice-1")
	require.NoError(t, f.h.handleVoice(c))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Sent[0], "⚠️ Speech is not supported here.")
	assert.Contains(t, c.Sent[0], "Send me any text to translate.")
	assert.Equal(t, 0, files.downloads)
	f.translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything)
}

func TestHandleVoice_TranscribesAndTranslates(t *testing.T) {
	f := newHandlerFixture(t)
	f.speech = new(testutil.MockSpeech)
	f.speech.On("Available").Return(true)
	f.speech.On("Listen", mock.Anything, "ogg-bytes", "es").Return("Hola", nil).Once()
	f.h.files = &fakeFiles{data: map[string]string{"voice-1": "ogg-bytes"}}
	f.signIn(t, 0)
	f.translator.On("Translate", mock.Anything, translate.Request{
		Text: "Hola", SourceName: "Spanish", TargetName: "English",
	}).Return("Hello", nil).Once()
	f.quota.On("Save", mock.Anything, "uuid-1", 1).Return(nil).Once()

	c := testutil.NewFakeVoice(1, "voice-1")
	require.NoError(t, f.h.handleVoice(c))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Sent[0], "📝 Hola\n✅ Hello")
	assert.Contains(t, c.Sent[0], "or a voice message")
	assert.True(t, hasButton(c.LastMarkup(), btnSpeak.Unique))
	f.speech.AssertExpectations(t)
	f.translator.AssertExpectations(t)
}

func TestHandleVoice_DownloadFails(t *testing.T) {
	f := newHandlerFixture(t)
	f.speech = new(testutil.MockSpeech)
	f.speech.On("Available").Return(true)
	f.h.files = &fakeFiles{err: errors.New("file is too big")}
	ctrl := f.signIn(t, 0)

	c := testutil.NewFakeVoice(1, "voice-1")
	require.NoError(t, f.h.handleVoice(c))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Sent[0], "Could not download")
	assert.Equal(t, 0, ctrl.Snapshot().TranslationCount)
	f.speech.AssertNotCalled(t, "Listen", mock.Anything, mock.Anything, mock.Anything)
}
