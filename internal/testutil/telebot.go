package testutil

import (
	tele "gopkg.in/telebot.v3"
)

var _ tele.Context = (*FakeContext)(nil)

// FakeContext records what handlers send. Methods not overridden here panic.
type FakeContext struct {
	tele.Context

	User     *tele.User
	Body     string
	Msg      *tele.Message
	Press    *tele.Callback
	EditErr  error
	Sent     []string
	Edited   []string
	Markups  []*tele.ReplyMarkup
	Answers  []*tele.CallbackResponse
	Notified []tele.ChatAction
}

// NewFakeMessage creates a context for a text message from userID
func NewFakeMessage(userID int64, text string) *FakeContext {
	return &FakeContext{User: &tele.User{ID: userID}, Body: text}
}

// NewFakeVoice creates a context for a voice message from userID
func NewFakeVoice(userID int64, fileID string) *FakeContext {
	return &FakeContext{
		User: &tele.User{ID: userID},
		Msg:  &tele.Message{Voice: &tele.Voice{File: tele.File{FileID: fileID}}},
	}
}

// NewFakeCallback creates a context for a button press from userID
func NewFakeCallback(userID int64, unique, data string) *FakeContext {
	return &FakeContext{
		User:  &tele.User{ID: userID},
		Press: &tele.Callback{ID: "cb-1", Unique: unique, Data: data},
	}
}

func (c *FakeContext) Sender() *tele.User { return c.User }

func (c *FakeContext) Text() string { return c.Body }

func (c *FakeContext) Message() *tele.Message { return c.Msg }

func (c *FakeContext) Callback() *tele.Callback { return c.Press }

func (c *FakeContext) Send(what interface{}, opts ...interface{}) error {
	c.Sent = append(c.Sent, what.(string))
	c.recordMarkup(opts)
	return nil
}

func (c *FakeContext) Edit(what interface{}, opts ...interface{}) error {
	if c.EditErr != nil {
		return c.EditErr
	}
	c.Edited = append(c.Edited, what.(string))
	c.recordMarkup(opts)
	return nil
}

func (c *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		c.Answers = append(c.Answers, nil)
		return nil
	}
	c.Answers = append(c.Answers, resp...)
	return nil
}

func (c *FakeContext) Notify(action tele.ChatAction) error {
	c.Notified = append(c.Notified, action)
	return nil
}

// Last returns the most recent sent or edited text
func (c *FakeContext) Last() string {
	if len(c.Edited) > 0 {
		return c.Edited[len(c.Edited)-1]
	}
	if len(c.Sent) > 0 {
		return c.Sent[len(c.Sent)-1]
	}
	return ""
}

// LastMarkup returns the most recent keyboard
func (c *FakeContext) LastMarkup() *tele.ReplyMarkup {
	if len(c.Markups) == 0 {
		return nil
	}
	return c.Markups[len(c.Markups)-1]
}

func (c *FakeContext) recordMarkup(opts []interface{}) {
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			c.Markups = append(c.Markups, m)
		}
	}
}
