package views

import (
	"context"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/logx"
)

// MaxMessageBytes bounds a single posted message.
const MaxMessageBytes = 500

// conversation is the message history and draft line shared by the room and
// direct-message screens. Older pages are reached with Up and left with Down.
type conversation struct {
	selfID   int64
	messages []repository.Message
	page     int
	draft    string
	notice   string

	load func(ctx context.Context, page int) ([]repository.Message, error)
	post func(ctx context.Context, text string) error
}

func (c *conversation) refresh(ctx context.Context) {
	msgs, err := c.load(ctx, c.page)
	if err != nil {
		logx.Error(err, "Failed to load messages", "page", c.page)
		return
	}
	c.messages = msgs
}

// handle applies the events common to both screens. ok is false when ev is
// left for the caller.
func (c *conversation) handle(ctx context.Context, ev protocol.Event, text string, sent protocol.Event) (protocol.Event, bool) {
	switch ev {
	case protocol.UpArrow:
		if len(c.messages) == repository.PageSize {
			c.page++
			c.refresh(ctx)
		}
		return ev, true
	case protocol.DownArrow:
		if c.page != 0 {
			c.page--
			c.refresh(ctx)
		}
		return ev, true
	case protocol.Enter:
		if text != "" {
			c.draft = text
		}
		body := strings.TrimSpace(c.draft)
		if body == "" {
			return protocol.Unknown, true
		}
		if len(body) > MaxMessageBytes {
			c.notice = errs.NewError(errs.ErrMessageContentTooLong, MaxMessageBytes).Message
			return protocol.Unknown, true
		}
		if err := c.post(ctx, body); err != nil {
			logx.Error(err, "Failed to post message", "user_id", c.selfID)
			c.notice = errs.Message(err)
			return protocol.Unknown, true
		}
		c.draft = ""
		c.notice = ""
		c.page = 0
		c.refresh(ctx)
		return sent, true
	case protocol.CtrlQ:
		return ev, false
	}
	c.draft = text
	return ev, true
}

func (c *conversation) render(b *strings.Builder) {
	if c.page > 0 {
		b.WriteString(helpStyle.Render("Viewing older messages. Down returns to newer ones."))
		b.WriteString("\n")
	}
	writeConversation(b, c.messages, c.selfID, c.draft)
	if c.notice != "" {
		b.WriteString("\n")
		writeError(b, c.notice)
	}
}
