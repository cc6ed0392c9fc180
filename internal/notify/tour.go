// Package notify turns queued domain events into e-mail.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/mailer"
	"github.com/example/gymdesk/internal/messagequeue"
	"github.com/example/gymdesk/internal/models"
)

// Raw HTML in the markdown is escaped since WithUnsafe is not set.
var md = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

// Every field comes from a public form, so each is rendered as literal text:
// markdown punctuation is backslash-escaped and line breaks are folded.
var confirmation = template.Must(template.New("tour").Funcs(template.FuncMap{
	"text":  inlineText,
	"quote": quotedText,
}).Parse(`# Thanks for your interest, {{text .Name}}!

We received your request to tour the gym{{if .PreferredDate}} on **{{text .PreferredDate}}**{{end}}.
Someone from the front desk will contact you at {{text .Email}}{{if .Phone}} or {{text .Phone}}{{end}} to confirm a time.
{{if .Message}}
> {{quote .Message}}
{{end}}
See you soon!
`))

// TourNotifier sends a confirmation e-mail for every tour request event.
type TourNotifier struct {
	queue     messagequeue.MessageQueue
	queueName string
	sender    mailer.Sender
	replyTo   string
	logger    *zap.Logger
}

// NewTourNotifier creates a TourNotifier. replyTo may be empty.
func NewTourNotifier(queue messagequeue.MessageQueue, queueName string, sender mailer.Sender, replyTo string, logger *zap.Logger) *TourNotifier {
	return &TourNotifier{queue: queue, queueName: queueName, sender: sender, replyTo: replyTo, logger: logger}
}

// Run consumes tour request events until ctx is done.
func (n *TourNotifier) Run(ctx context.Context) error {
	n.logger.Info("tour request notifier started", zap.String("queue", n.queueName))
	return n.queue.Consume(ctx, n.queueName, n.Handle)
}

// Handle processes one queued event. Unknown event types are acknowledged
// and skipped.
func (n *TourNotifier) Handle(ctx context.Context, body []byte) error {
	var evt models.TourRequestEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		n.logger.Warn("dropping malformed tour request event", zap.Error(err))
		return nil
	}
	if evt.Type != models.TourRequestCreatedEvent {
		return nil
	}

	html, err := RenderConfirmation(evt.TourRequest)
	if err != nil {
		return err
	}
	id, err := n.sender.Send(ctx, mailer.Message{
		To:      []string{evt.TourRequest.Email},
		Subject: "Your gym tour request",
		HTML:    html,
		ReplyTo: n.replyTo,
	})
	if err != nil {
		return fmt.Errorf("send tour confirmation: %w", err)
	}
	n.logger.Info("tour confirmation sent", zap.String("tourRequestId", evt.TourRequest.ID), zap.String("messageId", id))
	return nil
}

// RenderConfirmation renders the confirmation e-mail body as HTML.
func RenderConfirmation(req models.TourRequest) (string, error) {
	var src bytes.Buffer
	if err := confirmation.Execute(&src, req); err != nil {
		return "", fmt.Errorf("render tour confirmation: %w", err)
	}
	var out bytes.Buffer
	if err := md.Convert(src.Bytes(), &out); err != nil {
		return "", fmt.Errorf("render tour confirmation: %w", err)
	}
	return out.String(), nil
}

const markdownPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// escapeMarkdown backslash-escapes every ASCII punctuation character so s
// cannot open a link, image, emphasis, heading or autolink.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(markdownPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inlineText folds s onto one line and escapes it.
func inlineText(s string) string {
	return escapeMarkdown(strings.Join(strings.Fields(s), " "))
}

// quotedText escapes each line of s and keeps it inside the blockquote.
func quotedText(s string) string {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = escapeMarkdown(strings.TrimSpace(line))
	}
	return strings.Join(lines, "\n> ")
}
