package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsoleSender prints the plain text form of each message, so alerts are
// visible even when no chat or mail destination is configured.
type ConsoleSender struct {
	out io.Writer
}

func NewConsoleSender(out io.Writer) *ConsoleSender {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSender{out: out}
}

func (s *ConsoleSender) Send(_ context.Context, channel string, msg *RenderedMessage) error {
	target := channel
	if target == "" {
		target = "console"
	}

	var sb strings.Builder
	sb.WriteString("\n===========================================\n")
	sb.WriteString(fmt.Sprintf("[%s] %s\n", target, msg.Subject))
	sb.WriteString("===========================================\n")
	sb.WriteString(strings.TrimRight(msg.Text, "\n"))
	sb.WriteString("\n")

	_, err := io.WriteString(s.out, sb.String())
	return err
}
