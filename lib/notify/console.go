package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"blitzwatch/services/watcher"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Console prints every message as a table.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func RenderMessage(msg watcher.Message) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(msg.Title)
	t.Style().Title.Align = text.AlignCenter
	for _, field := range msg.Fields {
		t.AppendRow(table.Row{field.Name, field.Value})
	}
	if content := msg.Content(); content != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{content, content}, table.RowConfig{AutoMerge: true})
	}
	return t.Render()
}

func (c *Console) Send(_ context.Context, msg watcher.Message) error {
	rendered := RenderMessage(msg)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "[%s] game %s\n%s\n", strings.ToUpper(string(msg.Kind)), msg.GameId, rendered)
	return err
}
