package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blitzwatch/lib/restyutil"
	"blitzwatch/lib/telemetry"
	"blitzwatch/services/watcher"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("blitzwatch.lib.notify")

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordAllowedMentions struct {
	Parse []string `json:"parse"`
}

type discordWebhookRequest struct {
	Content         string                 `json:"content,omitempty"`
	Embeds          []discordEmbed         `json:"embeds"`
	AllowedMentions discordAllowedMentions `json:"allowed_mentions"`
}

type DiscordOptions struct {
	WebhookUrl string `json:"webhook_url"`
	// defaults to 10 seconds
	Timeout time.Duration              `json:"-"`
	Output  restyutil.InstrumentOutput `json:"-"`
}

// Discord posts messages to a channel webhook as an embed. Mentions go in
// the message content so they ping.
type Discord struct {
	webhookUrl string
	http       *resty.Client
}

func NewDiscord(opts DiscordOptions) *Discord {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("content-type", "application/json")
	restyutil.InstrumentClient(client, tracer, opts.Output)

	return &Discord{webhookUrl: opts.WebhookUrl, http: client}
}

func discordRequest(msg watcher.Message) discordWebhookRequest {
	fields := make([]discordField, len(msg.Fields))
	for i, f := range msg.Fields {
		fields[i] = discordField{Name: f.Name, Value: f.Value, Inline: f.Inline}
	}

	return discordWebhookRequest{
		Content: strings.Join(msg.Mentions, " "),
		Embeds: []discordEmbed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       msg.Color,
			Fields:      fields,
		}},
		AllowedMentions: discordAllowedMentions{
			Parse: []string{"users", "roles", "everyone"},
		},
	}
}

func (d *Discord) Send(ctx context.Context, msg watcher.Message) error {
	ctx, span := tracer.Start(ctx, "discord:Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("game_id", msg.GameId),
		attribute.String("kind", string(msg.Kind)),
	)

	res, err := d.http.R().
		SetContext(ctx).
		SetBody(discordRequest(msg)).
		Post(d.webhookUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post webhook")
		return err
	}
	if res.IsError() {
		err = fmt.Errorf("discord webhook: unexpected status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook rejected message")
		return err
	}
	return nil
}
