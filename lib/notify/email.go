package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"blitzwatch/services/watcher"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// sendTimeout bounds a whole smtp exchange when ctx has no earlier deadline.
const sendTimeout = time.Second * 30

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Email sends every message as a plain text mail.
type Email struct {
	config SmtpConfig
}

func NewEmail(config SmtpConfig) Email {
	return Email{config: config}
}

func emailBody(msg watcher.Message) string {
	var body strings.Builder
	if msg.Body != "" {
		body.WriteString(msg.Body)
		body.WriteString("\n\n")
	}
	for _, field := range msg.Fields {
		fmt.Fprintf(&body, "%s:\n", field.Name)
		for _, line := range strings.Split(field.Value, "\n") {
			fmt.Fprintf(&body, "  %s\n", line)
		}
	}
	return body.String()
}

func (e Email) Send(ctx context.Context, msg watcher.Message) error {
	ctx, span := tracer.Start(ctx, "email:Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("game_id", msg.GameId),
		attribute.String("kind", string(msg.Kind)),
	)

	if len(e.config.To) == 0 {
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("blitzwatch <%s>", e.config.EmailAddress)
	mail.To = e.config.To
	mail.Subject = fmt.Sprintf("[blitzwatch] %s", msg.Title)
	mail.Text = []byte(emailBody(msg))

	raw, err := mail.Bytes()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode email")
		return err
	}

	err = e.deliver(ctx, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}

// deliver runs one smtp exchange. The connection is closed as soon as ctx
// is done so a stalled server cannot hold the caller.
func (e Email) deliver(ctx context.Context, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	addr := net.JoinHostPort(e.config.Server, strconv.Itoa(e.config.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp %s: %w", addr, ctxErr)
		}
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	err = e.exchange(conn, raw)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("smtp %s: %w", addr, ctxErr)
	}
	return err
}

func (e Email) exchange(conn net.Conn, raw []byte) error {
	client, err := smtp.NewClient(conn, e.config.Server)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		err = client.StartTLS(&tls.Config{ServerName: e.config.Server})
		if err != nil {
			return err
		}
	}
	// servers without AUTH (local relays, test servers) take mail as is
	if ok, _ := client.Extension("AUTH"); ok && e.config.Password != "" {
		err = client.Auth(smtp.PlainAuth("", e.config.EmailAddress, e.config.Password, e.config.Server))
		if err != nil {
			return err
		}
	}

	err = client.Mail(e.config.EmailAddress)
	if err != nil {
		return err
	}
	for _, to := range e.config.To {
		err = client.Rcpt(to)
		if err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	if err != nil {
		return err
	}
	err = w.Close()
	if err != nil {
		return err
	}
	return client.Quit()
}
