package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"causawatch-backend/lib/retryutil"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/notify")

const sendAttempts = 3
const sendRetryPause = 5 * time.Second

type SmtpConfig struct {
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
	Server       string   `json:"server"`
	Port         int      `json:"port"`
}

type Notifier struct {
	config     SmtpConfig
	retryPause time.Duration
	// overridable for tests; defaults to mail.Send over starttls
	send func(mail *email.Email) error
}

func NewNotifier(config SmtpConfig) *Notifier {
	n := &Notifier{config: config, retryPause: sendRetryPause}
	n.send = func(mail *email.Email) error {
		addr := fmt.Sprintf("%s:%d", config.Server, config.Port)
		err := mail.Send(addr, smtp.PlainAuth("", config.EmailAddress, config.Password, config.Server))
		if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
			return mail.Send(addr, nil)
		}
		return err
	}
	return n
}

// Send delivers the report to every configured recipient, retrying
// transient failures with a fixed pause between attempts. Attachments that
// cannot be read are skipped with a log line rather than failing the send.
func (n *Notifier) Send(ctx context.Context, report Report) error {
	ctx, span := tracer.Start(ctx, "notify.Send")
	defer span.End()

	if n.config.EmailAddress == "" || len(n.config.Recipients) == 0 {
		return fmt.Errorf("smtp sender and recipients must be configured")
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Causawatch <%s>", n.config.EmailAddress)
	mail.To = n.config.Recipients
	mail.Subject = report.Subject
	mail.HTML = []byte(report.HTML)

	for _, path := range report.Attachments {
		if _, err := mail.AttachFile(path); err != nil {
			slog.WarnContext(ctx, "attachment skipped",
				"path", path,
				"err", err,
			)
		}
	}

	err := retryutil.Do(ctx, retryutil.Options{
		Attempts: sendAttempts,
		MinDelay: n.retryPause,
		MaxDelay: n.retryPause,
	}, func(ctx context.Context) error {
		return n.send(mail)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "email delivery failed")
		return err
	}

	slog.InfoContext(ctx, "notification sent",
		"recipients", len(n.config.Recipients),
		"attachments", len(report.Attachments),
	)
	return nil
}
