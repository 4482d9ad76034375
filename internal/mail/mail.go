// Package mail delivers refectory answer reports to the kitchen managers.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"campus/internal/v0/refectory"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds the SMTP settings. An empty Host disables delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

const DefaultSubject = "Refectory answers"

var bodyTemplate = template.Must(template.New("report").Parse(`Refectory answers for {{.Date}}

Breakfast:        {{.Totals.Breakfast}}
Lunch:            {{.Totals.Lunch}}
Afternoon snack:  {{.Totals.AfternoonSnack}}
Dinner:           {{.Totals.Dinner}}
Night snack:      {{.Totals.NightSnack}}
Total:            {{.Totals.Total}}
{{if .PerType}}
Answers per user type:
{{range .PerType}}  {{.Label}}: {{.Total}}
{{end}}{{end}}
The full list of answers is attached.
`))

// RenderBody renders the plain text report body
func RenderBody(formattedDate string, totals refectory.MealTotals, perType []refectory.TypeCount) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Date    string
		Totals  refectory.MealTotals
		PerType []refectory.TypeCount
	}{formattedDate, totals, perType})
	if err != nil {
		return "", fmt.Errorf("render report body: %w", err)
	}
	return buf.String(), nil
}

// AttachmentName is the file name of the spreadsheet for a report date
func AttachmentName(formattedDate string) string {
	return "refectory-" + strings.ReplaceAll(formattedDate, "/", "-") + ".xlsx"
}

// Dispatcher sends reports over SMTP. Failures are returned, never retried.
type Dispatcher struct {
	cfg    Config
	logger *zap.Logger
	send   func(ctx context.Context, msg *gomail.Msg) error
}

// NewDispatcher returns an SMTP dispatcher, or a log-only one when no host is
// configured
func NewDispatcher(cfg Config, logger *zap.Logger) (refectory.Notifier, error) {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set, refectory reports will only be logged")
		return &LogDispatcher{logger: logger}, nil
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		send: func(ctx context.Context, msg *gomail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (d *Dispatcher) buildMessage(recipients []string, attachment []byte, formattedDate string,
	totals refectory.MealTotals, perType []refectory.TypeCount) (*gomail.Msg, error) {
	body, err := RenderBody(formattedDate, totals, perType)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if err := msg.From(d.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	msg.Subject(fmt.Sprintf("%s - %s", d.cfg.Subject, formattedDate))
	msg.SetBodyString(gomail.TypeTextPlain, body)
	if len(attachment) > 0 {
		if err := msg.AttachReader(AttachmentName(formattedDate), bytes.NewReader(attachment)); err != nil {
			return nil, fmt.Errorf("attach spreadsheet: %w", err)
		}
	}
	return msg, nil
}

func (d *Dispatcher) SendFormAnswers(ctx context.Context, recipients []string, attachment []byte,
	formattedDate string, totals refectory.MealTotals, perType []refectory.TypeCount) error {
	msg, err := d.buildMessage(recipients, attachment, formattedDate, totals, perType)
	if err != nil {
		return err
	}
	if err := d.send(ctx, msg); err != nil {
		return fmt.Errorf("send refectory report: %w", err)
	}
	d.logger.Debug("refectory report mailed", zap.Strings("to", recipients), zap.String("date", formattedDate))
	return nil
}

// LogDispatcher writes reports to the log instead of mailing them
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendFormAnswers(_ context.Context, recipients []string, attachment []byte,
	formattedDate string, totals refectory.MealTotals, perType []refectory.TypeCount) error {
	d.logger.Info("refectory report (delivery disabled)",
		zap.Strings("to", recipients),
		zap.String("date", formattedDate),
		zap.Int("total", totals.Total),
		zap.Any("perType", perType),
		zap.Int("attachmentBytes", len(attachment)),
	)
	return nil
}
