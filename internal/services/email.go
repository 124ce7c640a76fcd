package services

import (
	"context"
	"fmt"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"gopkg.in/gomail.v2"
)

// EmailJob — одно письмо. Оно же уходит в очередь как JSON.
type EmailJob struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

// Mailer — транспорт доставки писем.
type Mailer interface {
	Send(ctx context.Context, job EmailJob) error
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer отправляет письма через gomail.
type SMTPMailer struct {
	dialer smtpDialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func buildGomailMessage(from string, job EmailJob) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", job.To...)
	msg.SetHeader("Subject", job.Subject)
	msg.SetBody("text/plain", job.Text)
	if job.HTML != "" {
		msg.AddAlternative("text/html", job.HTML)
	}
	return msg
}

func (m *SMTPMailer) Send(ctx context.Context, job EmailJob) error {
	if err := ctx.Err(); err != nil {
		return apperr.Delivery("smtp", err)
	}
	if err := m.dialer.DialAndSend(buildGomailMessage(m.from, job)); err != nil {
		return apperr.Delivery("smtp", err)
	}
	return nil
}

type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer отправляет письма через Amazon SES. Адрес отправителя должен быть подтверждён в SES.
type SESMailer struct {
	client sesSender
	from   string
}

func NewSESMailer(ctx context.Context, cfg *config.Config) (*SESMailer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AwsRegion),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.AddWithMaxBackoffDelay(retry.NewStandard(), 5*time.Second),
				3,
			)
		}),
	}
	// без ключей работает стандартная цепочка (env, профиль, роль инстанса)
	if cfg.AwsAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(awsCfg), from: cfg.MailFrom}, nil
}

func (m *SESMailer) Send(ctx context.Context, job EmailJob) error {
	body := &sestypes.Body{
		Text: &sestypes.Content{Data: aws.String(job.Text), Charset: aws.String("UTF-8")},
	}
	if job.HTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(job.HTML), Charset: aws.String("UTF-8")}
	}
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &sestypes.Destination{ToAddresses: job.To},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(job.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		return apperr.Delivery("ses", err)
	}
	return nil
}
