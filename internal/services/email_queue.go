package services

import (
	"context"
	"encoding/json"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueueMailer кладёт письмо в RabbitMQ; отправляет его команда mailer.
type QueueMailer struct {
	pub publisher
}

func NewQueueMailer(pub publisher) *QueueMailer {
	return &QueueMailer{pub: pub}
}

func (m *QueueMailer) Send(ctx context.Context, job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return apperr.Delivery("encode email job", err)
	}
	if err := m.pub.Publish(ctx, body); err != nil {
		return apperr.Delivery("publish email job", err)
	}
	return nil
}

// EmailWorker читает задания из очереди и отправляет их через Mailer.
type EmailWorker struct {
	mailer Mailer
}

func NewEmailWorker(mailer Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Run обрабатывает сообщения, пока не закроется канал или не отменится ctx.
// Битые сообщения отбрасываются, при ошибке отправки сообщение возвращается в очередь.
func (w *EmailWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *EmailWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil || len(job.To) == 0 {
		logger.Log.Error("Некорректное задание на отправку письма", zap.Error(err))
		_ = d.Reject(false)
		return
	}

	if err := w.mailer.Send(ctx, job); err != nil {
		logger.Log.Error("Не удалось отправить письмо", zap.Strings("to", job.To), zap.Error(err))
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	logger.Log.Info("Письмо отправлено", zap.Strings("to", job.To), zap.String("subject", job.Subject))
	_ = d.Ack(false)
}
