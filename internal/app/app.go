package app

import (
	"context"
	"fmt"

	"propadmin/internal/config"
	"propadmin/internal/db"
	"propadmin/internal/filestore"
	"propadmin/internal/handlers"
	"propadmin/internal/logger"
	"propadmin/internal/queue"
	"propadmin/internal/repository"
	"propadmin/internal/routes"
	"propadmin/internal/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// App — собранное приложение: роутер и ресурсы, которые нужно закрыть при остановке.
type App struct {
	Router  *mux.Router
	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	conn, err := db.NewPostgresConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, conn.Close)

	// Репозитории
	accountRepo := repository.NewAccountRepository(conn)
	imageRepo := repository.NewImageRepository(conn)

	tokens, err := newTokenStore(ctx, cfg, a, conn, accountRepo)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := filestore.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	mailer, err := NewMailer(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Сервисы
	passwordSvc := services.NewPasswordService(accountRepo, tokens, mailer, cfg.FrontendURL, cfg.BcryptCost)
	imageSvc := services.NewImageService(imageRepo, store, cfg.UploadWorkers)

	// Хендлеры
	passwordH := handlers.NewPasswordHandler(passwordSvc)
	imageH := handlers.NewImageHandler(imageSvc, cfg.MaxUploadBytes())
	healthH := handlers.NewHealthHandler(conn)

	opts := routes.Options{
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.RequestTimeout,
	}
	if store.Type() == config.FileStoreLocal {
		opts.StaticDir = cfg.StaticDir
		opts.StaticURLPrefix = cfg.StaticURLPrefix
	}

	a.Router = mux.NewRouter()
	routes.InitRoutes(a.Router, passwordH, imageH, healthH, opts)

	logger.Log.Info("Приложение собрано",
		zap.String("deployment_mode", cfg.DeploymentMode),
		zap.String("file_store", store.Type()),
		zap.String("token_store", cfg.TokenStore),
		zap.String("mail_transport", cfg.MailTransport),
		zap.Int("upload_workers", cfg.UploadWorkers),
	)
	return a, nil
}

func newTokenStore(ctx context.Context, cfg *config.Config, a *App, conn repository.TxQuerier, accounts *repository.AccountRepository) (services.ResetTokenStore, error) {
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return repository.NewRedisResetTokenStore(client, accounts), nil
	default:
		return repository.NewPasswordResetRepository(conn, accounts), nil
	}
}

// NewMailer выбирает транспорт писем по MAIL_TRANSPORT.
func NewMailer(ctx context.Context, cfg *config.Config, a *App) (services.Mailer, error) {
	switch cfg.MailTransport {
	case config.MailSES:
		m, err := services.NewSESMailer(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init ses mailer: %w", err)
		}
		return m, nil
	case config.MailAMQP:
		q, err := queue.New(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		a.closers = append(a.closers, q.Close)
		return services.NewQueueMailer(q), nil
	default:
		return services.NewSMTPMailer(cfg), nil
	}
}
