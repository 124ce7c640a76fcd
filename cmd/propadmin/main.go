package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "propadmin/docs"
	"propadmin/internal/app"
	"propadmin/internal/config"
	"propadmin/internal/db"
	"propadmin/internal/logger"
	"propadmin/internal/queue"
	"propadmin/internal/repository"
	"propadmin/internal/services"
	"propadmin/internal/utils"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// @title Property Admin API
// @version 1.0
// @description Сброс пароля администратора и загрузка изображений объектов.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "propadmin",
		Short:         "property admin backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			logger.InitLogger(cfg)
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(&cfg),
		migrateCmd(&cfg),
		mailerCmd(&cfg),
		tokenCmd(&cfg),
		adminCmd(&cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Log.Error("Ошибка выполнения команды", zap.Error(err))
		_ = logger.Log.Sync()
		os.Exit(1)
	}
	_ = logger.Log.Sync()
}

func serveCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			warnings, err := c.Validate()
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Log.Warn(w)
			}

			if c.MigrateOnStart {
				if err := db.Migrate(c.GetDSN(), false); err != nil {
					return fmt.Errorf("migrations: %w", err)
				}
				logger.Log.Info("Миграции применены")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.InitApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.Close()

			corsMiddleware := cors.New(cors.Options{
				AllowedOrigins:   []string{c.FrontendURL},
				AllowCredentials: true,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			})

			srv := &http.Server{
				Addr:              ":" + c.Port,
				Handler:           corsMiddleware.Handler(a.Router),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       2 * time.Minute,
				WriteTimeout:      c.RequestTimeout + 30*time.Second,
				IdleTimeout:       2 * time.Minute,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Log.Info("Сервер запущен",
					zap.String("port", c.Port),
					zap.String("db", c.GetDSNSafe()),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Log.Info("Остановка сервера")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Log.Info("Сервер остановлен")
			return nil
		},
	}
}

func migrateCmd(cfg **config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply or roll back database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "apply all migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := db.Migrate((*cfg).GetDSN(), false); err != nil {
					return err
				}
				logger.Log.Info("Миграции применены")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "roll back all migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := db.Migrate((*cfg).GetDSN(), true); err != nil {
					return err
				}
				logger.Log.Info("Миграции откачены")
				return nil
			},
		},
	)
	return cmd
}

func mailerCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mailer",
		Short: "consume queued emails from RabbitMQ and send them over SMTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.AMQPURL == "" {
				return errors.New("AMQP_URL is required for mailer")
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			q, err := queue.New(c.AMQPURL, c.AMQPQueue)
			if err != nil {
				return err
			}
			defer q.Close()

			deliveries, err := q.Consume(ctx, "propadmin-mailer")
			if err != nil {
				return err
			}

			logger.Log.Info("Consumer писем запущен", zap.String("queue", c.AMQPQueue))
			err = services.NewEmailWorker(services.NewSMTPMailer(c)).Run(ctx, deliveries)
			logger.Log.Info("Consumer писем остановлен")
			return err
		},
	}
}

func tokenCmd(cfg **config.Config) *cobra.Command {
	var (
		username string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "mint an admin JWT for the upload endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if username == "" {
				return errors.New("--username is required")
			}
			tok, err := utils.GenerateToken(c.JWTSecret, username, "admin", ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username (email)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func adminCmd(cfg **config.Config) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "manage admin accounts",
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), c.BcryptCost)
			if err != nil {
				return err
			}
			pool, err := db.NewPostgresConnection(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer pool.Close()
			return repository.NewAccountRepository(pool).Create(cmd.Context(), username, string(hash))
		},
	}
	create.Flags().StringVar(&username, "username", "", "admin username (email)")
	create.Flags().StringVar(&password, "password", "", "initial password")
	cmd.AddCommand(create)
	return cmd
}
