package routes

import (
	"net/http"
	"strings"
	"time"

	"propadmin/internal/handlers"
	"propadmin/internal/middleware"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      string
	RequestTimeout time.Duration
	// StaticDir/StaticURLPrefix заданы только для локального хранилища файлов.
	StaticDir       string
	StaticURLPrefix string
}

func InitRoutes(
	router *mux.Router,
	passwordH *handlers.PasswordHandler,
	imageH *handlers.ImageHandler,
	healthH *handlers.HealthHandler,
	opts Options,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recoverer)

	router.HandleFunc("/healthz", healthH.Health).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	if opts.StaticDir != "" {
		prefix := strings.TrimSuffix(opts.StaticURLPrefix, "/") + "/"
		router.PathPrefix(prefix).Handler(
			http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir))),
		).Methods(http.MethodGet, http.MethodHead)
	}

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Timeout(opts.RequestTimeout))

	// --- Публичные маршруты ---
	admin.HandleFunc("/forgot-password", passwordH.Forgot).Methods(http.MethodPost)
	admin.HandleFunc("/reset-password", passwordH.Reset).Methods(http.MethodPost)

	// --- Загрузка изображений: под JWT, если задан секрет ---
	uploads := admin.PathPrefix("/upload-images").Subrouter()
	if opts.JWTSecret != "" {
		uploads.Use(middleware.JWTAuth(opts.JWTSecret))
		uploads.Use(middleware.OnlyRole("admin"))
	}
	uploads.HandleFunc("/{property_id:[0-9]+}", imageH.Upload).Methods(http.MethodPost)
}
