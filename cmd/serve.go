package cmd

import (
	"database/sql"
	"net"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/controller"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the contacts backend.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	tokens := service.NewTokenCodec(cfg)
	passwords := service.NewPasswordHasher()

	var mailer service.Mailer = service.LogMailer{}
	if cfg.Mail.Enabled() {
		mailer = service.NewSMTPMailer(cfg.Mail)
	}

	authService := service.NewAuthService(db, userRepo, tokens, passwords, mailer, cfg)
	contactService := service.NewContactService(contactRepo)
	guard := service.NewAuthGuard(tokens, userRepo)

	startHTTPServer(cfg, db, authService, contactService, guard)
}

func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, falling back to info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func startHTTPServer(
	cfg *config.Config,
	db *sql.DB,
	authService *service.AuthService,
	contactService *service.ContactService,
	guard *service.AuthGuard,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(cfg.RateLimitRequests) / cfg.RateLimitWindow.Seconds()),
			Burst:     cfg.RateLimitRequests,
			ExpiresIn: 3 * time.Minute,
		}),
	}))

	authController := controller.NewAuthController(authService)
	contactController := controller.NewContactController(contactService)
	healthController := controller.NewHealthController(db)
	authMiddleware := middleware.NewAuthMiddleware(guard)

	e.GET("/api/healthchecker", healthController.Check)

	auth := e.Group("/api/auth")
	auth.POST("/signup", authController.Signup)
	auth.POST("/login", authController.Login)
	auth.GET("/refresh_token", authController.Refresh)
	auth.GET("/confirmed_email/:token", authController.ConfirmEmail)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.POST("/logout", authController.Logout)

	contacts := e.Group("/api/contacts")
	contacts.Use(authMiddleware.RequireAuth)
	contacts.POST("", contactController.Create)
	contacts.GET("", contactController.List)
	contacts.GET("/search", contactController.Search)
	contacts.GET("/upcoming_birthdays", contactController.UpcomingBirthdays)
	contacts.GET("/:id", contactController.Get)
	contacts.PUT("/:id", contactController.Update)
	contacts.DELETE("/:id", contactController.Delete)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
