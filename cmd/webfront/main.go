package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teacherlink/webfront/internal/infra/config"
	"github.com/teacherlink/webfront/internal/infra/logging"
	"github.com/teacherlink/webfront/internal/infra/transport/http"
	"github.com/teacherlink/webfront/internal/repo/session"
	"github.com/teacherlink/webfront/internal/svc/authsvc"
	"github.com/teacherlink/webfront/internal/svc/authsvc/authclient"
	"github.com/teacherlink/webfront/internal/svc/websvc"
	"github.com/teacherlink/webfront/internal/svc/websvc/dataclient"
)

const (
	appName = "teacherlink"
	svcName = "webfront"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig           `envPrefix:"LOG_"`
	Auth    authsvc.AuthConfig             `envPrefix:"AUTH_"`
	HTTP    websvc.HTTPTransportConfig     `envPrefix:"HTTP_"`
	Backend http.JSONClientConfig          `envPrefix:"BACKEND_"`
	Session session.SQLiteRepositoryConfig `envPrefix:"SESSION_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := config.LoadDotenv(".env", "../.env"); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.webfront")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	repoFactory, err := session.RepositoryFactoryFor(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("session repository factory: %w", err)
	}

	authClient, err := authclient.NewHTTPClient(authclient.HTTPClientConfig{JSONClientConfig: cfg.Backend}, nil)
	if err != nil {
		return fmt.Errorf("new auth client: %w", err)
	}

	dataClient, err := dataclient.NewHTTPClient(dataclient.HTTPClientConfig{JSONClientConfig: cfg.Backend}, nil)
	if err != nil {
		return fmt.Errorf("new data client: %w", err)
	}

	sessions, err := authsvc.NewManager(repoFactory, authClient, cfg.Auth)
	if err != nil {
		return fmt.Errorf("new session manager: %w", err)
	}

	defer func() {
		if closeErr := sessions.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close session manager: %w", closeErr)
		}
	}()

	go sessions.Run(ctx)

	httpTransport, err := websvc.NewHTTPTransport(sessions, authClient, dataClient, cfg.HTTP)
	if err != nil {
		return fmt.Errorf("new http transport: %w", err)
	}

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
