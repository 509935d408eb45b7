// Command widgetctl serves the sample Widgets service and calls it through
// the generated-style client.
//
// Usage:
//
//	widgetctl [-config file] serve
//	widgetctl [-config file] get ID
//	widgetctl [-config file] put [-dry-run] [-token T] ID NAME [COLOR]
//	widgetctl [-config file] delete [-token T] ID
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	kithttp "github.com/mcosta74/opstack/adapters/http"
	natsadapter "github.com/mcosta74/opstack/adapters/nats"
	microadapter "github.com/mcosta74/opstack/adapters/nats/micro"
	"github.com/mcosta74/opstack/adapters/websocket"
	"github.com/mcosta74/opstack/config"
	"github.com/mcosta74/opstack/example/widgets"
	"github.com/mcosta74/opstack/interceptors"
	"github.com/mcosta74/opstack/internal/widgetserver"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
	"github.com/mcosta74/opstack/retry"
	"github.com/mcosta74/opstack/telemetry"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("widgetctl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: widgetctl [-config file] serve|get|put|delete ...")

func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("widgetctl", flag.ContinueOnError)
	configPath := fs.String("config", "widgetctl.yaml", "configuration file")
	traces := fs.Bool("trace", false, "export spans to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *traces {
		shutdown, err := telemetry.InitTracer("widgetctl", os.Stderr, logger)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "serve" {
		return serve(ctx, cfg, logger)
	}

	transport, closer, err := newTransport(ctx, cfg, *traces)
	if err != nil {
		return err
	}
	defer closer()

	client, err := newClient(cfg, transport, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var out any
	switch cmd {
	case "get":
		out, err = get(ctx, client, rest)
	case "put":
		out, err = put(ctx, client, rest)
	case "delete":
		out, err = del(ctx, client, rest)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return json.MarshalWrite(stdout, out, jsontext.WithIndent("  "))
}

func get(ctx context.Context, c *widgets.Client, args []string) (any, error) {
	if len(args) != 1 {
		return nil, errUsage
	}
	out, err := c.GetWidget(ctx, &widgets.GetWidgetInput{ID: args[0]})
	if err != nil {
		return nil, err
	}
	return out.Widget, nil
}

func put(ctx context.Context, c *widgets.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "validate without storing")
	token := fs.String("token", "", "client token")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 2 || fs.NArg() > 3 {
		return nil, errUsage
	}

	in := &widgets.PutWidgetInput{ID: fs.Arg(0), Name: fs.Arg(1), Color: fs.Arg(2), DryRun: *dryRun, ClientToken: *token}
	out, err := c.PutWidget(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.Widget, nil
}

func del(ctx context.Context, c *widgets.Client, args []string) (any, error) {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	token := fs.String("token", "", "client token")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, errUsage
	}

	if _, err := c.DeleteWidget(ctx, &widgets.DeleteWidgetInput{ID: fs.Arg(0), ClientToken: *token}); err != nil {
		return nil, err
	}
	return map[string]string{"deleted": fs.Arg(0)}, nil
}

func newTransport(ctx context.Context, cfg *config.Config, tracing bool) (ports.Transport, func(), error) {
	switch cfg.Transport {
	case config.TransportNATS:
		nc, err := connectNATS(cfg)
		if err != nil {
			return nil, nil, err
		}
		return natsadapter.NewTransport(nc, natsadapter.WithSubjectPrefix(cfg.NATS.SubjectPrefix), natsadapter.WithTimeout(cfg.Timeout)), nc.Close, nil

	case config.TransportWebSocket:
		ws, err := websocket.Dial(ctx, cfg.WebSocket.URL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", cfg.WebSocket.URL, err)
		}
		return ws, func() { _ = ws.Close() }, nil

	default:
		opts := []kithttp.ClientOption{kithttp.WithHTTPClient(&http.Client{Timeout: cfg.Timeout})}
		if tracing {
			opts = append(opts, kithttp.WithTracing())
		}
		return kithttp.NewClient(opts...), func() {}, nil
	}
}

func connectNATS(cfg *config.Config) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name("widgetctl")}
	if cfg.NATS.NKeySeed != "" {
		opt, err := natsadapter.NKeyOption([]byte(cfg.NATS.NKeySeed))
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	nc, err := nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.NATS.URL, err)
	}
	return nc, nil
}

func newClient(cfg *config.Config, transport ports.Transport, logger *slog.Logger) (*widgets.Client, error) {
	mode, err := cfg.ClientLogMode()
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	opts := []widgets.Option{
		widgets.WithEndpoint(cfg.Endpoint.Scheme, cfg.Endpoint.Host, cfg.Endpoint.Port),
		widgets.WithLogger(logger),
		widgets.WithLogMode(mode, level),
		widgets.WithRetryStrategy(retry.FixedStrategy{
			MaxAttempts: cfg.MaxAttempts,
			Delay:       200 * time.Millisecond,
			Retryable:   retryable,
		}),
	}
	if cfg.Compression.Enabled {
		opts = append(opts, widgets.WithCompression(cfg.Compression.Threshold))
	}
	if cfg.Signing.Seed != "" {
		signer, err := interceptors.NewNKeySigner([]byte(cfg.Signing.Seed))
		if err != nil {
			return nil, err
		}
		opts = append(opts, widgets.WithSigner(signer))
	}
	return widgets.New(transport, opts...)
}

// retryable retries transport failures and 5xx responses.
func retryable(err error) bool {
	var oe *middleware.OperationError
	if !errors.As(err, &oe) {
		return false
	}
	switch oe.Kind {
	case middleware.KindClient:
		return oe.Phase == middleware.PhaseTransport && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	case middleware.KindUnknown:
		return oe.Response != nil && oe.Response.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	opts := []widgetserver.Option{widgetserver.WithLogger(logger), widgetserver.WithTracing()}
	if cfg.Signing.Seed != "" {
		pub, err := publicKey(cfg.Signing.Seed)
		if err != nil {
			return err
		}
		opts = append(opts, widgetserver.WithSignedRequests(pub))
	}
	s := widgetserver.New(widgetserver.NewStore(), opts...)

	if cfg.Transport == config.TransportNATS {
		nc, err := connectNATS(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = nc.Drain() }()

		svc, err := micro.AddService(nc, micro.Config{
			Name:    widgets.ServiceName,
			Version: "1.0.0",
			Endpoint: &micro.EndpointConfig{
				Subject: cfg.NATS.SubjectPrefix + ".>",
				Handler: microadapter.NewHandler(s.Transport(), microadapter.WithErrorLogger(logger)),
			},
		})
		if err != nil {
			return fmt.Errorf("add micro service: %w", err)
		}
		defer svc.Stop()
		logger.Info("serving over NATS", slog.String("subject", cfg.NATS.SubjectPrefix+".>"))
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", cfg.Server.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
