package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/reqkit/component"
	"github.com/kbukum/reqkit/envelope"
	"github.com/kbukum/reqkit/httpclient"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/version"
)

func newRootCommand() *cobra.Command {
	flags := &flagValues{}
	root := &cobra.Command{
		Use:   "reqkit",
		Short: "Issue HTTP requests with bounded retry and cancellation",
		Example: strings.TrimSpace(`
  reqkit get https://api.example.com/users/1 https://api.example.com/users/2 --retry 2
  reqkit post /orders --base-url https://api.example.com --data '{"sku":"A1"}' -H 'X-Team: core'
  reqkit get /status --config reqkit.yml --envelope`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root.PersistentFlags())

	root.AddCommand(
		newRequestCommand(http.MethodGet, flags),
		newRequestCommand(http.MethodDelete, flags),
		newBodyCommand(http.MethodPost, flags),
		newBodyCommand(http.MethodPut, flags),
		newBodyCommand(http.MethodPatch, flags),
		newVersionCommand(),
	)
	return root
}

func newRequestCommand(method string, flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   strings.ToLower(method) + " URL...",
		Short: method + " one or more URLs concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequests(cmd, flags, method, args, nil)
		},
	}
}

func newBodyCommand(method string, flags *flagValues) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " URL...",
		Short: method + " a body to one or more URLs concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runRequests(cmd, flags, method, args, body)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body; '@file' reads a file, '-' reads stdin")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

// readBody resolves --data. JSON text is sent as JSON; anything else as raw bytes.
func readBody(data string, stdin io.Reader) (any, error) {
	var raw []byte
	switch {
	case data == "":
		return nil, nil
	case data == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		raw = b
	default:
		raw = []byte(data)
	}
	if json.Valid(raw) {
		return json.RawMessage(raw), nil
	}
	return raw, nil
}

type outcome struct {
	url    string
	status int
	body   []byte
	err    error
}

func runRequests(cmd *cobra.Command, flags *flagValues, method string, urls []string, body any) error {
	cfg, err := loadConfig(cmd.Flags(), flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)

	opts := []httpclient.Option{httpclient.WithLogger(log.WithComponent("httpclient"))}
	shutdown, telemetryOpts, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()
	opts = append(opts, telemetryOpts...)

	reg := component.NewRegistry(component.WithLogger(log.WithComponent("component")))
	client := httpclient.NewComponent(cfg.Client, opts...)
	if err := reg.Register(client); err != nil {
		return err
	}
	if err := reg.StartAll(ctx); err != nil {
		return err
	}
	defer func() { _ = reg.StopAll(context.Background()) }()

	// Interrupts abort every call still in flight rather than the process.
	// Calls hang off their own context so that a call registering after
	// CancelAll still sees the abort, with ErrCanceled as the cause.
	callCtx, abort := context.WithCancelCause(context.WithoutCancel(ctx))
	defer abort(nil)
	if ctx.Err() != nil {
		abort(httpclient.ErrCanceled)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			abort(httpclient.ErrCanceled)
			if n := client.Client().CancelAll(); n > 0 {
				log.Warn("interrupted", logger.Fields("aborted", n))
			}
		case <-done:
		}
	}()

	results := make([]outcome, len(urls))
	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for i, url := range urls {
		g.Go(func() error {
			if callCtx.Err() != nil {
				results[i] = outcome{url: url, err: httpclient.NewCanceledError(context.Cause(callCtx))}
				return nil
			}
			results[i] = issue(callCtx, client.Client(), flags.envelope, httpclient.Request{
				Method: method,
				URL:    url,
				Body:   body,
			})
			return nil
		})
	}
	_ = g.Wait()

	return report(cmd.OutOrStdout(), results)
}

func issue(ctx context.Context, c *httpclient.Client, unwrap bool, req httpclient.Request) outcome {
	out := outcome{url: req.URL}
	resp, err := c.Do(ctx, req)
	if err != nil {
		out.err = err
		out.status = httpclient.StatusCode(err)
		return out
	}
	out.status = resp.StatusCode
	out.body = resp.Body
	if unwrap {
		result, err := envelope.Decode[json.RawMessage](resp)
		if err != nil {
			out.err = err
			return out
		}
		out.body = result
	}
	return out
}

// report prints one line per URL in argument order and fails if any call did.
func report(w io.Writer, results []outcome) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			appErr := envelope.AsAppError(r.err)
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.url, appErr.Code, appErr.Message)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.url, r.status, strings.TrimSpace(string(r.body)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

// setupTelemetry installs OTLP tracing and metrics when an endpoint is set.
func setupTelemetry(ctx context.Context, cfg *appConfig) (func(), []httpclient.Option, error) {
	if cfg.Telemetry.Endpoint == "" {
		return func() {}, nil, nil
	}

	tcfg := observability.DefaultTracerConfig(cfg.Name)
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.Insecure = cfg.Telemetry.Insecure
	tcfg.SampleRate = cfg.Telemetry.SampleRate
	tcfg.Environment = cfg.Environment
	tcfg.ServiceVersion = version.Get().Short()
	tp, err := observability.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}

	mcfg := observability.DefaultMeterConfig(cfg.Name)
	mcfg.Endpoint = cfg.Telemetry.Endpoint
	mcfg.Insecure = cfg.Telemetry.Insecure
	mcfg.Environment = cfg.Environment
	mcfg.ServiceVersion = tcfg.ServiceVersion
	mp, err := observability.InitMeter(ctx, mcfg)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := observability.NewClientMetrics(observability.Meter(observability.TracerName))
	if err != nil {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
		return nil, nil, err
	}

	shutdown := func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	}
	return shutdown, []httpclient.Option{httpclient.WithTracing(), httpclient.WithMetrics(metrics)}, nil
}
