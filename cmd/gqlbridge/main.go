package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanpama/gqlbridge/internal/eventbus"
	"github.com/hanpama/gqlbridge/internal/executor"
	"github.com/hanpama/gqlbridge/internal/introspection"
	"github.com/hanpama/gqlbridge/internal/otel"
	"github.com/hanpama/gqlbridge/internal/resolve"
	"github.com/hanpama/gqlbridge/internal/resolvers"
	"github.com/hanpama/gqlbridge/internal/schema"
	"github.com/hanpama/gqlbridge/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gqlbridge",
		Short:         "GraphQL engine with pluggable exception resolution",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd(), newPrintSchemaCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string
	flags := defaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a schema-first development server over the given SDL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			// Explicit flags win over file values.
			if cmd.Flags().Changed("schema.root") {
				cfg.Schema.Root = flags.Schema.Root
			}
			if cmd.Flags().Changed("server.addr") {
				cfg.Server.Addr = flags.Server.Addr
			}
			if cmd.Flags().Changed("server.pretty") {
				cfg.Server.Pretty = flags.Server.Pretty
			}
			if cmd.Flags().Changed("server.timeout") {
				cfg.Server.Timeout = flags.Server.Timeout
			}
			if cmd.Flags().Changed("otel.endpoint") {
				cfg.Otel.Endpoint = flags.Otel.Endpoint
			}
			if cmd.Flags().Changed("otel.service") {
				cfg.Otel.Service = flags.Otel.Service
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&flags.Schema.Root, "schema.root", flags.Schema.Root, "GraphQL schema root directory")
	cmd.Flags().StringVar(&flags.Server.Addr, "server.addr", flags.Server.Addr, "HTTP listen address")
	cmd.Flags().BoolVar(&flags.Server.Pretty, "server.pretty", flags.Server.Pretty, "Pretty-print JSON responses")
	cmd.Flags().DurationVar(&flags.Server.Timeout, "server.timeout", flags.Server.Timeout, "Per-request timeout")
	cmd.Flags().StringVar(&flags.Otel.Endpoint, "otel.endpoint", flags.Otel.Endpoint, "OTLP collector endpoint")
	cmd.Flags().StringVar(&flags.Otel.Service, "otel.service", flags.Otel.Service, "OpenTelemetry service name")
	return cmd
}

func serve(ctx context.Context, cfg config) error {
	sources, err := loadSDL(cfg.Schema.Root)
	if err != nil {
		return err
	}
	sch, err := schema.BuildFromSDL(sources...)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	// The development server resolves fields by source projection only.
	rt := resolvers.NewMap()
	rt.Annotate(sch)

	var runtime executor.Runtime = rt
	if cfg.Schema.Introspection {
		wrapped := introspection.Wrap(runtime, sch)
		runtime = wrapped.Runtime
		sch = wrapped.Schema
	}

	// Raised errors are resolved to client-safe messages; the raw message
	// stays in extensions for development use.
	classifier := resolve.From(func(raised error, env *executor.FieldEnvironment) (*executor.GraphQLError, error) {
		return &executor.GraphQLError{
			Message: "Internal error while resolving " + env.ObjectType + "." + env.Field,
			Path:    env.Path,
			Extensions: map[string]any{
				"classification": "INTERNAL_ERROR",
				"cause":          raised.Error(),
			},
		}, nil
	})

	opts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithExceptionResolvers(classifier),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if cfg.Server.MaxBodyBytes > 0 {
		opts = append(opts, server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	if len(cfg.Server.MetadataHeaders) > 0 {
		opts = append(opts, server.WithMetadataHeaders(cfg.Server.MetadataHeaders...))
	}

	h, err := server.New(runtime, sch, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: h}
	log.Printf("listening on %s", cfg.Server.Addr)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newCheckCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the SDL under the schema root",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := loadSDL(root)
			if err != nil {
				return err
			}
			if _, err := schema.BuildFromSDL(sources...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "schema.root", ".", "GraphQL schema root directory")
	return cmd
}

func newPrintSchemaCmd() *cobra.Command {
	var root, out string
	cmd := &cobra.Command{
		Use:   "print-schema",
		Short: "Merge the SDL under the schema root and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := loadSDL(root)
			if err != nil {
				return err
			}
			sch, err := schema.BuildFromSDL(sources...)
			if err != nil {
				return err
			}
			rendered := schema.Render(sch)
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
			return os.WriteFile(out, []byte(rendered), 0o644)
		},
	}
	cmd.Flags().StringVar(&root, "schema.root", ".", "GraphQL schema root directory")
	cmd.Flags().StringVar(&out, "out", "", "Write merged SDL to file instead of stdout")
	return cmd
}
