package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"motomarket-chat/internal/auth"
	"motomarket-chat/internal/chat"
	"motomarket-chat/internal/handlers"
	"motomarket-chat/internal/observability"
	"motomarket-chat/internal/rabbitmq"
	"motomarket-chat/internal/telemetry"
	"motomarket-chat/internal/ws"
)

const (
	auditRoutingKey = "audit.chat"
	shutdownTimeout = 10 * time.Second
)

var serveDebug bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP and WebSocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "expose /debug routes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	logger.Info("event publisher ready", "mode", rabbitmq.PublisherMode(publisher), "reason", rabbitmq.PublisherNoopReason(publisher))

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Environment, logger)

	registry := ws.NewRegistry(logger)
	svc := chat.NewService(chat.Deps{
		Rooms:       st.rooms,
		Messages:    st.messages,
		Users:       st.users,
		Vehicles:    st.vehicles,
		Notifier:    ws.NewBroadcaster(registry, logger),
		Events:      publisher,
		Logger:      logger,
		ServiceName: cfg.ServiceName,
	})

	wsHandler := ws.NewHandler(registry, svc, tokens, publisher, ws.HandlerConfig{
		FrameRate:      cfg.WSFrameRate,
		FrameBurst:     cfg.WSFrameBurst,
		SendBuffer:     cfg.WSSendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
		ServiceName:    cfg.ServiceName,
	}, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		Service:       svc,
		Connections:   registry,
		Tokens:        tokens,
		Audit:         audit,
		WebSocket:     wsHandler.Handle,
		Logger:        logger,
		ServiceName:   cfg.ServiceName,
		HTTPRateLimit: cfg.HTTPRateLimit,
		Debug:         serveDebug || cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat service listening", "addr", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by the server.
	registry.Shutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	return nil
}
