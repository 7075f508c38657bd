package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-co-op/gocron/v2"

	config "github.com/avvvet/darts-services/configs"
	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/gamesvc/app"
	"github.com/avvvet/darts-services/internal/gamesvc/broker"
	gamecfg "github.com/avvvet/darts-services/internal/gamesvc/config"
	handlers "github.com/avvvet/darts-services/internal/gamesvc/handlers"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/avvvet/darts-services/internal/monitor"
	nats "github.com/avvvet/darts-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := gamecfg.Load()
	ctx := context.Background()

	st, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	queue, closeQueue, err := app.OpenQueue(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open matchmaking queue: %v", err)
	}
	defer closeQueue()

	// Connect to NATS
	n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	metrics := monitor.NewMetrics("x01_game")
	services := app.NewServices(st, queue, broker.NewSender(n.Conn, cfg.DeliveryTimeout), metrics, matchmaking.PolicyFor(cfg.MatchPolicy))

	// init socket message broker
	b := broker.NewBroker(n.Conn, services.Users, services.Games, services.Queue, services.Notifier, metrics, cfg.ActionTimeout)

	// subscribe to socket service, load balanced across game instances
	sub, err := b.QueueSubscribSocketService(comm.SubjectSocketService, comm.QueueGameService)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(1)
	}

	// an in-memory queue only exists here, so this process pairs it
	var sched gocron.Scheduler
	if cfg.MongoURI == "" {
		sched, err = matchmaking.StartScheduler(services.Matchmaker, cfg.QueueInterval, cfg.ActionTimeout)
		if err != nil {
			log.Fatalf("Failed to start matchmaking scheduler: %v", err)
		}
		log.Infof("matchmaking in process every %s", cfg.QueueInterval)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(SERVICE_NAME, cfg.GamePort, metrics, func() error {
		if !n.Conn.IsConnected() {
			return errors.New("nats is not connected")
		}
		return nil
	})
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.GamePort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sub.Drain()
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Errorf("Error stopping scheduler: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
