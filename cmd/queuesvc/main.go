package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/darts-services/configs"
	"github.com/avvvet/darts-services/internal/gamesvc/app"
	"github.com/avvvet/darts-services/internal/gamesvc/broker"
	gamecfg "github.com/avvvet/darts-services/internal/gamesvc/config"
	handlers "github.com/avvvet/darts-services/internal/gamesvc/handlers"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/avvvet/darts-services/internal/monitor"
	natscli "github.com/avvvet/darts-services/internal/nats"
)

// queuesvc pairs the shared MongoDB queue. Run one per deployment.
const SERVICE_NAME = "queue"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := gamecfg.Load()
	ctx := context.Background()

	if cfg.MongoURI == "" {
		log.Fatal("MONGODB_URI is required, without it every game service pairs its own queue")
	}

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
	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	metrics := monitor.NewMetrics("x01_queue")
	services := app.NewServices(st, queue, broker.NewSender(n.Conn, cfg.DeliveryTimeout), metrics, matchmaking.PolicyFor(cfg.MatchPolicy))

	sched, err := matchmaking.StartScheduler(services.Matchmaker, cfg.QueueInterval, cfg.ActionTimeout)
	if err != nil {
		log.Fatalf("Failed to start matchmaking scheduler: %v", err)
	}
	log.Infof("matchmaking every %s with %s policy", cfg.QueueInterval, cfg.MatchPolicy)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)

	h := handlers.NewHandler(SERVICE_NAME, cfg.QueuePort, metrics, nil)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	server := &http.Server{
		Addr:         ":" + cfg.QueuePort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := sched.Shutdown(); err != nil {
		log.Errorf("Error stopping scheduler: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
