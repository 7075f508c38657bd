// Package app assembles the game services from configuration. gamesvc and queuesvc share it.
package app

import (
	"context"
	"fmt"

	"github.com/avvvet/darts-services/internal/connection"
	"github.com/avvvet/darts-services/internal/db"
	"github.com/avvvet/darts-services/internal/gamestate"
	"github.com/avvvet/darts-services/internal/gamesvc/config"
	"github.com/avvvet/darts-services/internal/gamesvc/service"
	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/gamesvc/store/dynamo"
	"github.com/avvvet/darts-services/internal/matchmaking"
	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/avvvet/darts-services/internal/notify"
	log "github.com/sirupsen/logrus"
)

// OpenStore connects the backend named by cfg.StoreDriver. The returned func releases it.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := store.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("pg connection established successfully")
		return pg, pg.Close, nil
	case config.StoreDynamoDB:
		d, err := dynamo.NewFromEnv(ctx, cfg.AWSRegion, cfg.DynamoDBTable)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("using dynamodb table %s", cfg.DynamoDBTable)
		return d, func() {}, nil
	case config.StoreMemory:
		log.Warn("using the in-memory store, state is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// OpenQueue connects the matchmaking queue: MongoDB when cfg.MongoURI is set, memory otherwise.
func OpenQueue(ctx context.Context, cfg config.Config) (matchmaking.QueueStore, func(), error) {
	if cfg.MongoURI == "" {
		return matchmaking.NewMemoryQueue(), func() {}, nil
	}

	database, err := db.ConnectToDB(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	q, err := matchmaking.NewMongoQueue(ctx, database)
	if err != nil {
		db.Disconnect(database)
		return nil, nil, err
	}
	return q, func() {
		if err := db.Disconnect(database); err != nil {
			log.Errorf("Error disconnecting mongodb: %s", err)
		}
	}, nil
}

// Services is the wired action layer.
type Services struct {
	Registry   *connection.Registry
	Notifier   *notify.Notifier
	Users      *service.UserService
	Games      *service.GameService
	Queue      *service.QueueService
	Matchmaker *matchmaking.Matchmaker
}

func NewServices(st store.Store, queue matchmaking.QueueStore, sender notify.Sender, metrics *monitor.Metrics, policy matchmaking.Policy) *Services {
	registry := connection.NewRegistry(st, metrics)
	notifier := notify.NewNotifier(sender, registry, metrics)
	games := service.NewGameService(gamestate.NewCache(st), registry, notifier, service.NewGameLocks())
	matchmaker := matchmaking.NewMatchmaker(queue, games, policy, metrics)

	return &Services{
		Registry:   registry,
		Notifier:   notifier,
		Users:      service.NewUserService(registry, service.NewGamePlayerService(st)),
		Games:      games,
		Queue:      service.NewQueueService(registry, matchmaker),
		Matchmaker: matchmaker,
	}
}
