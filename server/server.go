package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/actions"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/apps/prices"
	cache "gitlab.com/paramountdax-exchange/papertrade_ledger/cache/portfolio"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/events"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/monitor"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/net/kafka"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/net/redis"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries/memory"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service"
)

// Server interface
type Server interface {
	Listen()
}

type server struct {
	config  config.Config
	actions *actions.Actions
	service *service.Service
	redis   *redis.Client
	kafka   *kafka.Sink
	prices  *prices.App
	ctx     context.Context
	close   context.CancelFunc
	wait    *sync.WaitGroup
	HTTP    *http.Server
}

func openStore(cfg config.DatabaseClusterConfig) queries.Store {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Str("section", "server").Msg("Using the in-memory store, data is lost on exit")
		return memory.New()
	}
	repo, err := queries.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("section", "server").Msg("Unable to connect to database")
	}
	return repo
}

// NewServer constructor
func NewServer(cfg config.Config) Server {
	ctx, close := context.WithCancel(context.Background())
	srv := &server{
		config: cfg,
		ctx:    ctx,
		close:  close,
		wait:   &sync.WaitGroup{},
	}

	store := openStore(cfg.Database)

	var portfolioCache *cache.Cache
	if cfg.Redis.Enabled {
		srv.redis = redis.NewClient(cfg.Redis)
		if err := srv.redis.Connect(); err != nil {
			log.Fatal().Err(err).Str("section", "server").Msg("Unable to connect to redis")
		}
		portfolioCache = cache.New(srv.redis, cfg.Redis.TTL)
	}

	sinks := []events.Sink{}
	if cfg.Kafka.Enabled {
		sink, err := kafka.NewSink(cfg.Kafka)
		if err != nil {
			log.Fatal().Err(err).Str("section", "server").Msg("Unable to init kafka writers")
		}
		srv.kafka = sink
		sinks = append(sinks, sink)
	}

	dataServices, err := service.NewService(cfg, store, portfolioCache, sinks...)
	if err != nil {
		log.Fatal().Err(err).Str("section", "server").Msg("Unable to init ledger service")
	}
	if cfg.Prices.Enabled {
		srv.prices = prices.NewApp(cfg.Prices)
		dataServices.SetPriceOracle(srv.prices)
	}
	srv.service = dataServices
	srv.actions = actions.NewActions(cfg, dataServices)
	srv.HTTP = srv.newHTTPServer()
	return srv
}

// Listen for requests until a termination signal is received
func (srv *server) Listen() {
	srv.wait.Add(1)
	go srv.service.ProcessEvents(srv.ctx, srv.wait)
	if srv.prices != nil {
		srv.wait.Add(1)
		go srv.prices.Start(srv.ctx, srv.wait)
	}
	srv.service.StartCrons()

	// start the http server
	go srv.ListenToRequests()
	go monitor.LoopProfilingServer(srv.config.Server.Monitoring)

	srv.stopOnSignal()
}

func (srv *server) stopOnSignal() {
	// listen for termination signals
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("signal", sig.String()).Msg("Shutting down services")
	srv.closeApp(5 * time.Second)
}

func (srv *server) closeApp(timeout time.Duration) {
	// define a timeout in which the graceful shutdown procedure should happen before forcing the shutdown
	timeoutFunc := time.AfterFunc(timeout, func() {
		log.Printf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds())
		os.Exit(0)
	})
	defer timeoutFunc.Stop()

	monitor.ShutdownServer()
	if err := srv.HTTP.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to shutdown HTTP server")
	}

	srv.service.CloseCrons()

	// drain the pending events before closing the sinks
	srv.close()
	srv.wait.Wait()

	if srv.kafka != nil {
		if err := srv.kafka.Close(); err != nil {
			log.Error().Err(err).Str("section", "server").Msg("Unable to close kafka writers")
		}
	}
	if srv.redis != nil {
		if err := srv.redis.Disconnect(); err != nil {
			log.Error().Err(err).Str("section", "server").Msg("Unable to disconnect from redis")
		}
	}
	// make sure database connection is closed on program exit
	srv.service.Close()

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("state", "complete").Msg("All workers terminated")
}
