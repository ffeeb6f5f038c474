package server

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/actions"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/logger"
)

func (srv *server) router() *gin.Engine {
	a := srv.actions

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}

	r.Use(cors.New(corsConfig)) // Allow requests from anywhere
	r.Use(gin.Recovery())       // Recovery middleware recovers from any panics and writes a 500 if there was one.
	r.Use(logger.SetLogger(logger.Config{
		SkipPath:       []string{"/ping"},
		SkipPathRegexp: regexp.MustCompile("^/debug/"),
	}))

	r.GET("/ping", actions.Ping)

	orders := r.Group("/orders")
	{
		orders.POST("", a.CreateOrder)
		orders.GET("/:order_id", a.GetOrder)
		orders.GET("/:order_id/trades", a.GetOrderTrades)
	}

	users := r.Group("/users/:user_id")
	{
		users.GET("/orders", a.GetUserOrders)
		users.GET("/portfolio", a.GetPortfolio)
		users.POST("/deposits", a.CreateDeposit)
	}

	return r
}

func (srv *server) ListenToRequests() {
	log.Info().Str("worker", "http_listen_to_requests").Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("HTTP Listen to requests - stopped")

	port := srv.config.Server.API.Port
	if err := srv.HTTP.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			log.Error().Err(err).Str("section", "server").Str("action", "ListenToRequests").Msgf("Unable to listen %d port", port)
		}
	}
}

func (srv *server) newHTTPServer() *http.Server {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.config.Server.API.Port),
		Handler: srv.router(),
	}
	httpServer.SetKeepAlivesEnabled(srv.config.Server.API.KeepAlive)
	return httpServer
}
