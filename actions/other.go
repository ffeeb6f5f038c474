package actions

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/httputils"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/logger"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

// Ping godoc
// swagger:route GET /ping misc ping
// Ping
//
// Ping the server
//
//	Produces:
//	- application/json
//
//	Responses:
//	  200: StringResp
func Ping(c *gin.Context) {
	c.JSON(OK, "pong")
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, httputils.RequestError{Error: message})
}

// abortWithLedgerError answers with the status matching the failure kind
func abortWithLedgerError(c *gin.Context, err error) {
	code := statusForError(err)
	l := getlog(c)
	kind := model.Kind(err)
	body := httputils.RequestError{Error: model.Reason(err)}
	if kind != nil {
		body.Kind = kind.Error()
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		body.Error = "not found"
	case code == GatewayTimeout:
		body.Error = "request timed out"
	case code == ServerError && kind == nil:
		l.Error().Err(err).Msg("Request failed")
		body.Error = "internal error"
	case code == ServerError:
		l.Error().Err(err).Msg("Ledger invariant violated")
	default:
		l.Debug().Err(err).Int("resp_code", code).Msg("Request rejected")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, body)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return NotFound
	case errors.Is(err, context.DeadlineExceeded):
		return GatewayTimeout
	case errors.Is(err, queries.ErrConflict):
		return Conflict
	}
	switch model.Kind(err) {
	case model.ErrValidation, model.ErrPriceInvalid:
		return ValidationFailed
	case model.ErrInsufficientBalance, model.ErrInsufficientPosition:
		return Conflict
	default:
		return ServerError
	}
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}

func getQueryAsInt(c *gin.Context, name string, def int) int {
	val := c.Query(name)
	if val == "" {
		return def
	}
	param, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return param
}

func getPagination(c *gin.Context) (int, int) {
	page := getQueryAsInt(c, "page", 1)
	limit := getQueryAsInt(c, "limit", 10)
	return page, limit
}
