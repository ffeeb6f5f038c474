package actions

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/execution"
)

// OrderReq is the body of a market order placement
type OrderReq struct {
	UserID     string           `json:"user_id" form:"user_id" example:"7c1f0a"`
	Side       model.MarketSide `json:"side" form:"side" example:"buy"`
	BaseAsset  string           `json:"base_asset" form:"base_asset" example:"BTC"`
	QuoteAsset string           `json:"quote_asset" form:"quote_asset" example:"USD"`
	Size       string           `json:"size" form:"size" example:"0.5"`
	// Price is the execution price; when empty the configured price feed is used
	Price string `json:"price" form:"price" example:"27000.12"`
}

func (req OrderReq) toPlaceRequest() (execution.PlaceRequest, error) {
	size, err := conv.FromString(req.Size)
	if err != nil {
		return execution.PlaceRequest{}, model.NewExecutionError(model.ErrValidation, "invalid size %q", req.Size)
	}
	placeReq := execution.PlaceRequest{
		UserID:     req.UserID,
		Side:       req.Side,
		BaseAsset:  req.BaseAsset,
		QuoteAsset: req.QuoteAsset,
		Size:       size,
	}
	if strings.TrimSpace(req.Price) == "" {
		return placeReq, nil
	}
	price, err := conv.FromString(req.Price)
	if err != nil {
		return execution.PlaceRequest{}, model.NewExecutionError(model.ErrPriceInvalid, "invalid price %q", req.Price)
	}
	placeReq.Price = price
	return placeReq, nil
}

// CreateOrder godoc
// swagger:route POST /orders orders add_order
// Create order
//
// Execute a market order at the supplied price. The order is either filled completely or rejected.
//
//	Consumes:
//	- application/json
//	- multipart/form-data
//
//	Produces:
//	- application/json
//
//	Responses:
//	  201: Result
//	  409: RequestErrorResp
//	  422: RequestErrorResp
func (actions *Actions) CreateOrder(c *gin.Context) {
	req := OrderReq{}
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, BadRequest, "unable to parse order request")
		return
	}
	placeReq, err := req.toPlaceRequest()
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	result, err := actions.service.Place(c.Request.Context(), placeReq)
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(Created, result)
}

// GetOrder godoc
// swagger:route GET /orders/{order_id} orders get_order
// Get order
//
//	Responses:
//	  200: Order
//	  404: RequestErrorResp
func (actions *Actions) GetOrder(c *gin.Context) {
	order, err := actions.service.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(OK, order)
}

// GetOrderTrades godoc
// swagger:route GET /orders/{order_id}/trades orders get_order_trades
// Get the trades of an order
func (actions *Actions) GetOrderTrades(c *gin.Context) {
	trades, err := actions.service.GetTrades(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(OK, trades)
}

// GetUserOrders godoc
// swagger:route GET /users/{user_id}/orders orders get_user_orders
// List the orders of a user, newest first
//
//	Responses:
//	  200: OrderList
func (actions *Actions) GetUserOrders(c *gin.Context) {
	page, limit := getPagination(c)
	list, err := actions.service.ListOrders(c.Request.Context(), c.Param("user_id"), limit, page)
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(OK, list)
}
