package actions

import (
	"github.com/gin-gonic/gin"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
)

// DepositReq credits simulated funds
type DepositReq struct {
	Asset  string `json:"asset" form:"asset" example:"USD"`
	Amount string `json:"amount" form:"amount" example:"10000"`
}

// GetPortfolio godoc
// swagger:route GET /users/{user_id}/portfolio portfolio get_portfolio
// Get the balances and positions of a user
//
//	Responses:
//	  200: Portfolio
func (actions *Actions) GetPortfolio(c *gin.Context) {
	portfolio, err := actions.service.GetPortfolio(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(OK, portfolio)
}

// CreateDeposit godoc
// swagger:route POST /users/{user_id}/deposits portfolio add_deposit
// Fund an account with simulated money
//
//	Responses:
//	  201: Balance
//	  422: RequestErrorResp
func (actions *Actions) CreateDeposit(c *gin.Context) {
	req := DepositReq{}
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, BadRequest, "unable to parse deposit request")
		return
	}
	amount, err := conv.FromString(req.Amount)
	if err != nil {
		abortWithLedgerError(c, model.NewExecutionError(model.ErrValidation, "invalid amount %q", req.Amount))
		return
	}
	balance, err := actions.service.Deposit(c.Request.Context(), c.Param("user_id"), req.Asset, amount)
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(Created, balance)
}
