package handler

import (
	"context"
	"net/http"

	"github.com/dulfinne/User-service/shared/cqrs"
	"github.com/dulfinne/User-service/shared/middleware"
	"github.com/dulfinne/User-service/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.AccountView, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.AccountView, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
	CreditAccount(context.Context, cqrs.CreditAccountCommand) (*models.AccountView, error)
	DebitAccount(context.Context, cqrs.DebitAccountCommand) (*models.AccountView, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]*models.AccountView, error)
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	GetBalance(context.Context, cqrs.GetBalanceQuery) (*models.BalanceView, error)
}

// AccountHandler routes requests to the command or query service as appropriate.
type AccountHandler struct {
	commands     AccountCommander
	queries      AccountQuerier
	validator    *middleware.Validator
	defaultLimit int
}

type AccountRequest struct {
	Name    string `json:"name" validate:"required,notblank"`
	Surname string `json:"surname" validate:"required,notblank"`
}

type MoneyRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,amountmin,amountmax"`
}

type ListRequest struct {
	Offset *int `form:"offset" validate:"omitempty,gte=0"`
	Limit  *int `form:"limit" validate:"omitempty,gte=1,pagelimit"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, validator *middleware.Validator, defaultLimit int) *AccountHandler {
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &AccountHandler{
		commands:     commands,
		queries:      queries,
		validator:    validator,
		defaultLimit: defaultLimit,
	}
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	if validationErrors := h.validator.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	q := cqrs.ListAccountsQuery{Offset: 0, Limit: h.defaultLimit}
	if req.Offset != nil {
		q.Offset = *req.Offset
	}
	if req.Limit != nil {
		q.Limit = *req.Limit
	}

	views, err := h.queries.ListAccounts(c.Request.Context(), q)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *AccountHandler) GetMe(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{Username: username})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) GetBalance(c *gin.Context) {
	balance, err := h.queries.GetBalance(c.Request.Context(), cqrs.GetBalanceQuery{Username: c.Param("username")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}
	req, ok := h.bindAccountRequest(c)
	if !ok {
		return
	}

	view, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		Username: username,
		Name:     req.Name,
		Surname:  req.Surname,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}
	req, ok := h.bindAccountRequest(c)
	if !ok {
		return
	}

	view, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		Username: username,
		Name:     req.Name,
		Surname:  req.Surname,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}

	if err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{Username: username}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) CreditAccount(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}
	amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	view, err := h.commands.CreditAccount(c.Request.Context(), cqrs.CreditAccountCommand{Username: username, Amount: amount})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) DebitAccount(c *gin.Context) {
	username, ok := h.username(c)
	if !ok {
		return
	}
	amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	view, err := h.commands.DebitAccount(c.Request.Context(), cqrs.DebitAccountCommand{Username: username, Amount: amount})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) username(c *gin.Context) (string, bool) {
	username, ok := middleware.GetUsername(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Missing caller identity")
		return "", false
	}
	return username, true
}

func (h *AccountHandler) bindAccountRequest(c *gin.Context) (AccountRequest, bool) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if validationErrors := h.validator.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return req, false
	}
	return req, true
}

func (h *AccountHandler) bindAmount(c *gin.Context) (decimal.Decimal, bool) {
	var req MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return decimal.Zero, false
	}
	if validationErrors := h.validator.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return decimal.Zero, false
	}
	return *req.Amount, true
}
