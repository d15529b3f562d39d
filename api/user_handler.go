package api

import (
	"net/http"
	"strconv"

	"auctionhouse/models"
	"auctionhouse/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type UserHandler struct {
	users service.UserService
	lots  service.LotService
}

func NewUserHandler(users service.UserService, lots service.LotService) *UserHandler {
	return &UserHandler{users: users, lots: lots}
}

// TopUp handles POST /api/user/top-up
func (h *UserHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "TopUp", err)
		return
	}

	balance, err := h.users.TopUp(c.Request.Context(), actingUser(c), req.Amount)
	if err != nil {
		respondError(c, "TopUp", err)
		return
	}

	JSONResponse(c, http.StatusOK, BalanceResponse{Balance: balance}, "balance topped up")
	log.WithFields(log.Fields{
		"username": actingUser(c),
		"amount":   req.Amount,
	}).Info("TopUp: balance topped up")
}

// Transactions handles GET /api/user/transactions
func (h *UserHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.users.GetHistory(c.Request.Context(), actingUser(c), limit)
	if err != nil {
		respondError(c, "Transactions", err)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}

	JSONResponse(c, http.StatusOK, entries, "transactions retrieved")
}

// FollowedLots handles GET /api/user/followed-lots
func (h *UserHandler) FollowedLots(c *gin.Context) {
	lots, err := h.lots.FollowedLots(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, "FollowedLots", err)
		return
	}
	if lots == nil {
		lots = []*models.LotDetail{}
	}

	JSONResponse(c, http.StatusOK, lots, "followed lots retrieved")
}

// Reconcile handles GET /api/user/reconcile
func (h *UserHandler) Reconcile(c *gin.Context) {
	report, err := h.users.Reconcile(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, "Reconcile", err)
		return
	}

	JSONResponse(c, http.StatusOK, gin.H{
		"report":     report,
		"consistent": report.Consistent(),
	}, "balance reconciled")
}
