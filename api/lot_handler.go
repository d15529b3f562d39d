package api

import (
	"errors"
	"net/http"
	"strconv"

	"auctionhouse/models"
	"auctionhouse/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const recentLotCount = 8

type LotHandler struct {
	lots service.LotService
	bids service.BidService
}

func NewLotHandler(lots service.LotService, bids service.BidService) *LotHandler {
	return &LotHandler{lots: lots, bids: bids}
}

// lotID parses the :id path parameter, writing a 400 when it is malformed
func lotID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		JSONError(c, http.StatusBadRequest, errors.New("lot id must be a positive integer"), "invalid lot id")
		return 0, false
	}
	return id, true
}

// List handles GET /lots?category=&page=&size=
func (h *LotHandler) List(c *gin.Context) {
	var categoryID *int64
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			JSONError(c, http.StatusBadRequest, err, "invalid category")
			return
		}
		categoryID = &id
	}
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	result, err := h.lots.ListLots(c.Request.Context(), categoryID, page, size)
	if err != nil {
		respondError(c, "ListLots", err)
		return
	}
	if result.Lots == nil {
		result.Lots = []*models.LotDetail{}
	}

	JSONResponse(c, http.StatusOK, result, "lots retrieved")
}

// Recent handles GET /lots/recent
func (h *LotHandler) Recent(c *gin.Context) {
	lots, err := h.lots.LatestLots(c.Request.Context(), recentLotCount)
	if err != nil {
		respondError(c, "RecentLots", err)
		return
	}
	if lots == nil {
		lots = []*models.LotDetail{}
	}

	JSONResponse(c, http.StatusOK, lots, "lots retrieved")
}

// Mine handles GET /lots/user
func (h *LotHandler) Mine(c *gin.Context) {
	lots, err := h.lots.UserLots(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, "UserLots", err)
		return
	}
	if lots == nil {
		lots = []*models.LotDetail{}
	}

	JSONResponse(c, http.StatusOK, lots, "lots retrieved")
}

// Get handles GET /lots/:id
func (h *LotHandler) Get(c *gin.Context) {
	id, ok := lotID(c)
	if !ok {
		return
	}

	lot, err := h.lots.GetLot(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetLot", err)
		return
	}

	JSONResponse(c, http.StatusOK, lot, "lot retrieved")
}

// Bids handles GET /lots/:id/bids
func (h *LotHandler) Bids(c *gin.Context) {
	id, ok := lotID(c)
	if !ok {
		return
	}

	bids, err := h.lots.GetBids(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetBids", err)
		return
	}
	if bids == nil {
		bids = []*models.Bid{}
	}

	JSONResponse(c, http.StatusOK, bids, "bids retrieved")
}

// Create handles POST /lots
func (h *LotHandler) Create(c *gin.Context) {
	var req models.LotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "CreateLot", err)
		return
	}

	lot, err := h.lots.CreateLot(c.Request.Context(), actingUser(c), &req)
	if err != nil {
		respondError(c, "CreateLot", err)
		return
	}

	JSONResponse(c, http.StatusCreated, lot, "lot created")
}

// Update handles PUT /lots/:id
func (h *LotHandler) Update(c *gin.Context) {
	id, ok := lotID(c)
	if !ok {
		return
	}
	var req models.LotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "UpdateLot", err)
		return
	}

	lot, err := h.lots.UpdateLot(c.Request.Context(), actingUser(c), id, &req)
	if err != nil {
		respondError(c, "UpdateLot", err)
		return
	}

	JSONResponse(c, http.StatusOK, lot, "lot updated")
}

// Relist handles POST /lots/:id/relist
func (h *LotHandler) Relist(c *gin.Context) {
	id, ok := lotID(c)
	if !ok {
		return
	}
	var req models.LotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "RelistLot", err)
		return
	}

	lot, err := h.lots.RelistLot(c.Request.Context(), actingUser(c), id, &req)
	if err != nil {
		respondError(c, "RelistLot", err)
		return
	}

	JSONResponse(c, http.StatusOK, lot, "lot relisted")
}

// Cancel handles DELETE /lots/:id
func (h *LotHandler) Cancel(c *gin.Context) {
	id, ok := lotID(c)
	if !ok {
		return
	}

	if err := h.lots.CancelLot(c.Request.Context(), actingUser(c), id); err != nil {
		respondError(c, "CancelLot", err)
		return
	}

	JSONResponse(c, http.StatusOK, nil, "lot cancelled")
}

// PlaceBid handles POST /lots/:id/bids
func (h *LotHandler) PlaceBid(c *gin.Context) {
	id, ok := lotID(c)
	if !ok {
		return
	}
	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "PlaceBid", err)
		return
	}

	bid, err := h.bids.PlaceBid(c.Request.Context(), actingUser(c), id, req.Amount)
	if err != nil {
		respondError(c, "PlaceBid", err)
		return
	}

	JSONResponse(c, http.StatusCreated, bid, "bid placed")
	log.WithFields(log.Fields{
		"request_id": c.GetString(requestIDKey),
		"lot_id":     id,
		"bid_id":     bid.ID,
		"amount":     bid.Amount,
	}).Info("PlaceBid: bid placed")
}

// Categories handles GET /categories
func (h *LotHandler) Categories(c *gin.Context) {
	categories, err := h.lots.Categories(c.Request.Context())
	if err != nil {
		respondError(c, "Categories", err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}

	JSONResponse(c, http.StatusOK, categories, "categories retrieved")
}
