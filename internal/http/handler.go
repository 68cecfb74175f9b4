package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bina-platform/marketplace-engine/internal/http/middleware"
	"github.com/bina-platform/marketplace-engine/internal/model"
	"github.com/bina-platform/marketplace-engine/internal/service"
)

type Handler struct {
	matching   *service.MatchingService
	contracts  *service.ContractService
	multiParty *service.MultiPartyContractService
	exports    *service.ExportService
	log        zerolog.Logger
}

func NewHandler(
	matching *service.MatchingService,
	contracts *service.ContractService,
	multiParty *service.MultiPartyContractService,
	exports *service.ExportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		matching:   matching,
		contracts:  contracts,
		multiParty: multiParty,
		exports:    exports,
		log:        log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/matching/opportunities/:id", h.matchOpportunity)
	protected.POST("/matching/providers/:id", h.matchProvider)
	protected.GET("/opportunities/:id/matches", h.listMatches)
	protected.POST("/opportunities/:id/matches/export", h.exportMatches)

	protected.POST("/contracts/from-proposal", h.createFromProposal)
	protected.POST("/contracts/from-service-offer", h.createFromServiceOffer)
	protected.POST("/contracts/multi-party", h.createMultiParty)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts/:id/summary.pdf", h.exportContractSummary)
	protected.POST("/contracts/:id/send", h.sendContract)
	protected.POST("/contracts/:id/sign", h.signContract)
	protected.POST("/contracts/:id/activate", h.activateContract)
	protected.POST("/contracts/:id/terminate", h.terminateContract)
	protected.POST("/contracts/:id/consent", h.recordConsent)
	protected.POST("/contracts/:id/reject", h.recordRejection)
}

func (h *Handler) matchOpportunity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	matches, err := h.matching.MatchOpportunity(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *Handler) matchProvider(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	matches, err := h.matching.MatchProvider(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *Handler) listMatches(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	matches, err := h.matching.ListMatches(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *Handler) exportMatches(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.exports.ExportMatches(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

type createFromProposalRequest struct {
	ProposalID string `json:"proposal_id" binding:"required"`
	Version    *int   `json:"version"`
}

func (h *Handler) createFromProposal(c *gin.Context) {
	var req createFromProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposalID, err := uuid.Parse(strings.TrimSpace(req.ProposalID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal_id"})
		return
	}

	contract, err := h.contracts.CreateFromProposal(c.Request.Context(), proposalID, req.Version)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

type createFromServiceOfferRequest struct {
	OfferID string `json:"offer_id" binding:"required"`
}

func (h *Handler) createFromServiceOffer(c *gin.Context) {
	var req createFromServiceOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offerID, err := uuid.Parse(strings.TrimSpace(req.OfferID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer_id"})
		return
	}

	contract, err := h.contracts.CreateFromServiceOffer(c.Request.Context(), offerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

type multiPartyPartyRequest struct {
	PartyID      string  `json:"party_id" binding:"required"`
	PartyType    string  `json:"party_type"`
	Role         string  `json:"role"`
	SharePercent float64 `json:"share_percent"`
}

type createMultiPartyRequest struct {
	ProposalID   string                   `json:"proposal_id" binding:"required"`
	Parties      []multiPartyPartyRequest `json:"parties" binding:"required"`
	ContractType string                   `json:"contract_type"`
}

func (h *Handler) createMultiParty(c *gin.Context) {
	var req createMultiPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposalID, err := uuid.Parse(strings.TrimSpace(req.ProposalID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal_id"})
		return
	}

	parties := make([]model.ContractParty, 0, len(req.Parties))
	for _, party := range req.Parties {
		partyID, err := uuid.Parse(strings.TrimSpace(party.PartyID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid party_id"})
			return
		}
		partyType := model.PartyTypeVendorCorporate
		if party.PartyType != "" {
			partyType = model.PartyType(party.PartyType)
		}
		parties = append(parties, model.ContractParty{
			PartyID:      partyID,
			PartyType:    partyType,
			Role:         party.Role,
			SharePercent: party.SharePercent,
		})
	}

	contract, err := h.multiParty.CreateMultiPartyContract(
		c.Request.Context(),
		proposalID,
		parties,
		service.MultiPartyOptions{ContractTypeOverride: model.ContractType(req.ContractType)},
	)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contract, err := h.contracts.GetContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) exportContractSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.exports.ExportContractSummary(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) sendContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contract, err := h.contracts.SendContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) signContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	contract, err := h.contracts.SignContract(c.Request.Context(), id, principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) activateContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contract, err := h.contracts.ActivateContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type terminateRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) terminateContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req terminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract, err := h.contracts.TerminateContract(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type consentRequest struct {
	PartyID string `json:"party_id"`
}

// consentPartyID resolves the acting party: an explicit party_id in the body
// wins, otherwise the authenticated principal consents for themselves.
func consentPartyID(c *gin.Context) (uuid.UUID, bool) {
	var req consentRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.PartyID) != "" {
		partyID, err := uuid.Parse(strings.TrimSpace(req.PartyID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid party_id"})
			return uuid.Nil, false
		}
		return partyID, true
	}
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return uuid.Nil, false
	}
	return principal.UserID, true
}

func (h *Handler) recordConsent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	partyID, ok := consentPartyID(c)
	if !ok {
		return
	}
	contract, err := h.multiParty.RecordPartyConsent(c.Request.Context(), id, partyID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) recordRejection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	partyID, ok := consentPartyID(c)
	if !ok {
		return
	}
	contract, err := h.multiParty.RecordPartyRejection(c.Request.Context(), id, partyID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPreconditionFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		h.log.Error().Err(err).Msg("store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
