package ledger

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketvault/backend/internal/middleware"
	"github.com/ticketvault/backend/internal/models"
	"github.com/ticketvault/backend/pkg/response"
)

// CapabilityHeader carries the organizer capability token on gated endpoints.
const CapabilityHeader = "X-Organizer-Capability"

// Handler handles escrow ledger HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a ledger handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateEventRequest is the body for POST /events.
type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	StartsAt    string `json:"starts_at" binding:"required"`
	EndsAt      string `json:"ends_at" binding:"required"`
}

// CreateEventResponse carries the event and its one-time capability token.
// The token is shown only here; losing it means losing organizing rights.
type CreateEventResponse struct {
	Event      models.Event `json:"event"`
	Capability string       `json:"capability"`
}

// CreateLotRequest is the body for POST /events/:id/lots.
type CreateLotRequest struct {
	UnitPriceCents int64 `json:"unit_price_cents" binding:"min=0"`
	Capacity       int   `json:"capacity" binding:"required,min=1"`
}

// PurchaseRequest is the body for POST /events/:id/purchase.
type PurchaseRequest struct {
	LotID        string `json:"lot_id" binding:"required,uuid"`
	PaymentCents int64  `json:"payment_cents" binding:"min=0"`
}

// UpdateEventRequest is the body for PATCH /events/:id.
type UpdateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateEvent handles POST /events.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	endsAt, err := parseTime(req.EndsAt)
	if err != nil {
		response.BadRequest(c, "invalid ends_at")
		return
	}

	organizerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	event, capToken, err := h.svc.CreateEvent(c.Request.Context(), CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		OrganizerID: organizerID,
	})
	if err != nil {
		h.fail(c, err, "create event")
		return
	}
	response.Created(c, CreateEventResponse{Event: event, Capability: capToken})
}

// GetEvent handles GET /events/:id.
func (h *Handler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	event, err := h.svc.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get event")
		return
	}
	response.OK(c, event)
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(c *gin.Context) {
	list, err := h.svc.ListEvents(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list events")
		return
	}
	response.OK(c, list)
}

// UpdateEvent handles PATCH /events/:id (capability-gated).
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	event, err := h.svc.UpdateEventDetails(c.Request.Context(), id, c.GetHeader(CapabilityHeader), req.Name, req.Description)
	if err != nil {
		h.fail(c, err, "update event")
		return
	}
	response.OK(c, event)
}

// CreateLot handles POST /events/:id/lots (capability-gated).
func (h *Handler) CreateLot(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	lot, err := h.svc.CreateLot(c.Request.Context(), CreateLotInput{
		EventID:        eventID,
		Capability:     c.GetHeader(CapabilityHeader),
		UnitPriceCents: req.UnitPriceCents,
		Capacity:       req.Capacity,
	})
	if err != nil {
		h.fail(c, err, "create lot")
		return
	}
	response.Created(c, lot)
}

// ListLots handles GET /events/:id/lots.
func (h *Handler) ListLots(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListLots(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, err, "list lots")
		return
	}
	response.OK(c, list)
}

// Purchase handles POST /events/:id/purchase. The buyer is the JWT principal.
func (h *Handler) Purchase(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		response.BadRequest(c, "invalid lot_id")
		return
	}
	buyerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	invoice, err := h.svc.Purchase(c.Request.Context(), PurchaseInput{
		EventID:      eventID,
		LotID:        lotID,
		BuyerID:      buyerID,
		PaymentCents: req.PaymentCents,
	})
	if err != nil {
		h.fail(c, err, "purchase")
		return
	}
	response.Created(c, invoice)
}

// Refund handles POST /invoices/:id/refund. The caller must be the invoice's buyer.
func (h *Handler) Refund(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invoice id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	payout, err := h.svc.Refund(c.Request.Context(), invoiceID, callerID)
	if err != nil {
		h.fail(c, err, "refund")
		return
	}
	response.OK(c, gin.H{"invoice_id": invoiceID, "payout_cents": payout})
}

// Withdraw handles POST /events/:id/withdraw (capability-gated). The payout
// recipient is the JWT principal.
func (h *Handler) Withdraw(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	recipientID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	amount, err := h.svc.WithdrawAll(c.Request.Context(), eventID, c.GetHeader(CapabilityHeader), recipientID)
	if err != nil {
		h.fail(c, err, "withdraw")
		return
	}
	response.OK(c, gin.H{"event_id": eventID, "amount_cents": amount})
}

// ListInvoices handles GET /invoices (the caller's outstanding invoices).
func (h *Handler) ListInvoices(c *gin.Context) {
	buyerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListInvoices(c.Request.Context(), buyerID)
	if err != nil {
		h.fail(c, err, "list invoices")
		return
	}
	response.OK(c, list)
}

// ListJournal handles GET /events/:id/journal.
func (h *Handler) ListJournal(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListJournal(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, err, "list journal")
		return
	}
	response.OK(c, list)
}

// fail maps domain errors to HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrLotNotFound),
		errors.Is(err, models.ErrInvoiceNotFound),
		errors.Is(err, models.ErrInvalidID):
		response.NotFound(c, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, models.ErrInvalidWindow),
		errors.Is(err, models.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, models.ErrEventOver),
		errors.Is(err, models.ErrEventStillOpen),
		errors.Is(err, models.ErrSoldOut),
		errors.Is(err, models.ErrInsufficientPayment),
		errors.Is(err, models.ErrNothingToRefund),
		errors.Is(err, models.ErrInsufficientEscrow),
		errors.Is(err, models.ErrUnderflow):
		response.UnprocessableEntity(c, err.Error())
	default:
		h.logger.Error(op, zap.Error(err))
		response.Internal(c, "operation failed")
	}
}
