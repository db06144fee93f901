package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ticketvault/backend/internal/middleware"
)

func newTestRouter(h *Handler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, userID) })
	r.POST("/events", h.CreateEvent)
	r.POST("/events/:id/lots", h.CreateLot)
	r.POST("/events/:id/purchase", h.Purchase)
	r.POST("/events/:id/withdraw", h.Withdraw)
	r.POST("/invoices/:id/refund", h.Refund)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_PurchaseFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	buyer := uuid.New()
	router := newTestRouter(h, buyer)

	w := doJSON(t, router, http.MethodPost, "/events", gin.H{
		"name":      "Cellar Session",
		"starts_at": ms(0).Format(time.RFC3339),
		"ends_at":   ms(0).Add(time.Hour).Format(time.RFC3339),
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: status %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		Data CreateEventResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create event: %v", err)
	}
	if created.Data.Capability == "" {
		t.Fatalf("expected capability token in create response")
	}
	eventID := created.Data.Event.ID
	capHeader := map[string]string{CapabilityHeader: created.Data.Capability}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/lots", eventID), gin.H{
		"unit_price_cents": 50,
		"capacity":         1,
	}, capHeader)
	if w.Code != http.StatusCreated {
		t.Fatalf("create lot: status %d, body %s", w.Code, w.Body.String())
	}
	var lotResp struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &lotResp); err != nil {
		t.Fatalf("decode create lot: %v", err)
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/purchase", eventID), gin.H{
		"lot_id":        lotResp.Data.ID.String(),
		"payment_cents": 50,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("purchase: status %d, body %s", w.Code, w.Body.String())
	}

	// Lot capacity was 1; the next purchase is a precondition failure.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/purchase", eventID), gin.H{
		"lot_id":        lotResp.Data.ID.String(),
		"payment_cents": 50,
	}, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("sold out purchase: expected 422, got %d, body %s", w.Code, w.Body.String())
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	router := newTestRouter(h, uuid.New())

	event, capToken := f.mustCreateEvent(t, 1000)

	t.Run("missing capability is forbidden", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/lots", event.ID), gin.H{
			"unit_price_cents": 50,
			"capacity":         1,
		}, nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d, body %s", w.Code, w.Body.String())
		}
	})

	t.Run("withdrawal while open is a precondition failure", func(t *testing.T) {
		f.clk.Set(ms(500))
		w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/withdraw", event.ID), nil,
			map[string]string{CapabilityHeader: capToken})
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d, body %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown invoice refund is not found", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/invoices/%s/refund", uuid.New()), nil, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d, body %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown event is not found", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/events/%s/purchase", uuid.New()), gin.H{
			"lot_id":        uuid.New().String(),
			"payment_cents": 50,
		}, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d, body %s", w.Code, w.Body.String())
		}
	})
}
