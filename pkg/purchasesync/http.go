package purchasesync

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/holded"
)

const defaultPageLimit = 100

type HTTPHandler struct {
	orchestrator *Orchestrator
	registry     *holded.Registry
}

func NewHTTPHandler(orchestrator *Orchestrator, registry *holded.Registry) *HTTPHandler {
	return &HTTPHandler{orchestrator: orchestrator, registry: registry}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/companies/{company}/connection", h.handleTestConnection).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/purchases/pending", h.handlePending).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/purchases/overdue", h.handleOverdue).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/contacts", h.handleContacts).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/contacts/{id}", h.handleContact).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/payment-methods", h.handlePaymentMethods).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/products", h.handleProducts).Methods(http.MethodGet)
	router.HandleFunc("/companies/{company}/sync", h.handleSync).Methods(http.MethodPost)
	router.HandleFunc("/sync-runs", h.handleRuns).Methods(http.MethodGet)
}

// withService resolves the company of the request and runs fn against it.
func (h *HTTPHandler) withService(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, svc *holded.Service) (interface{}, error)) {
	svc, err := h.registry.Service(mux.Vars(r)["company"])
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := fn(r.Context(), svc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		if err := svc.TestConnection(ctx); err != nil {
			return nil, err
		}
		return map[string]interface{}{"success": true, "company": svc.Company()}, nil
	})
}

func (h *HTTPHandler) handlePending(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		return svc.PendingPurchases(ctx, page, limit)
	})
}

func (h *HTTPHandler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		return svc.OverduePurchases(ctx, page, limit)
	})
}

func (h *HTTPHandler) handleContacts(w http.ResponseWriter, r *http.Request) {
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		return svc.AllContacts(ctx)
	})
}

func (h *HTTPHandler) handleContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		return svc.Contact(ctx, id)
	})
}

func (h *HTTPHandler) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		return svc.PaymentMethods(ctx)
	})
}

func (h *HTTPHandler) handleProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	h.withService(w, r, func(ctx context.Context, svc *holded.Service) (interface{}, error) {
		return svc.Products(ctx, page, limit)
	})
}

// handleSync keeps running after the caller disconnects so a run is never cut
// off between its writes.
func (h *HTTPHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.orchestrator.Sync(context.WithoutCancel(r.Context()), mux.Vars(r)["company"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.orchestrator.Runs(r.Context(), r.URL.Query().Get("company"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func pagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	return page, limit
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Log.WithError(err).WithField("code", code).Error("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
