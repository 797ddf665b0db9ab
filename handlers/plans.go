package handlers

import (
	"errors"
	"log"
	"net/http"

	"embertv/models"
	"embertv/services/plans"
	"embertv/services/viewers"
)

type planStore interface {
	List() ([]models.Plan, error)
	Get(id int) (models.Plan, error)
	Save(plan models.Plan) (models.Plan, error)
	Delete(id int) error
	RecordSale(viewer models.Viewer, plan models.Plan, orderID string) (models.Sale, error)
	Sales() ([]models.Sale, error)
}

type subscriber interface {
	Get(id int) (models.Viewer, error)
	Subscribe(id int, plan models.Plan, orderID string) (models.Subscription, error)
}

var (
	_ planStore  = (*plans.Service)(nil)
	_ subscriber = (*viewers.Service)(nil)
)

// PlansHandler serves the public plan list, plan administration and
// checkout.
type PlansHandler struct {
	Service planStore
	Viewers subscriber
}

func NewPlansHandler(service planStore, viewersSvc subscriber) *PlansHandler {
	return &PlansHandler{Service: service, Viewers: viewersSvc}
}

// List is public so the pricing page can render without a login.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plans": list})
}

// Save creates or updates a plan.
func (h *PlansHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body models.Plan
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Service.Save(body)
	if err != nil {
		writeError(w, planErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plan": plan})
}

func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	if err := h.Service.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Sales returns the sales ledger for the admin panel.
func (h *PlansHandler) Sales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Service.Sales()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sales": sales})
}

// Subscribe attaches a plan to the calling viewer and records the sale.
func (h *PlansHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sess, ok := ViewerSessionFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Login first")
		return
	}

	var body struct {
		PlanID        int    `json:"plan_id"`
		PayPalOrderID string `json:"paypal_order_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Service.Get(body.PlanID)
	if err != nil {
		writeError(w, planErrorStatus(err), err.Error())
		return
	}
	viewer, err := h.Viewers.Get(sess.ViewerID)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}

	sub, err := h.Viewers.Subscribe(viewer.ID, plan, body.PayPalOrderID)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}
	if _, err := h.Service.RecordSale(viewer, plan, body.PayPalOrderID); err != nil {
		log.Printf("[plans] Sale record failed for viewer %d: %v", viewer.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "subscription": sub})
}

func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, plans.ErrNameRequired),
		errors.Is(err, plans.ErrInvalidDays),
		errors.Is(err, plans.ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, plans.ErrPlanNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
