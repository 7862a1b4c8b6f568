package api

import (
	"context"
	"net/http"

	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/reservation"
)

// HandoverHandler handles claims and handover confirmations.
type HandoverHandler struct {
	Coordinator *reservation.Coordinator
}

type claimRequest struct {
	Contact string `json:"contact"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// Claim handles POST /api/items/{id}/claim.
func (h *HandoverHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.Coordinator.Claim(r.Context(), id, actorFrom(r), req.Contact)
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, st)
}

// Approve handles POST /api/items/{id}/approve.
func (h *HandoverHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.Coordinator.ApproveClaim)
}

// ConfirmDonor handles POST /api/items/{id}/confirm/donor.
func (h *HandoverHandler) ConfirmDonor(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.Coordinator.ConfirmDonor)
}

// ConfirmReceiver handles POST /api/items/{id}/confirm/receiver.
func (h *HandoverHandler) ConfirmReceiver(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.Coordinator.ConfirmReceiver)
}

// Finalize handles POST /api/items/{id}/finalize.
func (h *HandoverHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.Coordinator.FinalizeHandover)
}

// SetStatus handles PUT /api/items/{id}/status (admin only).
func (h *HandoverHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.Coordinator.AdminSetStatus(r.Context(), id, model.Status(req.Status), actorFrom(r))
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, st)
}

// step runs a bodyless item operation for the calling actor.
func (h *HandoverHandler) step(w http.ResponseWriter, r *http.Request,
	op func(context.Context, int64, model.Actor) (*model.ItemStatus, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	st, err := op(r.Context(), id, actorFrom(r))
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, st)
}
