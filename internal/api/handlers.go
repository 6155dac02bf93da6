package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dmehra/khatabot/internal/convo"
	"github.com/dmehra/khatabot/internal/ledger"
)

func (a *API) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snapshot, err := a.store.ByStatus(r.Context(), ledger.StatusActive)
	if err != nil {
		http.Error(w, "failed to load ledger", http.StatusInternalServerError)
		return
	}

	// Extraction only: nothing is written and no session is touched.
	result, err := a.extractor.Extract(r.Context(), req.Text, snapshot, nil)
	if err != nil {
		http.Error(w, "could not parse message", http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"parsed":                result.Parsed,
		"message":               result.Message,
		"requires_confirmation": result.RequiresConfirmation,
	})
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Text           string `json:"text"`
		Signal         string `json:"signal"`
		ChoiceID       string `json:"choice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	signal := convo.Signal(req.Signal)
	switch signal {
	case convo.SignalNone, convo.SignalYes, convo.SignalNo, convo.SignalChoice, convo.SignalCancel:
	default:
		http.Error(w, "invalid signal", http.StatusBadRequest)
		return
	}

	out := a.orch.Handle(r.Context(), convo.Input{
		ConvID:   req.ConversationID,
		Text:     req.Text,
		Signal:   signal,
		ChoiceID: req.ChoiceID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"reply":   out.Reply,
		"confirm": out.Confirm,
		"choices": out.Choices,
	})
}

func (a *API) handleListObligations(w http.ResponseWriter, r *http.Request) {
	status := ledger.Status(r.URL.Query().Get("status"))
	person := r.URL.Query().Get("person")

	var (
		obligations []ledger.Obligation
		err         error
	)
	switch {
	case person != "" && status != "":
		obligations, err = a.store.ByPerson(r.Context(), person, status)
	case status != "":
		obligations, err = a.store.ByStatus(r.Context(), status)
	default:
		obligations, err = a.store.All(r.Context())
	}
	if err != nil {
		http.Error(w, "failed to list obligations", http.StatusInternalServerError)
		return
	}
	if obligations == nil {
		obligations = []ledger.Obligation{}
	}
	writeJSON(w, http.StatusOK, obligations)
}

func (a *API) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonName       string `json:"person_name"`
		Kind             string `json:"kind"`
		Direction        string `json:"direction"`
		TotalAmount      int64  `json:"total_amount"`
		ExpectedPerCycle *int64 `json:"expected_per_cycle"`
		Note             string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PersonName == "" || req.TotalAmount <= 0 {
		http.Error(w, "person_name and a positive total_amount are required", http.StatusBadRequest)
		return
	}

	kind := ledger.Kind(req.Kind)
	if kind == "" {
		kind = ledger.KindOneTime
	}
	if kind != ledger.KindOneTime && kind != ledger.KindRecurring {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}
	direction := ledger.Direction(req.Direction)
	if direction == "" {
		direction = ledger.DirectionOwesMe
	}
	if direction != ledger.DirectionOwesMe && direction != ledger.DirectionIOwe {
		http.Error(w, "invalid direction", http.StatusBadRequest)
		return
	}

	ob := &ledger.Obligation{
		ID:               uuid.NewString(),
		PersonName:       req.PersonName,
		Kind:             kind,
		Direction:        direction,
		TotalAmount:      req.TotalAmount,
		ExpectedPerCycle: req.ExpectedPerCycle,
		RemainingAmount:  req.TotalAmount,
		Status:           ledger.StatusActive,
		Note:             req.Note,
	}
	if err := a.store.Create(r.Context(), ob); err != nil {
		http.Error(w, "failed to create obligation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ob)
}

func (a *API) handleGetObligation(w http.ResponseWriter, r *http.Request) {
	ob, err := a.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

func (a *API) handleUpdateObligation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonName       *string `json:"person_name"`
		TotalAmount      *int64  `json:"total_amount"`
		ExpectedPerCycle *int64  `json:"expected_per_cycle"`
		RemainingAmount  *int64  `json:"remaining_amount"`
		Note             *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	upd := ledger.Update{
		PersonName:       req.PersonName,
		TotalAmount:      req.TotalAmount,
		ExpectedPerCycle: req.ExpectedPerCycle,
		RemainingAmount:  req.RemainingAmount,
		Note:             req.Note,
	}
	ob, err := a.store.Update(r.Context(), mux.Vars(r)["id"], upd)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

func (a *API) handleDeleteObligation(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "obligation deleted"})
}

func (a *API) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	txn := ledger.Transaction{Amount: req.Amount, PaidAt: time.Now().UTC(), Note: req.Note}
	ob, err := a.store.AddTransaction(r.Context(), mux.Vars(r)["id"], txn)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

func (a *API) handleSettle(w http.ResponseWriter, r *http.Request) {
	ob, err := a.store.Settle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "obligation not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrSettled):
		http.Error(w, "obligation is already settled", http.StatusConflict)
	case errors.Is(err, ledger.ErrExceedsRemaining):
		http.Error(w, "amount exceeds remaining balance", http.StatusConflict)
	default:
		http.Error(w, "store error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
