package api

import (
	"net/http"
	"strings"

	"github.com/novacarriers/claimdesk/internal/engine"
	"github.com/novacarriers/claimdesk/internal/model"
	"github.com/novacarriers/claimdesk/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// POST /api/extract-claim
// ---------------------------------------------------------------------------

type extractClaimRequest struct {
	IncidentText string `json:"incidentText"`
	SourceURL    string `json:"sourceUrl"`
}

func (s *Server) handleExtractClaim(w http.ResponseWriter, r *http.Request) {
	var req extractClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.IncidentText) == "" && strings.TrimSpace(req.SourceURL) == "" {
		writeError(w, http.StatusBadRequest, "No incident text provided")
		return
	}

	in, err := s.intake.Run(r.Context(), engine.IntakeRequest{
		IncidentText: req.IncidentText,
		SourceURL:    req.SourceURL,
	})
	if err != nil {
		writeStoreError(w, err, "", "failed to analyse incident")
		return
	}

	claim, err := s.store.CreateClaim(r.Context(), store.CreateInput{
		Narrative: in.Narrative,
		Report:    *in.Report,
		Tasks:     in.Tasks,
	})
	if err != nil {
		writeStoreError(w, err, "", "failed to create claim")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"claimId": claim.ID,
		"report":  claim.Report,
	})
}

// ---------------------------------------------------------------------------
// POST /api/claims
// ---------------------------------------------------------------------------

type createClaimRequest struct {
	ID         string                 `json:"id"`
	Narrative  string                 `json:"narrative"`
	Report     model.Report           `json:"report"`
	Tasks      []model.Task           `json:"tasks"`
	Meta       *model.MetaPatch       `json:"meta"`
	Financials *model.FinancialsPatch `json:"financials"`
}

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Narrative) == "" {
		writeError(w, http.StatusBadRequest, "narrative is required")
		return
	}

	claim, err := s.store.CreateClaim(r.Context(), store.CreateInput{
		ID:         req.ID,
		Narrative:  req.Narrative,
		Report:     req.Report,
		Tasks:      req.Tasks,
		Meta:       req.Meta,
		Financials: req.Financials,
	})
	if err != nil {
		writeStoreError(w, err, "", "failed to create claim")
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

// ---------------------------------------------------------------------------
// GET /api/claims, GET /api/claims/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.store.ListClaims(r.Context())
	if err != nil {
		writeStoreError(w, err, "", "failed to list claims")
		return
	}

	status := model.Status(r.URL.Query().Get("status"))
	stage := model.Stage(r.URL.Query().Get("stage"))
	out := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		if status != "" && c.Meta.Status != status {
			continue
		}
		if stage != "" && c.Meta.Stage != stage {
			continue
		}
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	claim, err := s.store.GetClaim(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Claim not found", "failed to get claim")
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// ---------------------------------------------------------------------------
// POST /api/claims/update
// ---------------------------------------------------------------------------

type updateClaimRequest struct {
	ClaimID    string                 `json:"claimId"`
	Meta       *model.MetaPatch       `json:"meta"`
	Financials *model.FinancialsPatch `json:"financials"`
}

func (s *Server) handleUpdateClaim(w http.ResponseWriter, r *http.Request) {
	var req updateClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.ClaimID)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing claimId")
		return
	}

	claim, err := s.store.UpdateClaimFields(r.Context(), id, store.FieldPatch{
		Meta:       req.Meta,
		Financials: req.Financials,
	})
	if err != nil {
		writeStoreError(w, err, "Claim not found", "failed to update claim")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "claim": claim})
}

// ---------------------------------------------------------------------------
// POST /api/tasks/set-status
// ---------------------------------------------------------------------------

type setTaskStatusRequest struct {
	ClaimID string           `json:"claimId"`
	TaskID  string           `json:"taskId"`
	Status  model.TaskStatus `json:"status"`
}

func (s *Server) handleSetTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req setTaskStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claimID, taskID := strings.TrimSpace(req.ClaimID), strings.TrimSpace(req.TaskID)
	if claimID == "" || taskID == "" || !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Missing/invalid claimId, taskId, or status (open|done)")
		return
	}

	claim, err := s.store.UpdateTaskStatus(r.Context(), claimID, taskID, req.Status)
	if err != nil {
		writeStoreError(w, err, "Claim or task not found", "failed to update task status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"task":  claim.FindTask(taskID),
		"claim": claim,
	})
}

// ---------------------------------------------------------------------------
// Reminders
// ---------------------------------------------------------------------------

type addReminderRequest struct {
	ClaimID  string               `json:"claimId"`
	Reminder *model.ReminderInput `json:"reminder"`
}

func (s *Server) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	var req addReminderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claimID := strings.TrimSpace(req.ClaimID)
	if claimID == "" || req.Reminder == nil {
		writeError(w, http.StatusBadRequest, "Missing claimId or reminder")
		return
	}

	claim, err := s.store.AddReminder(r.Context(), claimID, *req.Reminder)
	if err != nil {
		writeStoreError(w, err, "Claim not found", "failed to add reminder")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "reminder": claim.Reminders[0]})
}

type reminderDoneRequest struct {
	ClaimID    string `json:"claimId"`
	ReminderID string `json:"reminderId"`
}

func (s *Server) handleReminderDone(w http.ResponseWriter, r *http.Request) {
	var req reminderDoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claimID, reminderID := strings.TrimSpace(req.ClaimID), strings.TrimSpace(req.ReminderID)
	if claimID == "" || reminderID == "" {
		writeError(w, http.StatusBadRequest, "Missing claimId or reminderId")
		return
	}

	claim, err := s.store.MarkReminderDone(r.Context(), claimID, reminderID)
	if err != nil {
		writeStoreError(w, err, "Claim or reminder not found", "failed to mark reminder done")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "claim": claim})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	views, err := s.store.ListPendingReminders(r.Context(), s.now())
	if err != nil {
		writeStoreError(w, err, "", "failed to list reminders")
		return
	}
	if views == nil {
		views = []store.ReminderView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// ---------------------------------------------------------------------------
// Drafts
// ---------------------------------------------------------------------------

type createDraftRequest struct {
	ClaimID string `json:"claimId"`
	engine.DraftRequest
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claimID := strings.TrimSpace(req.ClaimID)
	if claimID == "" {
		writeError(w, http.StatusBadRequest, "Missing claimId")
		return
	}

	claim, err := s.store.GetClaim(r.Context(), claimID)
	if err != nil {
		writeStoreError(w, err, "Claim not found", "failed to get claim")
		return
	}
	input, err := s.composer.Compose(r.Context(), claim, req.DraftRequest)
	if err != nil {
		writeStoreError(w, err, "", "failed to compose draft")
		return
	}
	saved, err := s.store.AddDraft(r.Context(), claimID, input)
	if err != nil {
		writeStoreError(w, err, "Claim not found", "failed to save draft")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "draft": saved.Drafts[0]})
}

type draftSentRequest struct {
	ClaimID string `json:"claimId"`
	DraftID string `json:"draftId"`
}

func (s *Server) handleDraftSent(w http.ResponseWriter, r *http.Request) {
	var req draftSentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claimID, draftID := strings.TrimSpace(req.ClaimID), strings.TrimSpace(req.DraftID)
	if claimID == "" || draftID == "" {
		writeError(w, http.StatusBadRequest, "Missing claimId or draftId")
		return
	}

	claim, err := s.store.MarkDraftSent(r.Context(), claimID, draftID)
	if err != nil {
		writeStoreError(w, err, "Claim or draft not found", "failed to mark draft sent")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "claim": claim})
}

// ---------------------------------------------------------------------------
// GET /api/finance/summary
// ---------------------------------------------------------------------------

func (s *Server) handleFinanceSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.FinanceSummary(r.Context())
	if err != nil {
		writeStoreError(w, err, "", "failed to summarise financials")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
