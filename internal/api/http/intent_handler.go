package http

import (
	"net/http"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/service"
)

type intentList struct {
	Intents []domain.SponsorshipIntent `json:"intents"`
}

func (h *Handler) SubmitIntent(w http.ResponseWriter, r *http.Request) {
	var input service.IntentInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	intent, err := h.svc.Intents.SubmitIntent(r.Context(), optionalActor(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

func (h *Handler) ListMyIntents(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	intents, err := h.svc.Intents.ListMyIntents(r.Context(), actorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intentList{Intents: intents})
}

func (h *Handler) GetIntent(w http.ResponseWriter, r *http.Request) {
	actorID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	intent, err := h.svc.Intents.GetIntent(r.Context(), actorID, intentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (h *Handler) UpdateIntent(w http.ResponseWriter, r *http.Request) {
	actorID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input service.IntentInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	intent, err := h.svc.Intents.UpdateIntent(r.Context(), actorID, intentID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

func (h *Handler) DeleteIntent(w http.ResponseWriter, r *http.Request) {
	actorID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Intents.DeleteIntent(r.Context(), actorID, intentID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetIntentHistory(w http.ResponseWriter, r *http.Request) {
	actorID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := h.svc.Intents.ListHistory(r.Context(), actorID, intentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *Handler) ReviewIntent(w http.ResponseWriter, r *http.Request) {
	adminID, intentID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var payload domain.DecisionPayload
	if err := readJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	decision, err := domain.ParseDecision(payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := h.svc.Review.Review(r.Context(), adminID, intentID, decision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) ListOrganizationIntents(w http.ResponseWriter, r *http.Request) {
	adminID, orgID, err := actorAndPathID(r, "orgId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.IntentStatus(r.URL.Query().Get("status"))
	intents, err := h.svc.Intents.ListOrganizationIntents(r.Context(), adminID, orgID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intentList{Intents: intents})
}

func (h *Handler) GetMySponsorProfile(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sponsor, err := h.svc.Intents.GetSponsorProfile(r.Context(), actorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sponsor)
}

func actorAndPathID(r *http.Request, name string) (int32, int32, error) {
	actorID, err := requireActor(r.Context())
	if err != nil {
		return 0, 0, err
	}
	id, err := pathID(r, name)
	if err != nil {
		return 0, 0, err
	}
	return actorID, id, nil
}
