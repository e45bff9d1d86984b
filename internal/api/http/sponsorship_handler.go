package http

import (
	"fmt"
	"net/http"

	"sponsorhub-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ListOrganizationSponsorships(w http.ResponseWriter, r *http.Request) {
	adminID, orgID, err := actorAndPathID(r, "orgId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sponsorships, err := h.svc.Sponsorships.ListOrganizationSponsorships(r.Context(), adminID, orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sponsorships": sponsorships})
}

func (h *Handler) ExportOrganizationReport(w http.ResponseWriter, r *http.Request) {
	adminID, orgID, err := actorAndPathID(r, "orgId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := h.svc.Maintenance.ExportOrganizationReport(r.Context(), adminID, orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="org-%d-sponsorships.xlsx"`, orgID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) UpdateSponsorship(w http.ResponseWriter, r *http.Request) {
	adminID, sponsorshipID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var edit service.SponsorshipEdit
	if err := readJSON(r, &edit); err != nil {
		writeError(w, r, err)
		return
	}
	sp, err := h.svc.Sponsorships.UpdateSponsorship(r.Context(), adminID, sponsorshipID, edit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	actorID, sponsorshipID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	receipts, err := h.svc.Sponsorships.ListReceipts(r.Context(), actorID, sponsorshipID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
}
