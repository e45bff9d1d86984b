package http

import (
	"context"
	"net/http"

	"sponsorhub-backend/internal/security"
	"sponsorhub-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services bundles everything the HTTP surface calls into
type Services struct {
	Intents       service.IntentService
	Review        service.ReviewService
	Payments      service.PaymentService
	Sponsorships  service.SponsorshipService
	Maintenance   service.MaintenanceService
	Notifications service.NotificationService

	// Ping reports storage health for /healthz; nil means always healthy
	Ping func(ctx context.Context) error
}

type Handler struct {
	svc Services
}

// NewRouter wires every route. Route names key into config.EndpointSecurityConfig.
func NewRouter(svc Services, tm security.TokenManager) *mux.Router {
	h := &Handler{svc: svc}
	r := mux.NewRouter()
	r.Use(requestLogger, NewAuthMiddleware(tm).Handler)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("Healthz")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/intents", h.SubmitIntent).Methods(http.MethodPost).Name("SubmitIntent")
	api.HandleFunc("/intents/mine", h.ListMyIntents).Methods(http.MethodGet).Name("ListMyIntents")
	api.HandleFunc("/intents/{id:[0-9]+}", h.GetIntent).Methods(http.MethodGet).Name("GetIntent")
	api.HandleFunc("/intents/{id:[0-9]+}", h.UpdateIntent).Methods(http.MethodPut).Name("UpdateIntent")
	api.HandleFunc("/intents/{id:[0-9]+}", h.DeleteIntent).Methods(http.MethodDelete).Name("DeleteIntent")
	api.HandleFunc("/intents/{id:[0-9]+}/history", h.GetIntentHistory).Methods(http.MethodGet).Name("GetIntentHistory")
	api.HandleFunc("/intents/{id:[0-9]+}/review", h.ReviewIntent).Methods(http.MethodPost).Name("ReviewIntent")

	api.HandleFunc("/intents/{id:[0-9]+}/payment/order", h.CreatePaymentOrder).Methods(http.MethodPost).Name("CreatePaymentOrder")
	api.HandleFunc("/intents/{id:[0-9]+}/payment/verify", h.VerifyGatewayPayment).Methods(http.MethodPost).Name("VerifyGatewayPayment")
	api.HandleFunc("/intents/{id:[0-9]+}/payment/manual", h.VerifyManualPayment).Methods(http.MethodPost).Name("VerifyManualPayment")
	api.HandleFunc("/intents/{id:[0-9]+}/payment/refund", h.RefundPayment).Methods(http.MethodPost).Name("RefundPayment")

	api.HandleFunc("/orgs/{orgId:[0-9]+}/intents", h.ListOrganizationIntents).Methods(http.MethodGet).Name("ListOrganizationIntents")
	api.HandleFunc("/orgs/{orgId:[0-9]+}/sponsorships", h.ListOrganizationSponsorships).Methods(http.MethodGet).Name("ListOrganizationSponsorships")
	api.HandleFunc("/orgs/{orgId:[0-9]+}/sponsorships/export", h.ExportOrganizationReport).Methods(http.MethodGet).Name("ExportOrganizationReport")

	api.HandleFunc("/sponsorships/{id:[0-9]+}", h.UpdateSponsorship).Methods(http.MethodPut).Name("UpdateSponsorship")
	api.HandleFunc("/sponsorships/{id:[0-9]+}/receipts", h.ListReceipts).Methods(http.MethodGet).Name("ListReceipts")
	api.HandleFunc("/sponsors/me", h.GetMySponsorProfile).Methods(http.MethodGet).Name("GetMySponsorProfile")

	api.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet).Name("GetNotifications")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods(http.MethodPost).Name("MarkNotificationRead")

	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ping != nil {
		if err := h.svc.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
