package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every route. Route templates double as keys into
// config.EndpointSecurityConfig, so they carry no regex patterns.
func NewRouter(h *Handler, auth *AuthMiddleware, limiter *RateLimiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware, auth.Middleware, limiter.Middleware)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	asset := "/assets/{collection}/{tokenId}"
	api.HandleFunc(asset, h.GetAsset).Methods(http.MethodGet)
	api.HandleFunc(asset+"/settlements", h.ListSettlements).Methods(http.MethodGet)
	api.HandleFunc(asset+"/offers", h.PlaceOffer).Methods(http.MethodPost)
	api.HandleFunc(asset+"/offers", h.CancelOffer).Methods(http.MethodDelete)
	api.HandleFunc(asset+"/accept", h.AcceptOffer).Methods(http.MethodPost)
	api.HandleFunc(asset+"/release", h.ReleaseExpiredOffer).Methods(http.MethodPost)
	api.HandleFunc(asset+"/norent", h.ActivateNoRent).Methods(http.MethodPost)
	api.HandleFunc(asset+"/norent/extend", h.ExtendPaidUntil).Methods(http.MethodPost)
	api.HandleFunc(asset+"/hosting-fees", h.PayHostingFees).Methods(http.MethodPost)

	api.HandleFunc("/hosting/tiers", h.ListTiers).Methods(http.MethodGet)
	api.HandleFunc("/hosting/tiers", h.AddTier).Methods(http.MethodPost)
	api.HandleFunc("/hosting/tiers/{id}", h.UpdateTier).Methods(http.MethodPut)

	api.HandleFunc("/containers", h.CreateContainer).Methods(http.MethodPost)
	api.HandleFunc("/containers/{id}", h.GetContainer).Methods(http.MethodGet)
	api.HandleFunc("/containers/{id}", h.DeleteContainer).Methods(http.MethodDelete)

	api.HandleFunc("/balances/{address}", h.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/ledger/approvals", h.ApproveFunds).Methods(http.MethodPost)
	api.HandleFunc("/collections/{collection}/approvals", h.ApproveCollection).Methods(http.MethodPost)

	return router
}
