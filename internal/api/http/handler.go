package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/service"
)

// FundsApprover grants spending allowances on the fungible ledger.
type FundsApprover interface {
	Approve(ctx context.Context, owner, spender domain.Address, amount domain.Amount) error
	BalanceOf(ctx context.Context, party domain.Address) (domain.Amount, error)
}

// CollectionApprover grants an operator control of a caller's tokens.
type CollectionApprover interface {
	SetApprovalForAll(ctx context.Context, collection, owner, operator domain.Address, approved bool) error
}

// Sequencer runs one mutation at a time.
type Sequencer interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Services struct {
	Rental     service.RentalService
	NoRent     service.NoRentService
	Containers service.ContainerService
	Hosting    service.HostingService
	Assets     service.AssetRegistry
	Funds      FundsApprover
	Approvals  CollectionApprover
	Sequencer  Sequencer
}

const tiersKey = "tiers"

type Handler struct {
	svc   Services
	cache *cache.Cache
}

func NewHandler(svc Services) *Handler {
	return &Handler{
		svc:   svc,
		cache: cache.New(time.Minute, 5*time.Minute),
	}
}

func (h *Handler) mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	return h.svc.Sequencer.Do(ctx, fn)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", errBadRequest, err)
	}
	return nil
}

func assetFromVars(r *http.Request) (domain.AssetRef, error) {
	vars := mux.Vars(r)
	collection, err := domain.ParseAddress(vars["collection"])
	if err != nil {
		return domain.AssetRef{}, err
	}
	tokenID, err := strconv.ParseUint(vars["tokenId"], 10, 64)
	if err != nil {
		return domain.AssetRef{}, fmt.Errorf("%w: token id %q", domain.ErrInvalidAddress, vars["tokenId"])
	}
	return domain.NewAssetRef(collection, tokenID), nil
}

func caller(r *http.Request) (domain.Address, error) {
	c, ok := CallerFromContext(r.Context())
	if !ok {
		return "", errUnauthenticated
	}
	return c, nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type assetView struct {
	Asset       domain.AssetRef            `json:"asset"`
	Owner       domain.Address             `json:"owner"`
	Status      domain.RentalStatus        `json:"status"`
	Offer       *domain.Offer              `json:"offer,omitempty"`
	Tenancy     *domain.Tenancy            `json:"tenancy,omitempty"`
	NoRent      *domain.NoRentSubscription `json:"no_rent,omitempty"`
	NoRentLive  bool                       `json:"no_rent_active"`
	ContainerID *uint64                    `json:"container_id,omitempty"`
}

// GetAsset reports the full rental picture of one asset.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()

	view := assetView{Asset: asset}
	if view.Owner, err = h.svc.Assets.OwnerOf(ctx, asset); err != nil {
		writeError(w, r, err)
		return
	}
	if view.Status, err = h.svc.Rental.Status(ctx, asset); err != nil {
		writeError(w, r, err)
		return
	}
	if view.Offer, err = h.svc.Rental.GetOffer(ctx, asset); err != nil && !errors.Is(err, domain.ErrNoOffer) {
		writeError(w, r, err)
		return
	}
	if view.Tenancy, err = h.svc.Rental.GetTenancy(ctx, asset); err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if view.NoRent, err = h.svc.NoRent.GetNoRent(ctx, asset); err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if view.NoRentLive, err = h.svc.NoRent.IsNoRentActive(ctx, asset); err != nil {
		writeError(w, r, err)
		return
	}
	id, contained, err := h.svc.Containers.IsContained(ctx, asset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if contained {
		view.ContainerID = &id
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.svc.Rental.ListSettlements(r.Context(), asset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.SettlementEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type placeOfferRequest struct {
	Amount      domain.Amount `json:"amount"`
	Months      int32         `json:"months"`
	MetadataURI string        `json:"metadata_uri"`
}

func (h *Handler) PlaceOffer(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req placeOfferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var offer *domain.Offer
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		var err error
		offer, err = h.svc.Rental.PlaceOffer(ctx, who, asset, req.Amount, req.Months, req.MetadataURI)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (h *Handler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Rental.CancelOffer(ctx, who, asset)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var tenancy *domain.Tenancy
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		var err error
		tenancy, err = h.svc.Rental.AcceptOffer(ctx, who, asset)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenancy)
}

// ReleaseExpiredOffer refunds an expired offer. Anyone may trigger it.
func (h *Handler) ReleaseExpiredOffer(w http.ResponseWriter, r *http.Request) {
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Rental.ReleaseExpiredOffer(ctx, asset)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActivateNoRent(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var policy domain.NoRentPolicy
	if err := decode(r, &policy); err != nil {
		writeError(w, r, err)
		return
	}

	var sub *domain.NoRentSubscription
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		var err error
		sub, err = h.svc.NoRent.ActivateNoRent(ctx, who, asset, policy)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type extendRequest struct {
	Months int32 `json:"months"`
}

func (h *Handler) ExtendPaidUntil(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req extendRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var sub *domain.NoRentSubscription
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		var err error
		sub, err = h.svc.NoRent.ExtendPaidUntil(ctx, who, asset, req.Months)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type payFeesRequest struct {
	TierID int32 `json:"tier_id"`
}

func (h *Handler) PayHostingFees(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := assetFromVars(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req payFeesRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var sub *domain.NoRentSubscription
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		var err error
		sub, err = h.svc.Hosting.PayFees(ctx, who, asset, req.TierID)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ListTiers serves the tier table from a short-lived cache; tier
// mutations flush it.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	if cached, found := h.cache.Get(tiersKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	tiers, err := h.svc.Hosting.ListTiers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tiers == nil {
		tiers = []domain.HostingTier{}
	}
	h.cache.SetDefault(tiersKey, tiers)
	writeJSON(w, http.StatusOK, tiers)
}

func (h *Handler) AddTier(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var tier domain.HostingTier
	if err := decode(r, &tier); err != nil {
		writeError(w, r, err)
		return
	}
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Hosting.AddTier(ctx, who, &tier)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cache.Delete(tiersKey)
	writeJSON(w, http.StatusCreated, tier)
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: tier id %q", domain.ErrInvalidPolicy, mux.Vars(r)["id"]))
		return
	}
	var tier domain.HostingTier
	if err := decode(r, &tier); err != nil {
		writeError(w, r, err)
		return
	}
	tier.ID = int32(id)
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Hosting.UpdateTier(ctx, who, &tier)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cache.Delete(tiersKey)
	writeJSON(w, http.StatusOK, tier)
}

type createContainerRequest struct {
	TokenIDs []uint64 `json:"token_ids"`
	Name     string   `json:"name"`
}

func (h *Handler) CreateContainer(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createContainerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var container *domain.Container
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		var err error
		container, err = h.svc.Containers.CreateContainer(ctx, who, req.TokenIDs, req.Name)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, container)
}

func containerID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: container id %q", domain.ErrInvalidContainer, raw)
	}
	return id, nil
}

func (h *Handler) GetContainer(w http.ResponseWriter, r *http.Request) {
	id, err := containerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	container, err := h.svc.Containers.GetContainer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, container)
}

func (h *Handler) DeleteContainer(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := containerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Containers.DeleteContainer(ctx, who, id)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Address domain.Address `json:"address"`
	Balance domain.Amount  `json:"balance"`
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	party, err := domain.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := h.svc.Funds.BalanceOf(r.Context(), party)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: party, Balance: balance})
}

type approveFundsRequest struct {
	Spender domain.Address `json:"spender"`
	Amount  domain.Amount  `json:"amount"`
}

func (h *Handler) ApproveFunds(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req approveFundsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	spender, err := domain.ParseAddress(req.Spender.String())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount < 0 {
		writeError(w, r, fmt.Errorf("%w: negative allowance", errBadRequest))
		return
	}
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Funds.Approve(ctx, who, spender, req.Amount)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type approveCollectionRequest struct {
	Operator domain.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

func (h *Handler) ApproveCollection(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	collection, err := domain.ParseAddress(mux.Vars(r)["collection"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req approveCollectionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	operator, err := domain.ParseAddress(req.Operator.String())
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = h.mutate(r.Context(), func(ctx context.Context) error {
		return h.svc.Approvals.SetApprovalForAll(ctx, collection, who, operator, req.Approved)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
