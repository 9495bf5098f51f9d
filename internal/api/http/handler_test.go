package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"landrent-backend/internal/clock"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/ledger"
	"landrent-backend/internal/registry"
	"landrent-backend/internal/repository/memory"
	"landrent-backend/internal/security"
	"landrent-backend/internal/service"
)

const day = 24 * time.Hour

func addr(n int) domain.Address {
	return domain.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

var (
	owner       = addr(0x01)
	renter      = addr(0x02)
	feeReceiver = addr(0xfee)
	custody     = addr(0xc0)
	hostingAddr = addr(0x405)
	admin       = addr(0xad)
	landsAddr   = addr(0xa11d)
	boxAddr     = addr(0xb0c5)
)

type testServer struct {
	t      *testing.T
	router *mux.Router
	tokens security.TokenManager
	clock  *clock.ManualClock
	ledger *ledger.Ledger
}

func newTestServer(t *testing.T, limit rate.Limit, burst int) *testServer {
	t.Helper()
	clk := clock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memory.NewStore()
	funds := ledger.New()
	reg := registry.New()
	lands := registry.NewNFTCollection(landsAddr)

	engine := service.NewRentalEngine(service.RentalConfig{
		OffererGraceDelay: 48 * time.Hour,
		ValidityWindow:    7 * day,
		PeriodLength:      30 * day,
		FeePercentage:     10,
		FeeReceiver:       feeReceiver,
		HostingAddress:    hostingAddr,
	}, store.AssetStateRepository, store.SettlementRepository, funds.Account(custody), custody, reg, clk)
	containers := service.NewContainerIndex(service.ContainerConfig{
		Address:        boxAddr,
		LandCollection: landsAddr,
		MaxMembers:     50,
	}, store.ContainerRepository, lands, engine, clk)
	engine.SetContainmentChecker(containers)
	hosting := service.NewHosting(service.HostingConfig{
		Address:      hostingAddr,
		Admin:        admin,
		FeeReceiver:  feeReceiver,
		PeriodLength: 30 * day,
	}, store.HostingTierRepository, store.SettlementRepository, funds.Account(hostingAddr), reg, engine, clk)

	reg.Register(landsAddr, lands)
	reg.Register(boxAddr, containers)
	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, lands.Mint(owner, id))
	}
	funds.Mint(owner, 10_000)
	funds.Mint(renter, 10_000)

	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	h := NewHandler(Services{
		Rental:     engine,
		NoRent:     engine,
		Containers: containers,
		Hosting:    hosting,
		Assets:     reg,
		Funds:      funds,
		Approvals:  reg,
		Sequencer:  service.NewSequencer(),
	})

	return &testServer{
		t:      t,
		router: NewRouter(h, NewAuthMiddleware(tokens), NewRateLimiter(limit, burst)),
		tokens: tokens,
		clock:  clk,
		ledger: funds,
	}
}

// do sends a request as who; an empty who sends no token.
func (s *testServer) do(method, path string, who domain.Address, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if who != "" {
		token, err := s.tokens.GenerateAccessToken(who, nil)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func assetPath(id uint64, suffix string) string {
	return fmt.Sprintf("/api/v1/assets/%s/%d%s", landsAddr, id, suffix)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t, rate.Inf, 1)

	t.Run("Public Route Without Token", func(t *testing.T) {
		w := s.do(http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("Protected Route Without Token", func(t *testing.T) {
		w := s.do(http.MethodPost, assetPath(1, "/offers"), "", map[string]any{"amount": 100, "months": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Garbage Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, assetPath(1, "/accept"), nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRouter_OfferLifecycle(t *testing.T) {
	s := newTestServer(t, rate.Inf, 1)

	w := s.do(http.MethodPost, "/api/v1/ledger/approvals", renter, map[string]any{"spender": custody, "amount": 5_000})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, assetPath(1, "/offers"), renter, map[string]any{"amount": 1_000, "months": 2, "metadata_uri": "ipfs://terms"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	offer := decodeBody[domain.Offer](t, w)
	assert.Equal(t, renter, offer.Offerer)
	assert.Equal(t, domain.Amount(1_000), offer.Amount)

	w = s.do(http.MethodGet, assetPath(1, ""), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeBody[assetView](t, w)
	assert.Equal(t, domain.RentalStatusOffered, view.Status)
	assert.Equal(t, owner, view.Owner)
	require.NotNil(t, view.Offer)
	assert.Nil(t, view.ContainerID)

	w = s.do(http.MethodPost, assetPath(1, "/offers"), renter, map[string]any{"amount": 900, "months": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, assetPath(1, "/accept"), renter, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, assetPath(1, "/accept"), owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tenancy := decodeBody[domain.Tenancy](t, w)
	assert.Equal(t, renter, tenancy.Renter)

	w = s.do(http.MethodGet, assetPath(1, ""), "", nil)
	view = decodeBody[assetView](t, w)
	assert.Equal(t, domain.RentalStatusRented, view.Status)
	assert.Nil(t, view.Offer)

	w = s.do(http.MethodGet, assetPath(1, "/settlements"), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeBody[[]domain.SettlementEntry](t, w)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.SettlementKindEscrow, entries[0].Kind)

	w = s.do(http.MethodGet, "/api/v1/balances/"+owner.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Amount(10_900), decodeBody[balanceResponse](t, w).Balance)
}

func TestRouter_CancelAndRelease(t *testing.T) {
	s := newTestServer(t, rate.Inf, 1)
	require.NoError(t, s.ledger.Approve(context.Background(), renter, custody, 5_000))

	w := s.do(http.MethodPost, assetPath(2, "/offers"), renter, map[string]any{"amount": 500, "months": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, assetPath(2, "/release"), owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, assetPath(2, "/offers"), renter, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, assetPath(2, "/offers"), renter, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BadRequests(t *testing.T) {
	s := newTestServer(t, rate.Inf, 1)

	t.Run("Unknown Field", func(t *testing.T) {
		w := s.do(http.MethodPost, assetPath(1, "/offers"), renter, map[string]any{"price": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Malformed Collection", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/v1/assets/0x1234/1", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown Asset", func(t *testing.T) {
		w := s.do(http.MethodGet, assetPath(42, ""), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Insufficient Approval", func(t *testing.T) {
		w := s.do(http.MethodPost, assetPath(1, "/offers"), renter, map[string]any{"amount": 100, "months": 1})
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("Negative Allowance", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/ledger/approvals", renter, map[string]any{"spender": custody, "amount": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_Containers(t *testing.T) {
	s := newTestServer(t, rate.Inf, 1)

	w := s.do(http.MethodPost, "/api/v1/containers", owner, map[string]any{"token_ids": []uint64{1, 2}, "name": "north"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/collections/"+landsAddr.String()+"/approvals", owner, map[string]any{"operator": boxAddr, "approved": true})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, "/api/v1/containers", owner, map[string]any{"token_ids": []uint64{1, 2}, "name": "north"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[domain.Container](t, w)
	assert.Equal(t, uint64(0), created.ID)

	w = s.do(http.MethodGet, "/api/v1/containers/0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "north", decodeBody[domain.Container](t, w).Name)

	w = s.do(http.MethodGet, assetPath(1, ""), "", nil)
	view := decodeBody[assetView](t, w)
	require.NotNil(t, view.ContainerID)
	assert.Equal(t, uint64(0), *view.ContainerID)

	w = s.do(http.MethodDelete, "/api/v1/containers/0", renter, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/containers/0", owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/containers/0", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_HostingTiers(t *testing.T) {
	s := newTestServer(t, rate.Inf, 1)
	tier := map[string]any{"id": 1, "price_per_month": 10, "months": 1, "max_months": 12, "enabled": true}

	w := s.do(http.MethodPost, "/api/v1/hosting/tiers", owner, tier)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/hosting/tiers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/hosting/tiers", admin, tier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/hosting/tiers", "", nil)
	tiers := decodeBody[[]domain.HostingTier](t, w)
	require.Len(t, tiers, 1)
	assert.Equal(t, int32(1), tiers[0].Months)

	tier["months"] = 2
	w = s.do(http.MethodPut, "/api/v1/hosting/tiers/1", admin, tier)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/hosting/tiers", "", nil)
	tiers = decodeBody[[]domain.HostingTier](t, w)
	require.Len(t, tiers, 1)
	assert.Equal(t, int32(2), tiers[0].Months)

	require.NoError(t, s.ledger.Approve(context.Background(), owner, hostingAddr, 1_000))
	w = s.do(http.MethodPost, assetPath(3, "/hosting-fees"), owner, map[string]any{"tier_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sub := decodeBody[domain.NoRentSubscription](t, w)
	assert.Equal(t, s.clock.Now().Add(60*day), sub.PaidUntil)

	w = s.do(http.MethodPost, assetPath(3, "/norent/extend"), owner, map[string]any{"months": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, rate.Every(time.Hour), 2)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/healthz", "", nil).Code)

	// Authenticated callers get their own bucket.
	w := s.do(http.MethodGet, "/api/v1/hosting/tiers", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	w = s.do(http.MethodPost, "/api/v1/ledger/approvals", renter, map[string]any{"spender": custody, "amount": 1})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", domain.ErrOfferTooLow), http.StatusConflict},
		{domain.ErrAcceptanceWindowExpired, http.StatusConflict},
		{domain.ErrReentrantCall, http.StatusConflict},
		{domain.ErrNotAuthorized, http.StatusForbidden},
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{domain.ErrNoOffer, http.StatusNotFound},
		{domain.ErrContainerTooLarge, http.StatusBadRequest},
		{errUnauthenticated, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
