package http_test

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	adapterhttp "github.com/fablepress/fulfillment/internal/adapter/http"
	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/adapter/http/handler"
	"github.com/fablepress/fulfillment/internal/adapter/http/middleware"
	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
	"github.com/fablepress/fulfillment/internal/usecase/mocks"
)

func newTestRouter(t *testing.T) stdhttp.Handler {
	t.Helper()

	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.SetBalance("owner-1", 100)

	storyRepo := mocks.NewMockStoryRepository()
	storyRepo.Add(&domain.Story{
		ID:      "story-1",
		OwnerID: "owner-1",
		Title:   "The Long Rain",
		Status:  domain.StoryStatusCompleted,
	})

	pricingRepo := mocks.NewMockPricingRepository()
	pricingRepo.SetPrice(domain.KindPrint, 8)
	pricingRepo.SetPrice(domain.KindNarration, 12)

	entryRepo := mocks.NewMockEntryRepository()
	requestRepo := mocks.NewMockRequestRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	txManager := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	fulfillmentUC := usecase.NewFulfillmentUseCase(usecase.FulfillmentConfig{
		TxManager:   txManager,
		AccountRepo: accountRepo,
		EntryRepo:   entryRepo,
		RequestRepo: requestRepo,
		StoryRepo:   storyRepo,
		PricingRepo: pricingRepo,
		OutboxRepo:  outboxRepo,
		WorkOrders:  mocks.NewMockWorkOrderClient(),
		Dispatcher:  mocks.NewMockJobDispatcher(),
		Dedup:       mocks.NewMockDedupStore(),
		IDGen:       idGen,
		Logger:      zerolog.Nop(),
	})
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, pricingRepo, outboxRepo, idGen, nil)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, ledgerRepo, requestRepo)
	storyUC := usecase.NewStoryUseCase(storyRepo)

	return adapterhttp.NewRouter(adapterhttp.RouterConfig{
		FulfillmentHandler: handler.NewFulfillmentHandler(fulfillmentUC),
		CreditHandler:      handler.NewCreditHandler(ledgerUC),
		StoryHandler:       handler.NewStoryHandler(storyUC),
		LedgerHandler:      handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:      handler.NewHealthHandler(nil, nil),
		Logger:             zerolog.Nop(),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_OwnerHeaderFallback(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(dto.RequestFulfillmentRequest{StoryID: "story-1", Kind: "print"})
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/fulfillments", bytes.NewReader(body))
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.FulfillmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NewBalance != 92 {
		t.Errorf("expected new balance 92, got %d", resp.NewBalance)
	}
}

func TestRouter_MissingOwnerRejected(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(dto.RequestFulfillmentRequest{StoryID: "story-1", Kind: "print"})
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/fulfillments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_WiresLedgerRoutes(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/ledger/consistency", nil)
	req.Header.Set(middleware.OwnerHeader, "operator-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_StoryLookup(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/stories/story-1", nil)
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.StoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "story-1" {
		t.Errorf("expected story-1, got %s", resp.ID)
	}
}
