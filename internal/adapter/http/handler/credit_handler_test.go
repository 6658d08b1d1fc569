package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/adapter/http/handler"
	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
	"github.com/fablepress/fulfillment/internal/usecase/mocks"
)

type creditFixture struct {
	accountRepo *mocks.MockAccountRepository
	entryRepo   *mocks.MockEntryRepository
	pricingRepo *mocks.MockPricingRepository
	handler     *handler.CreditHandler
}

func newCreditFixture() *creditFixture {
	f := &creditFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		entryRepo:   mocks.NewMockEntryRepository(),
		pricingRepo: mocks.NewMockPricingRepository(),
	}

	uc := usecase.NewLedgerUseCase(
		mocks.NewMockTransactionManager(),
		f.accountRepo,
		f.entryRepo,
		f.pricingRepo,
		mocks.NewMockOutboxRepository(),
		mocks.NewMockIDGenerator(),
		nil,
	)

	f.handler = handler.NewCreditHandler(uc)
	return f
}

func TestGetBalance(t *testing.T) {
	f := newCreditFixture()
	f.accountRepo.SetBalance("owner-1", 42)

	req := asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/credits/balance", nil), "owner-1")
	rec := httptest.NewRecorder()
	f.handler.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Balance != 42 {
		t.Errorf("expected balance 42, got %d", resp.Balance)
	}
}

func TestGetBalance_UnknownOwnerIsZero(t *testing.T) {
	f := newCreditFixture()

	req := asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/credits/balance", nil), "owner-new")
	rec := httptest.NewRecorder()
	f.handler.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Balance != 0 {
		t.Errorf("expected balance 0, got %d", resp.Balance)
	}
}

func TestGrant(t *testing.T) {
	f := newCreditFixture()

	body, _ := json.Marshal(dto.GrantCreditsRequest{OwnerID: "owner-1", Amount: 25})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/grant", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.Grant(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Balance != 25 {
		t.Errorf("expected balance 25, got %d", resp.Balance)
	}

	entries := f.entryRepo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Amount != 25 {
		t.Errorf("expected entry amount 25, got %d", entries[0].Amount)
	}
}

func TestGrant_RejectsNonPositiveAmount(t *testing.T) {
	f := newCreditFixture()

	for _, amount := range []int64{0, -5} {
		body, _ := json.Marshal(dto.GrantCreditsRequest{OwnerID: "owner-1", Amount: amount})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/grant", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		f.handler.Grant(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("amount %d: expected status 400, got %d", amount, rec.Code)
		}
	}
}

func TestPurchase(t *testing.T) {
	f := newCreditFixture()
	f.pricingRepo.AddPack(&domain.CreditPack{
		ID:       "pack-starter",
		Name:     "Starter",
		Credits:  50,
		Price:    decimal.NewFromFloat(4.99),
		Currency: "USD",
		Active:   true,
	})

	body, _ := json.Marshal(dto.PurchasePackRequest{PackID: "pack-starter"})
	req := asOwner(httptest.NewRequest(http.MethodPost, "/api/v1/credits/purchase", bytes.NewReader(body)), "owner-1")
	rec := httptest.NewRecorder()
	f.handler.Purchase(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Balance != 50 {
		t.Errorf("expected balance 50, got %d", resp.Balance)
	}
}

func TestPurchase_UnknownPack(t *testing.T) {
	f := newCreditFixture()

	body, _ := json.Marshal(dto.PurchasePackRequest{PackID: "pack-missing"})
	req := asOwner(httptest.NewRequest(http.MethodPost, "/api/v1/credits/purchase", bytes.NewReader(body)), "owner-1")
	rec := httptest.NewRecorder()
	f.handler.Purchase(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListPacks(t *testing.T) {
	f := newCreditFixture()
	f.pricingRepo.AddPack(&domain.CreditPack{
		ID:       "pack-starter",
		Name:     "Starter",
		Credits:  50,
		Price:    decimal.NewFromFloat(4.99),
		Currency: "USD",
		Active:   true,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/packs", nil)
	rec := httptest.NewRecorder()
	f.handler.ListPacks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []dto.PackResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 pack, got %d", len(resp))
	}
	if !resp[0].Price.Equal(decimal.NewFromFloat(4.99)) {
		t.Errorf("expected price 4.99, got %s", resp[0].Price)
	}
}

func TestListEntries(t *testing.T) {
	f := newCreditFixture()

	body, _ := json.Marshal(dto.GrantCreditsRequest{OwnerID: "owner-1", Amount: 10})
	grantReq := httptest.NewRequest(http.MethodPost, "/api/v1/credits/grant", bytes.NewReader(body))
	grantRec := httptest.NewRecorder()
	f.handler.Grant(grantRec, grantReq)
	if grantRec.Code != http.StatusOK {
		t.Fatalf("setup grant failed: %d", grantRec.Code)
	}

	req := asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/credits/entries", nil), "owner-1")
	rec := httptest.NewRecorder()
	f.handler.ListEntries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []dto.EntryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp))
	}
	if resp[0].Amount != 10 {
		t.Errorf("expected amount 10, got %d", resp[0].Amount)
	}
}
