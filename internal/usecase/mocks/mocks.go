package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	balances map[string]int64

	GetByOwnerFunc    func(ctx context.Context, ownerID string) (*domain.CreditAccount, error)
	DebitBalanceFunc  func(ctx context.Context, tx usecase.Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error)
	CreditBalanceFunc func(ctx context.Context, tx usecase.Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*domain.CreditAccount, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		balances: make(map[string]int64),
	}
}

// SetBalance seeds an account balance.
func (m *MockAccountRepository) SetBalance(ownerID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[ownerID] = balance
}

func (m *MockAccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.CreditAccount, error) {
	if m.GetByOwnerFunc != nil {
		return m.GetByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance, ok := m.balances[ownerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &domain.CreditAccount{OwnerID: ownerID, Balance: balance}, nil
}

func (m *MockAccountRepository) DebitBalance(ctx context.Context, tx usecase.Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error) {
	if m.DebitBalanceFunc != nil {
		return m.DebitBalanceFunc(ctx, tx, ownerID, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := m.balances[ownerID]
	if balance < amount {
		return 0, &domain.InsufficientCreditsError{Required: amount, Available: balance}
	}
	m.balances[ownerID] = balance - amount
	return m.balances[ownerID], nil
}

func (m *MockAccountRepository) CreditBalance(ctx context.Context, tx usecase.Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error) {
	if m.CreditBalanceFunc != nil {
		return m.CreditBalanceFunc(ctx, tx, ownerID, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[ownerID] += amount
	return m.balances[ownerID], nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.CreditAccount, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.CreditAccount, 0, len(m.balances))
	for owner, balance := range m.balances {
		accounts = append(accounts, &domain.CreditAccount{OwnerID: owner, Balance: balance})
	}
	return accounts, nil
}

// Balance returns the current mock balance for assertions.
func (m *MockAccountRepository) Balance(ownerID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[ownerID]
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.OwnerID == ownerID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockEntryRepository) SumByOwner(ctx context.Context, ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, e := range m.entries {
		if e.OwnerID == ownerID {
			sum += e.Amount
		}
	}
	return sum, nil
}

// Entries returns a copy of all recorded entries for assertions.
func (m *MockEntryRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MockRequestRepository is a mock implementation of RequestRepository.
type MockRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.FulfillmentRequest

	CreateFunc        func(ctx context.Context, request *domain.FulfillmentRequest) error
	MarkCommittedFunc func(ctx context.Context, tx usecase.Transaction, id, workOrderID string, updatedAt time.Time) error
	MarkFailedFunc    func(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) (bool, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{
		requests: make(map[string]*domain.FulfillmentRequest),
	}
}

func (m *MockRequestRepository) Create(ctx context.Context, request *domain.FulfillmentRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *request
	m.requests[request.ID] = &cp
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.FulfillmentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrRequestNotFound
}

func (m *MockRequestRepository) MarkCommitted(ctx context.Context, tx usecase.Transaction, id, workOrderID string, updatedAt time.Time) error {
	if m.MarkCommittedFunc != nil {
		return m.MarkCommittedFunc(ctx, tx, id, workOrderID, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	r.Status = domain.RequestStatusCommitted
	r.WorkOrderID = &workOrderID
	r.UpdatedAt = updatedAt
	return nil
}

func (m *MockRequestRepository) MarkFailed(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) (bool, error) {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, tx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, domain.ErrRequestNotFound
	}
	if r.Status != domain.RequestStatusCommitted {
		return false, nil
	}
	r.Status = domain.RequestStatusFailed
	r.UpdatedAt = updatedAt
	return true, nil
}

func (m *MockRequestRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if !r.Deletable() {
		return domain.ErrRequestNotDeletable
	}
	delete(m.requests, id)
	return nil
}

func (m *MockRequestRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FulfillmentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.FulfillmentRequest
	for _, r := range m.requests {
		if r.OwnerID == ownerID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockRequestRepository) ListRefundedWithWorkOrder(ctx context.Context, limit int) ([]*domain.FulfillmentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.FulfillmentRequest
	for _, r := range m.requests {
		if r.Status == domain.RequestStatusFailed && r.WorkOrderID != nil {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Count returns the number of stored request rows.
func (m *MockRequestRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// MockStoryRepository is a mock implementation of StoryRepository.
type MockStoryRepository struct {
	mu      sync.RWMutex
	stories map[string]*domain.Story

	GetByIDFunc func(ctx context.Context, id string) (*domain.Story, error)
}

func NewMockStoryRepository() *MockStoryRepository {
	return &MockStoryRepository{
		stories: make(map[string]*domain.Story),
	}
}

// Add seeds a story.
func (m *MockStoryRepository) Add(story *domain.Story) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *story
	m.stories[story.ID] = &cp
}

func (m *MockStoryRepository) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.stories[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrStoryNotFound
}

func (m *MockStoryRepository) SetFulfillmentInProgress(ctx context.Context, tx usecase.Transaction, storyID string, kind domain.FulfillmentKind, inProgress bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[storyID]
	if !ok {
		return domain.ErrStoryNotFound
	}
	switch kind {
	case domain.KindPrint:
		s.PrintInProgress = inProgress
	case domain.KindNarration:
		s.NarrationInProgress = inProgress
	}
	s.UpdatedAt = updatedAt
	return nil
}

// Story returns the stored story for assertions.
func (m *MockStoryRepository) Story(id string) *domain.Story {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.stories[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// MockPricingRepository is a mock implementation of PricingRepository.
type MockPricingRepository struct {
	mu     sync.RWMutex
	prices map[domain.FulfillmentKind]int64
	packs  map[string]*domain.CreditPack

	GetPriceFunc func(ctx context.Context, kind domain.FulfillmentKind) (*domain.Price, error)
}

func NewMockPricingRepository() *MockPricingRepository {
	return &MockPricingRepository{
		prices: make(map[domain.FulfillmentKind]int64),
		packs:  make(map[string]*domain.CreditPack),
	}
}

// SetPrice seeds a price.
func (m *MockPricingRepository) SetPrice(kind domain.FulfillmentKind, credits int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[kind] = credits
}

// AddPack seeds a credit pack.
func (m *MockPricingRepository) AddPack(pack *domain.CreditPack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pack
	m.packs[pack.ID] = &cp
}

func (m *MockPricingRepository) GetPrice(ctx context.Context, kind domain.FulfillmentKind) (*domain.Price, error) {
	if m.GetPriceFunc != nil {
		return m.GetPriceFunc(ctx, kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	credits, ok := m.prices[kind]
	if !ok {
		return nil, domain.ErrPriceNotFound
	}
	return &domain.Price{Kind: kind, Credits: credits}, nil
}

func (m *MockPricingRepository) GetPack(ctx context.Context, id string) (*domain.CreditPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.packs[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPackNotFound
}

func (m *MockPricingRepository) ListPacks(ctx context.Context) ([]*domain.CreditPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	packs := make([]*domain.CreditPack, 0, len(m.packs))
	for _, p := range m.packs {
		cp := *p
		packs = append(packs, &cp)
	}
	return packs, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			result = append(result, e)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Events returns a copy of all recorded events for assertions.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	CheckConsistencyFunc func(ctx context.Context) ([]usecase.BalanceMismatch, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) ([]usecase.BalanceMismatch, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	return nil, nil
}

// MockTransaction is a no-op transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	return nil
}

// MockTransactionManager hands out no-op transactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

// MockWorkOrderClient is a mock implementation of WorkOrderClient.
type MockWorkOrderClient struct {
	mu     sync.Mutex
	orders []usecase.WorkOrder

	CreateFunc func(ctx context.Context, order usecase.WorkOrder) (string, error)
}

func NewMockWorkOrderClient() *MockWorkOrderClient {
	return &MockWorkOrderClient{}
}

func (m *MockWorkOrderClient) Create(ctx context.Context, order usecase.WorkOrder) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
	return fmt.Sprintf("wo-%d", len(m.orders)), nil
}

// Orders returns the recorded work orders.
func (m *MockWorkOrderClient) Orders() []usecase.WorkOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]usecase.WorkOrder, len(m.orders))
	copy(out, m.orders)
	return out
}

// MockJobDispatcher is a mock implementation of JobDispatcher.
type MockJobDispatcher struct {
	mu   sync.Mutex
	jobs []usecase.Job

	PublishFunc func(ctx context.Context, job usecase.Job) (string, error)
}

func NewMockJobDispatcher() *MockJobDispatcher {
	return &MockJobDispatcher{}
}

func (m *MockJobDispatcher) Publish(ctx context.Context, job usecase.Job) (string, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return fmt.Sprintf("msg-%d", len(m.jobs)), nil
}

// Jobs returns the recorded jobs.
func (m *MockJobDispatcher) Jobs() []usecase.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]usecase.Job, len(m.jobs))
	copy(out, m.jobs)
	return out
}

// MockNotificationDispatcher is a mock implementation of NotificationDispatcher.
type MockNotificationDispatcher struct {
	mu    sync.Mutex
	sends []string

	SendFunc func(ctx context.Context, template, recipient string, variables map[string]string) error
}

func NewMockNotificationDispatcher() *MockNotificationDispatcher {
	return &MockNotificationDispatcher{}
}

func (m *MockNotificationDispatcher) Send(ctx context.Context, template, recipient string, variables map[string]string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, template, recipient, variables)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, template+":"+recipient)
	return nil
}

// Sends returns the recorded notification sends.
func (m *MockNotificationDispatcher) Sends() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sends))
	copy(out, m.sends)
	return out
}

// MockDedupStore is an in-memory DedupStore.
type MockDedupStore struct {
	mu   sync.Mutex
	keys map[string]bool

	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

func NewMockDedupStore() *MockDedupStore {
	return &MockDedupStore{keys: make(map[string]bool)}
}

func (m *MockDedupStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *MockDedupStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
