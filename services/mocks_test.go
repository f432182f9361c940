package services_test

import (
	"context"
	"sync"
	"time"

	"billing-service/gateway"
	"billing-service/models"
	"billing-service/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Mock Order Repository ---

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			result = append(result, *o)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockOrderRepo) ConditionalTransition(_ context.Context, id uuid.UUID, toStatus, note string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = toStatus
	if note != "" {
		order.AdminNotes += "\n" + note
	}
	order.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockOrderRepo) FindStalePending(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Order
	for _, o := range m.orders {
		if o.Status == models.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			result = append(result, *o)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// --- Mock Payment Repository ---

type mockPaymentRepo struct {
	mu        sync.Mutex
	payments  map[uuid.UUID]*models.Payment // keyed by payment_reference
	createErr error
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[uuid.UUID]*models.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	clone := *payment
	m.payments[payment.PaymentReference] = &clone
	return nil
}

func (m *mockPaymentRepo) FindByReference(_ context.Context, reference uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payment
	return &clone, nil
}

func (m *mockPaymentRepo) SetCheckoutDetails(_ context.Context, id uuid.UUID, checkoutURL, providerTxnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ID == id {
			p.CheckoutURL = &checkoutURL
			p.ProviderTxnID = &providerTxnID
		}
	}
	return nil
}

func (m *mockPaymentRepo) MirrorGatewayStatus(_ context.Context, id uuid.UUID, status string, paidAt *time.Time, rawPayload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ID == id {
			p.Status = status
			p.PaidAt = paidAt
			if rawPayload != "" {
				p.ProviderPayload = &rawPayload
			}
		}
	}
	return nil
}

// --- Mock Coupon Repository ---

type mockCouponRepo struct {
	mu        sync.Mutex
	coupons   map[uuid.UUID]*models.Coupon
	createErr error
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[uuid.UUID]*models.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	clone := *coupon
	m.coupons[coupon.ID] = &clone
	return nil
}

func (m *mockCouponRepo) FindActiveByUser(_ context.Context, userID uuid.UUID, now time.Time) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.UserID == userID && !c.Used && c.ExpiresAt.After(now) {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCouponRepo) MarkUsedIfActive(_ context.Context, couponID, orderID uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[couponID]
	if !ok || c.Used || !c.ExpiresAt.After(now) {
		return false, nil
	}
	c.Used = true
	c.RedeemedOrderID = &orderID
	return true, nil
}

func (m *mockCouponRepo) Release(_ context.Context, couponID, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[couponID]
	if !ok || !c.Used || c.RedeemedOrderID == nil || *c.RedeemedOrderID != orderID {
		return nil
	}
	c.Used = false
	c.RedeemedOrderID = nil
	return nil
}

// --- Mock Audit Repository ---

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *mockAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) all() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.entries...)
}

// --- Mock Catalog Client ---

type mockCatalog struct {
	entries map[uuid.UUID]*services.CatalogService
	err     error
}

func (m *mockCatalog) FetchService(_ context.Context, serviceID uuid.UUID) (*services.CatalogService, error) {
	if m.err != nil {
		return nil, m.err
	}
	svc, ok := m.entries[serviceID]
	if !ok {
		return nil, services.ErrNotFound("service not found in catalog")
	}
	return svc, nil
}

// --- Mock Gateway ---

type mockGateway struct {
	mu          sync.Mutex
	checkoutErr error
	sessions    []gateway.CheckoutRequest
	parsed      *gateway.WebhookEvent
	parseErr    error
}

func (m *mockGateway) CreateCheckout(_ context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkoutErr != nil {
		return nil, m.checkoutErr
	}
	m.sessions = append(m.sessions, req)
	return &gateway.CheckoutSession{
		CheckoutURL:   "https://pay.example.com/c/" + req.PaymentReference.String(),
		ProviderTxnID: "txn_" + req.PaymentReference.String()[:8],
	}, nil
}

func (m *mockGateway) ParseWebhook(_ []byte, _ string) (*gateway.WebhookEvent, error) {
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	return m.parsed, nil
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (m *mockPublisher) PublishOrderEvent(_ context.Context, event models.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) typesSeen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}
