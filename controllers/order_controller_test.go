package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"billing-service/controllers"
	"billing-service/middleware"
	"billing-service/models"
	"billing-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// --- Mock Order Service ---

type mockOrderService struct {
	createFn  func(ctx context.Context, userID uuid.UUID, email string, req *models.CreateOrderRequest) (*models.CheckoutResponse, *services.ServiceError)
	getFn     func(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, *services.ServiceError)
	listFn    func(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, *services.ServiceError)
	cancelFn  func(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID, reason string) (*models.Order, *services.ServiceError)
	expireFn  func(ctx context.Context) (int, *services.ServiceError)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, email string, req *models.CreateOrderRequest) (*models.CheckoutResponse, *services.ServiceError) {
	return m.createFn(ctx, userID, email, req)
}

func (m *mockOrderService) GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, *services.ServiceError) {
	return m.getFn(ctx, userID, isAdmin, orderID)
}

func (m *mockOrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, *services.ServiceError) {
	return m.listFn(ctx, userID, page, limit)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID, reason string) (*models.Order, *services.ServiceError) {
	return m.cancelFn(ctx, userID, isAdmin, orderID, reason)
}

func (m *mockOrderService) ApplySettlement(context.Context, uuid.UUID, int64, string) (bool, *services.ServiceError) {
	return false, nil
}

func (m *mockOrderService) ApplyGatewayFailure(context.Context, uuid.UUID, string) (bool, *services.ServiceError) {
	return false, nil
}

func (m *mockOrderService) ExpireStale(ctx context.Context) (int, *services.ServiceError) {
	return m.expireFn(ctx)
}

func setupOrderRouter(svc services.OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	oc := controllers.NewOrderController(svc)

	orders := r.Group("/orders")
	orders.Use(middleware.AuthMiddleware())
	orders.POST("", oc.CreateOrder)
	orders.GET("", oc.ListOrders)
	orders.GET("/:id", oc.GetOrder)
	orders.POST("/:id/cancel", oc.CancelOrder)

	admin := orders.Group("")
	admin.Use(middleware.AdminOnly())
	admin.POST("/sweep", oc.SweepExpired)
	return r
}

func TestCreateOrder_HTTP_Success(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &mockOrderService{
		createFn: func(_ context.Context, gotUser uuid.UUID, email string, req *models.CreateOrderRequest) (*models.CheckoutResponse, *services.ServiceError) {
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, "user@example.com", email)
			assert.Equal(t, 2, req.Hours)
			return &models.CheckoutResponse{
				OrderID:          orderID,
				PaymentReference: uuid.New(),
				CheckoutURL:      "https://pay.example.com/c/1",
				TotalAmount:      23000,
				Currency:         "EUR",
			}, nil
		},
	}
	router := setupOrderRouter(svc)

	body, _ := json.Marshal(gin.H{"service_id": uuid.New(), "hours": 2})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("X-User-ID", userID.String())
	req.Header.Set("X-User-Email", "user@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.CheckoutResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, orderID, resp.OrderID)
	assert.Equal(t, int64(23000), resp.TotalAmount)
}

func TestCreateOrder_HTTP_MissingIdentity(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	body, _ := json.Marshal(gin.H{"service_id": uuid.New(), "hours": 1})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_HTTP_InvalidBody(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{"hours":0}`)))
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder_HTTP_GatewayUnavailable(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(context.Context, uuid.UUID, string, *models.CreateOrderRequest) (*models.CheckoutResponse, *services.ServiceError) {
			return nil, services.ErrGatewayUnavailable("payment gateway is unavailable, try again later")
		},
	}
	router := setupOrderRouter(svc)

	body, _ := json.Marshal(gin.H{"service_id": uuid.New(), "hours": 1})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "gateway_unavailable")
}

func TestGetOrder_HTTP_InvalidID(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOrder_HTTP_Conflict(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(context.Context, uuid.UUID, bool, uuid.UUID, string) (*models.Order, *services.ServiceError) {
			return nil, services.ErrInvalidState("only pending orders can be cancelled")
		},
	}
	router := setupOrderRouter(svc)

	url := fmt.Sprintf("/orders/%s/cancel", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(`{"reason":"late"}`)))
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelOrder_HTTP_EmptyBodyAllowed(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(_ context.Context, _ uuid.UUID, _ bool, orderID uuid.UUID, reason string) (*models.Order, *services.ServiceError) {
			assert.Empty(t, reason)
			return &models.Order{ID: orderID, Status: models.OrderStatusCancelled}, nil
		},
	}
	router := setupOrderRouter(svc)

	url := fmt.Sprintf("/orders/%s/cancel", uuid.New())
	req := httptest.NewRequest(http.MethodPost, url, nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSweepExpired_HTTP_AdminOnly(t *testing.T) {
	svc := &mockOrderService{
		expireFn: func(context.Context) (int, *services.ServiceError) { return 3, nil },
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/sweep", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/orders/sweep", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	req.Header.Set("X-User-Role", "admin")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled_count":3`)
}

func TestListOrders_HTTP_Pagination(t *testing.T) {
	svc := &mockOrderService{
		listFn: func(_ context.Context, _ uuid.UUID, page, limit int) ([]models.Order, int64, *services.ServiceError) {
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, limit)
			return []models.Order{{ID: uuid.New()}}, 11, nil
		},
	}
	router := setupOrderRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/orders?page=2&limit=5", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":11`)
}
