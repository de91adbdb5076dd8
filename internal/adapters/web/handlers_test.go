package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	webAdapter "fulfillment-console/internal/adapters/web"
	"fulfillment-console/internal/app"
	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

// stubService records the interesting arguments and returns canned values.
type stubService struct {
	lastAdmin   bool
	freightErr  error
	lastStage   core.ItemStatus
	lastOrderID int
}

func (s *stubService) SetStage(_ context.Context, stage core.ItemStatus) error {
	s.lastStage = stage
	return nil
}
func (s *stubService) Stage() core.ItemStatus          { return core.StatusStaging }
func (s *stubService) SetFilter(core.FilterState)      {}
func (s *stubService) Filter() core.FilterState        { return core.FilterState{} }
func (s *stubService) Reload(context.Context) error    { return nil }
func (s *stubService) ListItems(page int) *app.ItemPageResult {
	return &app.ItemPageResult{Page: page, TotalPages: 1}
}
func (s *stubService) ListCodeGroups(page int) *app.CodeGroupPageResult {
	return &app.CodeGroupPageResult{Page: page, TotalPages: 1}
}
func (s *stubService) ListOrderGroups(page int) (*app.OrderGroupPageResult, error) {
	return &app.OrderGroupPageResult{Page: page, TotalPages: 1}, nil
}
func (s *stubService) ToggleSelection(core.SelectionCategory, int, int) error { return nil }
func (s *stubService) ToggleAllSelection(core.SelectionCategory, int) error   { return nil }
func (s *stubService) Selection(core.SelectionCategory, int) ([]int, error)   { return nil, nil }
func (s *stubService) DistributeFreight(_ context.Context, orderID int, _ decimal.Decimal) (*app.FreightResult, error) {
	s.lastOrderID = orderID
	if s.freightErr != nil {
		return nil, s.freightErr
	}
	return &app.FreightResult{OrderID: orderID}, nil
}
func (s *stubService) AssignTracking(context.Context, int, string, decimal.Decimal) error {
	return nil
}
func (s *stubService) ChangeStatus(_ context.Context, _ int, _ core.ItemStatus, admin bool) error {
	s.lastAdmin = admin
	return nil
}
func (s *stubService) ApplyCombined(_ context.Context, _ int, _ core.CombinedRequest, admin bool) error {
	s.lastAdmin = admin
	return nil
}
func (s *stubService) BulkStatus(context.Context, int, core.ItemStatus) (*backend.BulkStatusResult, error) {
	return &backend.BulkStatusResult{}, nil
}
func (s *stubService) PartialPurchase(context.Context, core.ItemRef, core.PartialPurchaseRequest) error {
	return nil
}
func (s *stubService) PartialShipment(context.Context, core.ItemRef, core.PartialShipmentRequest) error {
	return nil
}
func (s *stubService) UpdateItem(context.Context, core.ItemRef, backend.ItemPatch) error { return nil }
func (s *stubService) ToggleReadyForDispatch(_ context.Context, orderID int) error {
	s.lastOrderID = orderID
	return nil
}
func (s *stubService) AttachSalesInvoice(context.Context, app.AttachInvoiceRequest) error {
	return nil
}
func (s *stubService) DetachSalesInvoice(context.Context, int, string) error { return nil }
func (s *stubService) UpdateAddress(context.Context, int, string) error      { return nil }
func (s *stubService) ListSuppliers(context.Context) ([]string, error)       { return nil, nil }
func (s *stubService) GetStockDetail(context.Context, string) (*backend.StockDetail, error) {
	return &backend.StockDetail{}, nil
}

func mintToken(t *testing.T, user, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user": user,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth_IsPublic(t *testing.T) {
	handler := webAdapter.NewHandler(&stubService{}, "", testSecret)
	rec := doRequest(t, handler, http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d, want 200", rec.Code)
	}
}

func TestAPIRoutes_RequireAuth(t *testing.T) {
	handler := webAdapter.NewHandler(&stubService{}, "", testSecret)

	rec := doRequest(t, handler, http.MethodGet, "/api/items", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/items", "garbage", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/items", mintToken(t, "maria", "operator"), "")
	if rec.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200: %s", rec.Code, rec.Body)
	}
}

func TestDispatchFlag_AdminOnly(t *testing.T) {
	svc := &stubService{}
	handler := webAdapter.NewHandler(svc, "", testSecret)

	rec := doRequest(t, handler, http.MethodPost, "/api/orders/3/dispatch-flag", mintToken(t, "maria", "operator"), "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("operator = %d, want 403", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/orders/3/dispatch-flag", mintToken(t, "ana", "admin"), "")
	if rec.Code != http.StatusOK {
		t.Errorf("admin = %d, want 200: %s", rec.Code, rec.Body)
	}
	if svc.lastOrderID != 3 {
		t.Errorf("order id = %d, want 3", svc.lastOrderID)
	}
}

func TestChangeStatus_AdminFlagFromClaims(t *testing.T) {
	svc := &stubService{}
	handler := webAdapter.NewHandler(svc, "", testSecret)
	body := `{"status":"delivered"}`

	doRequest(t, handler, http.MethodPost, "/api/orders/1/status", mintToken(t, "maria", "operator"), body)
	if svc.lastAdmin {
		t.Error("operator must not get the admin override")
	}

	doRequest(t, handler, http.MethodPost, "/api/orders/1/status", mintToken(t, "ana", "admin"), body)
	if !svc.lastAdmin {
		t.Error("admin role must enable the override")
	}
}

func TestPreconditionFailure_Maps422(t *testing.T) {
	svc := &stubService{freightErr: core.ErrEmptySelection}
	handler := webAdapter.NewHandler(svc, "", testSecret)

	rec := doRequest(t, handler, http.MethodPost, "/api/orders/1/freight",
		mintToken(t, "maria", "operator"), `{"total":"50.00"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty selection = %d, want 422: %s", rec.Code, rec.Body)
	}
}

func TestBackendRejection_PassesDetailThrough(t *testing.T) {
	svc := &stubService{freightErr: &backend.APIError{StatusCode: http.StatusBadRequest, Message: "freight missing"}}
	handler := webAdapter.NewHandler(svc, "", testSecret)

	rec := doRequest(t, handler, http.MethodPost, "/api/orders/1/freight",
		mintToken(t, "maria", "operator"), `{"total":"50.00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("rejection = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "freight missing") {
		t.Errorf("body %q lacks backend detail", rec.Body.String())
	}
}

func TestSetStage(t *testing.T) {
	svc := &stubService{}
	handler := webAdapter.NewHandler(svc, "", testSecret)

	rec := doRequest(t, handler, http.MethodPost, "/api/view/stage",
		mintToken(t, "maria", "operator"), `{"stage":"purchased"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("set stage = %d, want 200: %s", rec.Code, rec.Body)
	}
	if svc.lastStage != core.StatusPurchased {
		t.Errorf("stage = %q, want purchased", svc.lastStage)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/view/stage",
		mintToken(t, "maria", "operator"), `{"stage":"lost"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown stage = %d, want 400", rec.Code)
	}
}
