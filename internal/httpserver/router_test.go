package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"coffeespot/internal/domain"
	"coffeespot/internal/service/account"
	ordersvc "coffeespot/internal/service/order"
	productsvc "coffeespot/internal/service/product"
	reviewsvc "coffeespot/internal/service/review"
	"coffeespot/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// stubAccounts resolves "customer-token" and "admin-token"; everything else is rejected.
type stubAccounts struct {
	loggedOut []string
	adminBy   *domain.Identity
}

var (
	customerID = domain.Identity{ID: "u1", Role: domain.RoleCustomer, TokenID: "jti-u1"}
	adminID    = domain.Identity{ID: "a1", Role: domain.RoleAdmin, TokenID: "jti-a1"}
)

func (s *stubAccounts) Authenticate(_ context.Context, raw string) (*account.Principal, error) {
	switch raw {
	case "customer-token":
		return &account.Principal{Identity: customerID}, nil
	case "admin-token":
		return &account.Principal{Identity: adminID}, nil
	case "":
		return nil, domain.Unauthorized("test", "Access denied. No token provided.")
	}
	return nil, domain.Unauthorized("test", "Invalid or expired token")
}

func (s *stubAccounts) Logout(_ context.Context, p account.Principal) error {
	s.loggedOut = append(s.loggedOut, p.Identity.TokenID)
	return nil
}

func (s *stubAccounts) RegisterUser(_ context.Context, in account.RegisterUserInput) (*domain.User, error) {
	return &domain.User{ID: "u9", UserName: in.UserName, Phone: in.Phone}, nil
}

func (s *stubAccounts) LoginUser(_ context.Context, phone, _ string) (*account.Session, *domain.User, error) {
	if phone != "555" {
		return nil, nil, domain.NotFound("test", "User not found")
	}
	return &account.Session{Token: "customer-token"}, &domain.User{ID: "u1", Phone: phone}, nil
}

func (s *stubAccounts) GetUser(_ context.Context, _ domain.Identity, id string) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (s *stubAccounts) UpdateUser(_ context.Context, _ domain.Identity, id string, in account.UpdateUserInput, _ *storage.Upload) (*domain.User, error) {
	u := &domain.User{ID: id}
	if in.UserName != nil {
		u.UserName = *in.UserName
	}
	return u, nil
}

func (s *stubAccounts) ResetUserPassword(context.Context, domain.Identity, string, string) error {
	return nil
}

func (s *stubAccounts) DeleteUser(context.Context, domain.Identity, string) error {
	return nil
}

func (s *stubAccounts) FindUsers(_ context.Context, _ domain.Identity, fragment string) ([]domain.User, error) {
	return []domain.User{{ID: "u1", Email: fragment + "@example.com"}}, nil
}

func (s *stubAccounts) RegisterAdmin(_ context.Context, by *domain.Identity, in account.RegisterAdminInput) (*domain.Admin, error) {
	s.adminBy = by
	return &domain.Admin{ID: "a2", Email: in.Email}, nil
}

func (s *stubAccounts) LoginAdmin(context.Context, string, string) (*account.Session, *domain.Admin, error) {
	return &account.Session{Token: "admin-token"}, &domain.Admin{ID: "a1"}, nil
}

func (s *stubAccounts) GetAdmin(_ context.Context, _ domain.Identity, id string) (*domain.Admin, error) {
	return &domain.Admin{ID: id}, nil
}

func (s *stubAccounts) ResetAdminPassword(context.Context, domain.Identity, string, string) error {
	return nil
}

type stubProducts struct {
	created   *productsvc.CreateInput
	imageName string
	err       error
}

func (s *stubProducts) Create(_ context.Context, _ domain.Identity, in productsvc.CreateInput, image *storage.Upload) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &in
	if image != nil {
		s.imageName = image.Filename
		_, _ = io.ReadAll(image.Body)
	}
	return &domain.Product{ID: "p1", Title: in.Title}, nil
}

func (s *stubProducts) List(context.Context) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Product{}, nil
}

func (s *stubProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id}, nil
}

func (s *stubProducts) Update(_ context.Context, _ domain.Identity, id string, _ productsvc.UpdateInput, _ *storage.Upload) (*domain.Product, error) {
	return &domain.Product{ID: id}, s.err
}

func (s *stubProducts) Delete(context.Context, domain.Identity, string) error {
	return s.err
}

type stubCategories struct{}

func (stubCategories) List(context.Context) ([]domain.Category, error) {
	return []domain.Category{{Name: "espresso", ProductCount: 2}}, nil
}

type stubCarts struct{}

func (stubCarts) Add(_ context.Context, c domain.Identity, productID string) (*domain.CartLine, error) {
	return &domain.CartLine{UserID: c.ID, ProductID: productID, Quantity: 1}, nil
}

func (stubCarts) Remove(context.Context, domain.Identity, string) (*domain.CartLine, error) {
	return nil, nil
}

func (stubCarts) Clear(context.Context, domain.Identity, string) error {
	return domain.Invalid("cart.clear", "No cart items found for this product")
}

func (stubCarts) List(context.Context, domain.Identity) ([]domain.CartLine, error) {
	return []domain.CartLine{}, nil
}

type stubOrders struct {
	placed  *ordersvc.PlaceInput
	target  domain.OrderStatus
	payment domain.PaymentStatus
	err     error
}

func (s *stubOrders) Place(_ context.Context, c domain.Identity, in ordersvc.PlaceInput) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.placed = &in
	return &domain.Order{ID: "o1", UserID: c.ID, Status: domain.StatusOrderReceived}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, _ domain.Identity, id string, target domain.OrderStatus) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.target = target
	return &domain.Order{ID: id, Status: target}, nil
}

func (s *stubOrders) Cancel(_ context.Context, _ domain.Identity, id string) (*domain.Order, error) {
	return &domain.Order{ID: id, Status: domain.StatusCancelled}, s.err
}

func (s *stubOrders) UpdatePayment(_ context.Context, _ domain.Identity, id string, p domain.PaymentStatus) (*domain.Order, error) {
	s.payment = p
	return &domain.Order{ID: id, PaymentStatus: p}, s.err
}

func (s *stubOrders) Delete(context.Context, domain.Identity, string) error {
	return s.err
}

func (s *stubOrders) List(context.Context, domain.Identity) ([]domain.Order, error) {
	return []domain.Order{}, s.err
}

func (s *stubOrders) Get(_ context.Context, _ domain.Identity, id string) (*domain.Order, error) {
	return &domain.Order{ID: id}, s.err
}

type stubReviews struct{}

func (stubReviews) Create(_ context.Context, c domain.Identity, in reviewsvc.CreateInput) (*domain.Review, error) {
	return &domain.Review{ID: "r1", UserID: c.ID, Comment: in.Comment}, nil
}

func (stubReviews) List(context.Context) ([]domain.Review, error) {
	return []domain.Review{}, nil
}

type stubOTP struct{}

func (stubOTP) Send(context.Context, string) (string, error) {
	return "1234", nil
}

func (stubOTP) Verify(_ context.Context, _, code string) error {
	if code != "1234" {
		return domain.Invalid("otp.verify", "Invalid OTP")
	}
	return nil
}

type stubGateway struct {
	served []domain.Identity
}

func (s *stubGateway) Serve(w http.ResponseWriter, _ *http.Request, c domain.Identity) error {
	s.served = append(s.served, c)
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

type fixture struct {
	router   *gin.Engine
	accounts *stubAccounts
	products *stubProducts
	orders   *stubOrders
	gateway  *stubGateway
}

func newFixture(opts Options) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		accounts: &stubAccounts{},
		products: &stubProducts{},
		orders:   &stubOrders{},
		gateway:  &stubGateway{},
	}
	f.router = buildRouter(zerolog.Nop(), nil, Deps{
		ProductSvc:  f.products,
		CategorySvc: stubCategories{},
		CartSvc:     stubCarts{},
		OrderSvc:    f.orders,
		ReviewSvc:   stubReviews{},
		AccountSvc:  f.accounts,
		OTPSvc:      stubOTP{},
		Chat:        f.gateway,
	}, opts)
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthz_EchoesRequestID(t *testing.T) {
	f := newFixture(Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	rec = f.do(http.MethodGet, "/healthz", "", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestReadyz_WithoutDB(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAuthGate_FailsClosed(t *testing.T) {
	f := newFixture(Options{})
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"bad token", "forged", http.StatusUnauthorized},
		{"admin on customer route", "admin-token", http.StatusForbidden},
		{"customer", "customer-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/cart/get-all-cart-items", tc.token, "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rec.Code, rec.Body.String())
			}
			if tc.want != http.StatusOK && decode(t, rec)["success"] != false {
				t.Fatalf("expected success=false, got %s", rec.Body.String())
			}
		})
	}
}

func TestAdminRoutes_RejectCustomers(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodPatch, "/order/update-order-status/o1", "customer-token", `{"orderStatus":"PREPARING"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = f.do(http.MethodPatch, "/order/update-order-status/o1", "admin-token", `{"status":"preparing"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.orders.target != domain.StatusPreparing {
		t.Fatalf("expected normalized target, got %q", f.orders.target)
	}
}

func TestPlaceOrder_DecodesAmounts(t *testing.T) {
	f := newFixture(Options{})
	body := `{"items":[{"productId":"p1","quantity":2}],"shippingAddress":"1 Bean St",
		"shippingFee":0.5,"paymentMethod":"COD","totalAmount":"6.00"}`
	rec := f.do(http.MethodPost, "/order/place-order", "customer-token", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.orders.placed.ShippingFee != "0.5" || f.orders.placed.TotalAmount != "6.00" {
		t.Fatalf("unexpected amounts %+v", f.orders.placed)
	}
	if len(f.orders.placed.Items) != 1 || f.orders.placed.Items[0].Quantity != 2 {
		t.Fatalf("expected items to be decoded, got %+v", f.orders.placed.Items)
	}
	got := decode(t, rec)
	if got["success"] != true || got["order"] == nil {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		msg  string
	}{
		{domain.Invalid("t", "calculated total amount doesn't match provided amount"), http.StatusBadRequest, "calculated total amount doesn't match provided amount"},
		{domain.Forbidden("t", "nope"), http.StatusForbidden, "nope"},
		{domain.NotFound("t", "Order o1 not found"), http.StatusNotFound, "Order o1 not found"},
		{domain.Conflict("t", "dup"), http.StatusConflict, "dup"},
		{errors.New("connection reset"), http.StatusInternalServerError, "An internal error occurred. Please try again later."},
	}
	for _, tc := range cases {
		f := newFixture(Options{})
		f.orders.err = tc.err
		rec := f.do(http.MethodPost, "/order/place-order", "customer-token", `{}`)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		if got := decode(t, rec)["message"]; got != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, got)
		}
	}
}

func TestMalformedJSON_IsBadRequest(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodPost, "/cart/add-to-cart", "customer-token", `{"productId":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddProduct_Multipart(t *testing.T) {
	f := newFixture(Options{MaxUploadBytes: 1 << 20})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Flat White")
	_ = mw.WriteField("price", "3.50")
	_ = mw.WriteField("category", "milk, espresso")
	_ = mw.WriteField("stock", "12")
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="productImage"; filename="flat.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("\x89PNG"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/product/add-product", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	in := f.products.created
	if in.Title != "Flat White" || in.Price != "3.50" || in.Stock != 12 {
		t.Fatalf("unexpected input %+v", in)
	}
	if len(in.Categories) != 2 || in.Categories[0] != "milk" || in.Categories[1] != "espresso" {
		t.Fatalf("unexpected categories %v", in.Categories)
	}
	if f.products.imageName != "flat.png" {
		t.Fatalf("expected image to be passed, got %q", f.products.imageName)
	}
}

func TestAddProduct_RejectsNonImage(t *testing.T) {
	f := newFixture(Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Mocha")
	fw, _ := mw.CreateFormFile("productImage", "evil.sh")
	_, _ = fw.Write([]byte("#!/bin/sh"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/product/add-product", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.products.created != nil {
		t.Fatalf("service should not be called")
	}
}

func TestOTP_CodeOnlyExposedWhenConfigured(t *testing.T) {
	rec := newFixture(Options{}).do(http.MethodPost, "/otp/send-otp", "", `{"phone":"555"}`)
	if _, ok := decode(t, rec)["otp"]; ok {
		t.Fatalf("otp must not be exposed: %s", rec.Body.String())
	}

	rec = newFixture(Options{ExposeOTP: true}).do(http.MethodPost, "/otp/send-otp", "", `{"phone":"555"}`)
	if decode(t, rec)["otp"] != "1234" {
		t.Fatalf("expected otp in dev body: %s", rec.Body.String())
	}
}

func TestLogout_RevokesPresentedToken(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodPost, "/user/logout", "customer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(f.accounts.loggedOut) != 1 || f.accounts.loggedOut[0] != "jti-u1" {
		t.Fatalf("unexpected revocations %v", f.accounts.loggedOut)
	}
}

func TestRegisterAdmin_PassesOptionalCaller(t *testing.T) {
	f := newFixture(Options{})
	body := `{"userName":"root","email":"root@example.com","password":"password123"}`

	rec := f.do(http.MethodPost, "/super-admin/register", "", body)
	if rec.Code != http.StatusCreated || f.accounts.adminBy != nil {
		t.Fatalf("anonymous register: code=%d by=%v", rec.Code, f.accounts.adminBy)
	}

	rec = f.do(http.MethodPost, "/super-admin/register", "admin-token", body)
	if rec.Code != http.StatusCreated || f.accounts.adminBy == nil || f.accounts.adminBy.ID != "a1" {
		t.Fatalf("admin register: code=%d by=%v", rec.Code, f.accounts.adminBy)
	}

	rec = f.do(http.MethodPost, "/super-admin/register", "forged", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestWebSocket_AuthenticatesBeforeUpgrade(t *testing.T) {
	f := newFixture(Options{})

	rec := f.do(http.MethodGet, "/ws", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(f.gateway.served) != 0 {
		t.Fatalf("gateway must not run without a token")
	}

	rec = f.do(http.MethodGet, "/ws?token=customer-token", "", "")
	if rec.Code != http.StatusSwitchingProtocols {
		t.Fatalf("expected upgrade, got %d", rec.Code)
	}
	if len(f.gateway.served) != 1 || f.gateway.served[0].ID != "u1" {
		t.Fatalf("unexpected served identities %v", f.gateway.served)
	}
}

func TestClearCartItem_NothingToClear(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodDelete, "/cart/remove-all-cart-items", "customer-token", `{"productId":"p1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCategories_Public(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodGet, "/product/categories", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"espresso"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestOrderStatusBodies_AcceptAliases(t *testing.T) {
	f := newFixture(Options{})
	rec := f.do(http.MethodPatch, "/order/update-order-status/o1", "admin-token", `{"orderStatus":"ready_for_pickup"}`)
	if rec.Code != http.StatusOK || f.orders.target != domain.StatusReadyForPickup {
		t.Fatalf("orderStatus alias: code=%d target=%q", rec.Code, f.orders.target)
	}

	rec = f.do(http.MethodPatch, "/order/payment/update-payment-status/o1", "admin-token", `{"payment":"paid"}`)
	if rec.Code != http.StatusOK || f.orders.payment != domain.PaymentPaid {
		t.Fatalf("payment key: code=%d payment=%q", rec.Code, f.orders.payment)
	}

	rec = f.do(http.MethodPatch, "/order/payment/update-payment-status/o1", "admin-token", `{"paymentStatus":"unpaid"}`)
	if rec.Code != http.StatusOK || f.orders.payment != domain.PaymentUnpaid {
		t.Fatalf("paymentStatus alias: code=%d payment=%q", rec.Code, f.orders.payment)
	}
}

func TestClientRoutes_AreRegistered(t *testing.T) {
	f := newFixture(Options{})
	cases := []struct {
		method, path, token, body string
		want                      int
	}{
		{http.MethodPost, "/user/signin-user", "", `{"phone":"555","password":"x"}`, http.StatusOK},
		{http.MethodPost, "/api/user/signin-user", "", `{"phone":"555","password":"x"}`, http.StatusOK},
		{http.MethodPost, "/api/user/signup-user", "", `{"userName":"bean","phone":"555","password":"password123"}`, http.StatusCreated},
		{http.MethodPatch, "/api/user/reset-user-password", "customer-token", `{"oldPassword":"a","newPassword":"b"}`, http.StatusOK},
		{http.MethodPost, "/api/user/logout-user", "customer-token", "", http.StatusOK},
		{http.MethodDelete, "/api/user/delete-user/u1", "customer-token", "", http.StatusOK},
		{http.MethodPost, "/api/super-admin/signin-super-admin", "", `{"email":"a@b.c","password":"x"}`, http.StatusOK},
		{http.MethodPost, "/api/super-admin/signup-super-admin", "admin-token", `{"userName":"r","email":"r@b.c","password":"password123"}`, http.StatusCreated},
		{http.MethodPatch, "/api/super-admin/reset-super-admin-password", "admin-token", `{"oldPassword":"a","newPassword":"b"}`, http.StatusOK},
		{http.MethodPost, "/api/super-admin/logout-super-admin", "admin-token", "", http.StatusOK},
		{http.MethodGet, "/api/super-admin/get-all-users", "admin-token", "", http.StatusOK},
		{http.MethodGet, "/api/super-admin/get-all-users", "customer-token", "", http.StatusForbidden},
		{http.MethodGet, "/api/product/get-all-products", "", "", http.StatusOK},
		{http.MethodPost, "/api/order/place-order", "customer-token", `{"items":[{"productId":"p1","quantity":1}]}`, http.StatusCreated},
	}
	for _, tc := range cases {
		rec := f.do(tc.method, tc.path, tc.token, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d body=%s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestOTPRoutes_RateLimitedPerClient(t *testing.T) {
	f := newFixture(Options{OTPRateLimit: RateLimit{RequestsPerSecond: 0.001, Burst: 3}})

	for i := 0; i < 3; i++ {
		rec := f.do(http.MethodPost, "/otp/verify-otp", "", `{"phone":"555","otp":"0000"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400, got %d", i, rec.Code)
		}
	}
	rec := f.do(http.MethodPost, "/otp/verify-otp", "", `{"phone":"555","otp":"1234"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	// The /api mount shares the same bucket.
	rec = f.do(http.MethodPost, "/api/otp/send-otp", "", `{"phone":"555"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected shared limit across mounts, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/otp/send-otp", strings.NewReader(`{"phone":"555"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:4000"
	other := httptest.NewRecorder()
	f.router.ServeHTTP(other, req)
	if other.Code != http.StatusOK {
		t.Fatalf("another client should not be limited, got %d", other.Code)
	}
}
