package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/kv"
	"florist-storefront/internal/service/checkout"
	"florist-storefront/internal/service/session"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCategoryService struct {
	categories []domain.Category
	err        error
}

func (s *stubCategoryService) List(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

type stubProductService struct {
	category *domain.Category
	products map[string]domain.Product
	specials map[string]domain.SpecialItem
}

func (s *stubProductService) ListByCategorySlug(_ context.Context, slug string) (*domain.Category, []domain.Product, error) {
	if s.category == nil || s.category.Slug != slug {
		return nil, nil, domain.ErrNotFound
	}
	var out []domain.Product
	for _, p := range s.products {
		if p.CategoryID == s.category.ID {
			out = append(out, p)
		}
	}
	return s.category, out, nil
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubProductService) SpecialItems(context.Context) ([]domain.SpecialItem, error) {
	var out []domain.SpecialItem
	for _, item := range s.specials {
		out = append(out, item)
	}
	return out, nil
}

func (s *stubProductService) SpecialItem(_ context.Context, id string) (*domain.SpecialItem, error) {
	item, ok := s.specials[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

type stubOrders struct {
	err error
	n   int
}

func (s *stubOrders) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.n++
	o.ID = "order-1"
	return &o, nil
}

func (s *stubOrders) Update(_ context.Context, o domain.Order) error {
	if s.err != nil {
		return s.err
	}
	if o.ID != "order-1" {
		return domain.ErrNotFound
	}
	return nil
}

type stubItems struct {
	saved map[string]int
}

func (s *stubItems) Save(_ context.Context, orderID string, items []domain.CartLineItem) bool {
	if s.saved == nil {
		s.saved = map[string]int{}
	}
	s.saved[orderID] = len(items)
	return true
}

type testEnv struct {
	router   *gin.Engine
	sessions *session.Manager
	orders   *stubOrders
	items    *stubItems
	redis    *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	orders := &stubOrders{}
	items := &stubItems{}
	sessions := session.NewManager(kv.NewRedis(client, 0), session.Options{
		Checkout: checkout.Deps{Orders: orders, Items: items},
	})
	t.Cleanup(sessions.Close)

	buques := domain.Category{ID: "c1", Name: "Buquês", Slug: "buques"}
	router, err := buildRouter(logDiscard(), Deps{
		CategorySvc: &stubCategoryService{categories: []domain.Category{buques}},
		ProductSvc: &stubProductService{
			category: &buques,
			products: map[string]domain.Product{
				"p1": {ID: "p1", CategoryID: "c1", Name: "Buquê de Rosas", Slug: "buque-de-rosas", Price: decimal.RequireFromString("100.00"), Images: []string{"rosas.jpg"}, Active: true},
			},
			specials: map[string]domain.SpecialItem{
				"s1": {ID: "s1", Name: "Chocolate", Slug: "chocolate", Price: decimal.RequireFromString("25.00"), Active: true},
			},
		},
		Sessions:    sessions,
		Checks:      []ReadinessCheck{{Name: "redis", Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() }}},
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testEnv{router: router, sessions: sessions, orders: orders, items: items, redis: mr}
}

func (e *testEnv) do(method, path, sessionID, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(logDiscard(), Deps{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(http.MethodGet, "/healthz", "", ""), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/readyz", "", ""), http.StatusOK)

	env.redis.Close()
	rec := env.do(http.MethodGet, "/readyz", "", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if reason := decode(t, rec)["reason"]; reason != "redis not reachable" {
		t.Fatalf("unexpected reason %v", reason)
	}
}

func TestReady_NoChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/readyz", readyHandler(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/session", "", "")
	expectStatus(t, rec, http.StatusCreated)
	id, _ := decode(t, rec)["sessionId"].(string)
	if id == "" || rec.Header().Get(sessionHeader) != id {
		t.Fatalf("expected session id in body and header, got %q / %q", id, rec.Header().Get(sessionHeader))
	}
}

func TestSessionMiddleware(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(http.MethodGet, "/cart", "", ""), http.StatusUnauthorized)
	expectStatus(t, env.do(http.MethodGet, "/cart", "garbage", ""), http.StatusUnauthorized)
	expectStatus(t, env.do(http.MethodGet, "/cart", env.sessions.Issue(), ""), http.StatusOK)
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/categories/buques/products", "", "")
	expectStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("expected one product, got %v", body["count"])
	}
	results := body["results"].([]any)
	if price := results[0].(map[string]any)["price"]; price != "100.00" {
		t.Fatalf("expected fixed-point price, got %v", price)
	}

	expectStatus(t, env.do(http.MethodGet, "/categories/orquideas/products", "", ""), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodGet, "/products/p1", "", ""), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/products/nope", "", ""), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodGet, "/special-items", "", ""), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/categories", "", ""), http.StatusOK)
}

func TestCartRoutes(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1","quantity":1}`), http.StatusOK)
	rec := env.do(http.MethodPost, "/cart/items", sid, `{"kind":"special","refId":"s1","quantity":2}`)
	expectStatus(t, rec, http.StatusOK)

	body := decode(t, rec)
	if body["total"] != "150.00" || body["itemCount"] != float64(3) {
		t.Fatalf("unexpected totals %v / %v", body["total"], body["itemCount"])
	}
	last := body["lastAdded"].(map[string]any)
	if last["id"] != "special-s1" || last["kind"] != "special" {
		t.Fatalf("unexpected last added %v", last)
	}

	rec = env.do(http.MethodPatch, "/cart/items/p1", sid, `{"quantity":0}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode(t, rec)["itemCount"]; got != float64(2) {
		t.Fatalf("expected quantity 0 to remove the line, got count %v", got)
	}

	expectStatus(t, env.do(http.MethodPatch, "/cart/items/p1", sid, `{"quantity":3}`), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodDelete, "/cart/items/missing", sid, ""), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodDelete, "/cart/items/special-s1", sid, ""), http.StatusOK)

	rec = env.do(http.MethodDelete, "/cart", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode(t, rec)["total"]; got != "0.00" {
		t.Fatalf("expected empty cart, got total %v", got)
	}
}

func TestCartRoutes_BadInput(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"gift","refId":"p1"}`), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"nope"}`), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodPatch, "/cart/items/p1", sid, `{}`), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1","quantity":9223372036854775807}`), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1","quantity":999}`), http.StatusOK)
	rec := env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1","quantity":1}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	expectStatus(t, env.do(http.MethodPatch, "/cart/items/p1", sid, `{"quantity":1000}`), http.StatusBadRequest)

	rec = env.do(http.MethodGet, "/cart", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode(t, rec)["itemCount"]; got != float64(999) {
		t.Fatalf("expected capped item count, got %v", got)
	}
	expectStatus(t, env.do(http.MethodPut, "/cart/open", sid, `{}`), http.StatusBadRequest)
}

func TestCartPanelAndNotification(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1"}`), http.StatusOK)

	rec := env.do(http.MethodPost, "/cart/notification/dismiss", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["lastAdded"] != nil {
		t.Fatalf("expected notification to be dismissed")
	}

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1"}`), http.StatusOK)
	rec = env.do(http.MethodPost, "/cart/notification/view", sid, "")
	expectStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	if body["open"] != true || body["lastAdded"] != nil {
		t.Fatalf("expected open panel without notification, got %v", body)
	}

	rec = env.do(http.MethodPut, "/cart/open", sid, `{"open":false}`)
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["open"] != false {
		t.Fatalf("expected closed panel")
	}
}

func TestCheckout_RedirectsToEarliestMissingStage(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()

	rec := env.do(http.MethodGet, "/checkout/2", sid, "")
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/checkout/1" {
		t.Fatalf("expected redirect to /checkout/1, got %q", loc)
	}

	rec = env.do(http.MethodPost, "/checkout/3", sid, `{"card_type":"none"}`)
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/checkout/1" {
		t.Fatalf("expected locked submit to redirect to /checkout/1, got %q", loc)
	}

	expectStatus(t, env.do(http.MethodGet, "/checkout/9", sid, ""), http.StatusNotFound)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()

	rec := env.do(http.MethodPost, "/checkout/1", sid, `{"name":"Ana","email":"  "}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	errs := decode(t, rec)["errors"].(map[string]any)
	if errs["email"] != "is required" || errs["phone"] != "is required" || len(errs) != 2 {
		t.Fatalf("unexpected field errors %v", errs)
	}

	expectStatus(t, env.do(http.MethodPost, "/checkout/1", sid, `["not","an","object"]`), http.StatusBadRequest)
}

const (
	identificationBody  = `{"name":"Ana Souza","email":"ana@example.com","phone":"11999990000"}`
	deliveryBody        = `{"recipient_name":"Maria","address":"Rua das Flores","number":"42","neighborhood":"Centro","city":"Campinas","zip_code":"13000-000","delivery_date":"2026-11-02","delivery_period":"afternoon"}`
	personalizationBody = `{"card_type":"message","card_message":"Parabéns!"}`
)

func completeStages(t *testing.T, env *testEnv, sid string) {
	t.Helper()
	for i, body := range []string{identificationBody, deliveryBody, personalizationBody} {
		rec := env.do(http.MethodPost, "/checkout/"+string(rune('1'+i)), sid, body)
		expectStatus(t, rec, http.StatusSeeOther)
	}
}

func TestCheckout_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1","quantity":1}`), http.StatusOK)
	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"special","refId":"s1","quantity":2}`), http.StatusOK)

	rec := env.do(http.MethodPost, "/checkout/1", sid, identificationBody)
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/checkout/2" {
		t.Fatalf("expected /checkout/2, got %q", loc)
	}

	rec = env.do(http.MethodGet, "/checkout/2", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if fields := decode(t, rec)["fields"]; fields != nil {
		t.Fatalf("expected a fresh delivery stage, got %v", fields)
	}

	rec = env.do(http.MethodGet, "/checkout/1", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if name := decode(t, rec)["fields"].(map[string]any)["name"]; name != "Ana Souza" {
		t.Fatalf("expected identification to be repopulated, got %v", name)
	}

	expectStatus(t, env.do(http.MethodPost, "/checkout/2", sid, deliveryBody), http.StatusSeeOther)
	expectStatus(t, env.do(http.MethodPost, "/checkout/3", sid, personalizationBody), http.StatusSeeOther)

	rec = env.do(http.MethodGet, "/checkout/4", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if total := decode(t, rec)["cart"].(map[string]any)["total"]; total != "150.00" {
		t.Fatalf("expected payment summary total 150.00, got %v", total)
	}

	rec = env.do(http.MethodPost, "/checkout/4", sid, `{"payment_method":"pix"}`)
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/checkout/confirmation" {
		t.Fatalf("expected confirmation redirect, got %q", loc)
	}
	if env.items.saved["order-1"] != 2 {
		t.Fatalf("expected two order lines saved, got %v", env.items.saved)
	}

	rec = env.do(http.MethodGet, "/cart", sid, "")
	if body := decode(t, rec); body["total"] != "0.00" || body["itemCount"] != float64(0) {
		t.Fatalf("expected cleared cart, got %v", body)
	}

	rec = env.do(http.MethodGet, "/checkout/confirmation", sid, "")
	expectStatus(t, rec, http.StatusOK)
	if id := decode(t, rec)["orderId"]; id != "order-1" {
		t.Fatalf("expected order id on confirmation, got %v", id)
	}
	if keys := env.redis.Keys(); len(keys) != 0 {
		t.Fatalf("expected no staged keys left, got %v", keys)
	}

	expectStatus(t, env.do(http.MethodGet, "/checkout/confirmation", sid, ""), http.StatusOK)
}

func TestCheckout_SubmitFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()
	env.orders.err = errors.New("db down")

	expectStatus(t, env.do(http.MethodPost, "/cart/items", sid, `{"kind":"product","refId":"p1"}`), http.StatusOK)
	completeStages(t, env, sid)

	rec := env.do(http.MethodPost, "/checkout/4", sid, `{"payment_method":"pix"}`)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if decode(t, rec)["retryable"] != true {
		t.Fatalf("expected retryable flag")
	}

	env.orders.err = nil
	expectStatus(t, env.do(http.MethodPost, "/checkout/4", sid, `{"payment_method":"pix"}`), http.StatusSeeOther)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	sid := env.sessions.Issue()
	completeStages(t, env, sid)

	expectStatus(t, env.do(http.MethodPost, "/checkout/4", sid, `{"payment_method":"pix"}`), http.StatusConflict)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", sessionHeader)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
