package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"butik/internal/config"
	"butik/internal/http/handlers"
	"butik/internal/repos"
)

func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{MediaDir: t.TempDir(), JWTSecret: "test-secret", JWTTTLHours: 1}
	deps := handlers.NewDeps(db, cfg)
	requireUser := handlers.RequireUser(deps.Auth)
	requireAdmin := handlers.RequireAdmin(deps.Auth)

	app := fiber.New()

	users := app.Group("/users")
	users.Post("/create", deps.AuthHandler.Register)
	users.Post("/login", deps.AuthHandler.Login)
	users.Get("/all", requireAdmin, deps.AuthHandler.List)
	users.Put("/edit/:id", requireUser, deps.AuthHandler.Edit)
	users.Delete("/delete/:id", requireAdmin, deps.AuthHandler.Delete)

	products := app.Group("/products")
	products.Get("/", deps.ProductHandler.List)
	products.Get("/search", deps.ProductHandler.Search)
	products.Post("/create", requireAdmin, deps.ProductHandler.Create)
	products.Get("/:id", deps.ProductHandler.Get)
	products.Get("/:id/availability", deps.ProductHandler.Availability)
	products.Put("/:id", requireAdmin, deps.ProductHandler.Update)
	products.Delete("/:id", requireAdmin, deps.ProductHandler.Delete)

	cart := app.Group("/cart", requireUser)
	cart.Post("/create", deps.CartHandler.Add)
	cart.Get("/", deps.CartHandler.List)
	cart.Post("/clear", deps.CartHandler.Clear)
	cart.Put("/:id", deps.CartHandler.Update)
	cart.Delete("/:id", deps.CartHandler.Remove)

	orders := app.Group("/orders", requireUser)
	orders.Post("/create", deps.OrderHandler.Create)
	orders.Get("/", deps.OrderHandler.List)
	orders.Get("/summary", deps.OrderHandler.StatusSummary)
	orders.Get("/reports/sales", deps.ReportHandler.Sales)
	orders.Get("/:id", deps.OrderHandler.Get)
	orders.Put("/:id", deps.OrderHandler.Update)
	orders.Put("/:id/transfer-proof", deps.OrderHandler.AttachProof)
	orders.Delete("/:id", requireAdmin, deps.OrderHandler.Delete)

	return app, db
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Data    map[string]any `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("bad response body %q: %v", raw, err)
	}
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	code, env := doJSON(t, app, "POST", "/users/login", "", fiber.Map{"email": email, "password": password})
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", email, code, env.Error)
	}
	tok, _ := env.Data["token"].(string)
	if tok == "" {
		t.Fatal("login response missing token")
	}
	return tok
}

func registerAndLogin(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	code, env := doJSON(t, app, "POST", "/users/create", "", fiber.Map{
		"name": "Siti", "email": email, "password": "Secret123",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: status %d (%s)", code, env.Error)
	}
	return login(t, app, email, "Secret123")
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := newTestApp(t)

	code, env := doJSON(t, app, "POST", "/users/create", "", fiber.Map{
		"name": "Siti", "email": "siti@butik.test", "password": "Secret123",
	})
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("register: %d %+v", code, env)
	}

	// duplicate email is a conflict
	code, _ = doJSON(t, app, "POST", "/users/create", "", fiber.Map{
		"name": "Siti", "email": "siti@butik.test", "password": "Secret123",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", code)
	}

	// weak password is rejected
	code, _ = doJSON(t, app, "POST", "/users/create", "", fiber.Map{
		"name": "Budi", "email": "budi@butik.test", "password": "short",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("weak password: status %d, want 400", code)
	}

	login(t, app, "siti@butik.test", "Secret123")

	code, env = doJSON(t, app, "POST", "/users/login", "", fiber.Map{
		"email": "siti@butik.test", "password": "Wrong1234",
	})
	if code != http.StatusUnauthorized || env.Success {
		t.Fatalf("bad password: %d %+v", code, env)
	}
}

func TestTokenRequired(t *testing.T) {
	app, _ := newTestApp(t)

	code, env := doJSON(t, app, "GET", "/orders/", "", nil)
	if code != http.StatusUnauthorized || env.Success {
		t.Fatalf("no token: %d %+v", code, env)
	}
	code, _ = doJSON(t, app, "GET", "/orders/", "not-a-jwt", nil)
	if code != http.StatusForbidden {
		t.Fatalf("garbage token: status %d, want 403", code)
	}

	// product catalog stays public
	code, _ = doJSON(t, app, "GET", "/products/", "", nil)
	if code != http.StatusOK {
		t.Fatalf("public catalog: status %d, want 200", code)
	}
}

func TestAdminOnlyEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	userTok := registerAndLogin(t, app, "siti@butik.test")
	adminTok := login(t, app, "admin@butik.test", "Admin123!")

	code, _ := doJSON(t, app, "GET", "/users/all", userTok, nil)
	if code != http.StatusForbidden {
		t.Fatalf("user on admin route: status %d, want 403", code)
	}
	code, env := doJSON(t, app, "GET", "/users/all", adminTok, nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("admin list users: %d %+v", code, env)
	}
}

func multipartImage(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("\xff\xd8\xff fake jpeg bytes"))
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	tok := registerAndLogin(t, app, "siti@butik.test")

	// seeded catalog: p-hijab-001 costs 45000 and has 100 in stock
	code, env := doJSON(t, app, "POST", "/orders/create", tok, fiber.Map{
		"shipping_method":  "JNE",
		"shipping_address": "Jl. Melati 5, Bandung",
		"shipping_cost":    10000,
		"items": []fiber.Map{
			{"product_id": "p-hijab-001", "quantity": 2, "unit_price": 45000},
		},
	})
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("create order: %d %+v", code, env)
	}
	order := env.Data["order"].(map[string]any)
	orderID := order["id"].(string)
	if order["total_price"].(float64) != 100000 {
		t.Fatalf("total_price = %v, want 100000", order["total_price"])
	}
	if order["status"].(string) != "belum_bayar" {
		t.Fatalf("status = %v, want belum_bayar", order["status"])
	}

	// first proof upload reconciles stock
	body, ct := multipartImage(t, "transfer_proof", "bukti.jpg")
	req := httptest.NewRequest("PUT", "/orders/"+orderID+"/transfer-proof", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var proofEnv envelope
	if err := json.Unmarshal(raw, &proofEnv); err != nil {
		t.Fatalf("bad body %q", raw)
	}
	if resp.StatusCode != http.StatusOK || proofEnv.Data["stock_decremented"] != true {
		t.Fatalf("proof upload: %d %+v", resp.StatusCode, proofEnv)
	}

	var stock int
	if err := db.Get(&stock, `SELECT stock FROM products WHERE id='p-hijab-001'`); err != nil {
		t.Fatal(err)
	}
	if stock != 98 {
		t.Fatalf("stock = %d, want 98", stock)
	}

	// bogus status is rejected with 400 and a helpful message
	code, env = doJSON(t, app, "PUT", "/orders/"+orderID, tok, fiber.Map{"status": "proses"})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("invalid status: %d %+v", code, env)
	}

	// skipping dikirim is a conflict
	code, _ = doJSON(t, app, "PUT", "/orders/"+orderID, tok, fiber.Map{"status": "selesai"})
	if code != http.StatusConflict {
		t.Fatalf("skip transition: status %d, want 409", code)
	}

	code, env = doJSON(t, app, "PUT", "/orders/"+orderID, tok, fiber.Map{"status": "dikirim"})
	if code != http.StatusOK || !env.Success {
		t.Fatalf("ship order: %d %+v", code, env)
	}
}

func TestOrderVisibilityScoping(t *testing.T) {
	app, _ := newTestApp(t)
	aTok := registerAndLogin(t, app, "a@butik.test")
	bTok := registerAndLogin(t, app, "b@butik.test")
	adminTok := login(t, app, "admin@butik.test", "Admin123!")

	_, env := doJSON(t, app, "POST", "/orders/create", aTok, fiber.Map{
		"shipping_method":  "JNE",
		"shipping_address": "Jl. A",
		"items":            []fiber.Map{{"product_id": "p-hijab-001", "quantity": 1, "unit_price": 45000}},
	})
	orderID := env.Data["order"].(map[string]any)["id"].(string)

	// another customer gets a 404, not a 403, so order ids stay unguessable
	code, _ := doJSON(t, app, "GET", "/orders/"+orderID, bTok, nil)
	if code != http.StatusNotFound {
		t.Fatalf("cross-user get: status %d, want 404", code)
	}
	code, _ = doJSON(t, app, "GET", "/orders/"+orderID, adminTok, nil)
	if code != http.StatusOK {
		t.Fatalf("admin get: status %d, want 200", code)
	}

	// list is scoped for customers
	_, env = doJSON(t, app, "GET", "/orders/", bTok, nil)
	pag := env.Data["pagination"].(map[string]any)
	if pag["total_orders"].(float64) != 0 {
		t.Fatalf("b sees %v orders, want 0", pag["total_orders"])
	}
	_, env = doJSON(t, app, "GET", "/orders/", adminTok, nil)
	pag = env.Data["pagination"].(map[string]any)
	if pag["total_orders"].(float64) != 1 {
		t.Fatalf("admin sees %v orders, want 1", pag["total_orders"])
	}
}

func TestCartEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	tok := registerAndLogin(t, app, "siti@butik.test")

	code, env := doJSON(t, app, "POST", "/cart/create", tok, fiber.Map{
		"product_id": "p-gamis-001", "quantity": 2,
	})
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("cart add: %d %+v", code, env)
	}

	// seeded stock for p-gamis-001 is 25
	code, env = doJSON(t, app, "POST", "/cart/create", tok, fiber.Map{
		"product_id": "p-gamis-001", "quantity": 24,
	})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("over-stock add: %d %+v", code, env)
	}

	code, env = doJSON(t, app, "GET", "/cart/", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("cart list: %d %+v", code, env)
	}

	code, env = doJSON(t, app, "POST", "/cart/clear", tok, nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("cart clear: %d %+v", code, env)
	}
}
