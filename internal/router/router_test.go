package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/testutil"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Each test gets its own client address so the shared rate limiters never trip.
var clientSeq int32

type stubGateway struct {
	mu       sync.Mutex
	sessions []services.CheckoutSessionRequest
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, req services.CheckoutSessionRequest) (*services.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, req)
	id := fmt.Sprintf("cs_test_%d", len(g.sessions))
	return &services.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (g *stubGateway) CreateCustomer(ctx context.Context, req services.CustomerRequest) (string, error) {
	return "cus_test", nil
}

func (g *stubGateway) ListShippingRates(ctx context.Context) ([]services.ShippingRate, error) {
	return nil, nil
}

func (g *stubGateway) CreateShippingRate(ctx context.Context, req services.ShippingRateRequest) (*services.ShippingRate, error) {
	return &services.ShippingRate{ID: "shr_" + string(req.Tier), Tier: req.Tier}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type RouterTestSuite struct {
	suite.Suite
	db         *gorm.DB
	cfg        *config.Config
	router     *gin.Engine
	gateway    *stubGateway
	uploadDir  string
	clientAddr string

	category *models.Category
	product  *models.Product
	customer *models.User
	employee *models.User
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize())
}

func (suite *RouterTestSuite) SetupTest() {
	t := suite.T()

	suite.db = testutil.NewDB(t)
	suite.uploadDir = t.TempDir()
	suite.gateway = &stubGateway{}
	n := atomic.AddInt32(&clientSeq, 1)
	suite.clientAddr = fmt.Sprintf("10.0.%d.%d:41000", n/250, n%250+1)

	suite.cfg = &config.Config{
		Environment: config.EnvDevelopment,
		JWT:         config.JWTConfig{SecretKey: "router-test-secret", AccessTokenTTL: 60},
		Cookie:      config.CookieConfig{Name: "session"},
		Storage:     config.StorageConfig{LocalDir: suite.uploadDir, PublicBaseURL: "http://localhost:8080/uploads"},
		Payment: config.PaymentConfig{
			Currency:                    "usd",
			SuccessURL:                  "http://localhost:3000/checkout/success",
			CancelURL:                   "http://localhost:3000/cart",
			AllowedCountries:            []string{"US"},
			ComplimentaryShippingWeight: 20,
		},
		Geocoding: config.GeocodingConfig{TimeoutSeconds: 1},
		Frontend:  config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}

	storage, err := services.NewStorageService(suite.cfg)
	suite.Require().NoError(err)

	suite.router = Initialize(suite.db, suite.cfg, Dependencies{
		Gateway:   suite.gateway,
		Publisher: services.LogOrderPublisher{},
		ShippingRates: services.ShippingRates{
			Standard:      "shr_standard",
			Express:       "shr_express",
			Complimentary: "shr_complimentary",
		},
		Storage: storage,
	})

	suite.category = testutil.CreateCategory(t, suite.db, "Fruits")
	suite.product = testutil.CreateProduct(t, suite.db, suite.category.ID, "Apples", 10, 2.5, 1)
	suite.customer = testutil.CreateUser(t, suite.db, "customer@example.com")
	suite.employee = testutil.CreateUser(t, suite.db, "employee@example.com", func(u *models.User) {
		u.IsEmployee = true
	})
}

func (suite *RouterTestSuite) tokenFor(user *models.User) string {
	token, err := utils.GenerateJWT(utils.TokenSubject{
		UserID:      user.ID,
		Email:       user.Email,
		Firstname:   user.Firstname,
		Lastname:    user.Lastname,
		IsEmployee:  user.IsEmployee,
		IsSuperuser: user.IsSuperuser,
	}, 60)
	suite.Require().NoError(err)
	return token
}

func (suite *RouterTestSuite) do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	req.RemoteAddr = suite.clientAddr
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+suite.tokenFor(user))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) doJSON(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return suite.do(req, user)
}

func (suite *RouterTestSuite) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		suite.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env
}

func (suite *RouterTestSuite) TestHealth() {
	w := suite.do(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "healthy")
}

func (suite *RouterTestSuite) TestUserRegistrationAndLogin() {
	w := suite.doJSON(http.MethodPost, "/auth/register", map[string]interface{}{
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"email":     "Ada@Example.com",
		"password":  "TestPass123!",
	}, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	// OAuth2 password form, as the storefront frontend sends it.
	form := url.Values{"username": {"ada@example.com"}, "password": {"TestPass123!"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = suite.do(req, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var token services.TokenResponse
	suite.decode(w, &token)
	assert.Equal(suite.T(), "bearer", token.TokenType)
	assert.NotEmpty(suite.T(), token.AccessToken)

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "session" {
			sessionCookie = cookie
		}
	}
	suite.Require().NotNil(sessionCookie)
	assert.True(suite.T(), sessionCookie.HttpOnly)

	// The cookie alone authenticates.
	req = httptest.NewRequest(http.MethodGet, "/user/me/", nil)
	req.AddCookie(sessionCookie)
	w = suite.do(req, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var me models.User
	suite.decode(w, &me)
	assert.Equal(suite.T(), "ada@example.com", me.Email)
}

func (suite *RouterTestSuite) TestLoginRejectsWrongPassword() {
	w := suite.doJSON(http.MethodPost, "/auth/token/", map[string]string{
		"username": "customer@example.com",
		"password": "not-the-password",
	}, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestDuplicateRegistrationConflicts() {
	w := suite.doJSON(http.MethodPost, "/auth/register", map[string]string{
		"firstname": "Other",
		"lastname":  "Customer",
		"email":     "customer@example.com",
		"password":  "password123",
	}, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *RouterTestSuite) TestCartRequiresAuthentication() {
	w := suite.do(httptest.NewRequest(http.MethodGet, "/cart/", nil), nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = suite.do(req, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestCartLifecycle() {
	t := suite.T()

	w := suite.doJSON(http.MethodPost, "/cart/", map[string]interface{}{
		"product_id": suite.product.ID,
		"quantity":   3,
	}, suite.customer)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var item models.OrderItem
	suite.decode(w, &item)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 7, testutil.ProductQuantity(t, suite.db, suite.product.ID))

	w = suite.doJSON(http.MethodPatch, "/cart/"+item.ID.String(), map[string]int{"quantity": 1}, suite.customer)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 9, testutil.ProductQuantity(t, suite.db, suite.product.ID))

	w = suite.do(httptest.NewRequest(http.MethodGet, "/cart/", nil), suite.customer)
	suite.Require().Equal(http.StatusOK, w.Code)
	var cart models.Order
	suite.decode(w, &cart)
	assert.Equal(t, models.OrderStatusCart, cart.Status)
	require.Len(t, cart.Items, 1)

	w = suite.do(httptest.NewRequest(http.MethodDelete, "/cart/"+item.ID.String(), nil), suite.customer)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 10, testutil.ProductQuantity(t, suite.db, suite.product.ID))
}

func (suite *RouterTestSuite) TestAddItemBeyondStock() {
	w := suite.doJSON(http.MethodPost, "/cart/", map[string]interface{}{
		"product_id": suite.product.ID,
		"quantity":   11,
	}, suite.customer)
	suite.Require().Equal(http.StatusBadRequest, w.Code)

	env := suite.decode(w, nil)
	suite.Require().NotNil(env.Error)
	assert.Equal(suite.T(), "INSUFFICIENT_STOCK", env.Error.Code)
	assert.Equal(suite.T(), 10, testutil.ProductQuantity(suite.T(), suite.db, suite.product.ID))
}

func (suite *RouterTestSuite) TestAddItemRejectsNonPositiveQuantity() {
	w := suite.doJSON(http.MethodPost, "/cart/", map[string]interface{}{
		"product_id": suite.product.ID,
		"quantity":   0,
	}, suite.customer)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestCheckout() {
	w := suite.doJSON(http.MethodPost, "/cart/checkout/", nil, suite.customer)
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	env := suite.decode(w, nil)
	assert.Equal(suite.T(), "EMPTY_CART", env.Error.Code)

	w = suite.doJSON(http.MethodPost, "/cart/", map[string]interface{}{
		"product_id": suite.product.ID,
		"quantity":   2,
	}, suite.customer)
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.doJSON(http.MethodPost, "/cart/checkout/", nil, suite.customer)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var session services.CheckoutResponse
	suite.decode(w, &session)
	assert.Equal(suite.T(), "https://checkout.example.com/cs_test_1", session.URL)
	assert.Equal(suite.T(), []services.ShippingTier{services.ShippingTierStandard, services.ShippingTierExpress}, session.ShippingTiers)

	suite.Require().Len(suite.gateway.sessions, 1)
	assert.Equal(suite.T(), []string{"shr_standard", "shr_express"}, suite.gateway.sessions[0].ShippingRateIDs)
}

func (suite *RouterTestSuite) TestCatalogWritesRequireEmployee() {
	body := map[string]string{"name": "Vegetables"}

	w := suite.doJSON(http.MethodPost, "/category/", body, suite.customer)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.doJSON(http.MethodPost, "/category/", body, suite.employee)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var category models.Category
	suite.decode(w, &category)
	assert.Equal(suite.T(), "vegetables", category.Slug)

	w = suite.doJSON(http.MethodPost, "/category/", body, suite.employee)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/category/vegetables", nil), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/category/?limit=1", nil), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Count"))
}

func (suite *RouterTestSuite) TestUnknownCategoryIsNotFound() {
	w := suite.do(httptest.NewRequest(http.MethodGet, "/category/does-not-exist", nil), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/category/does-not-exist/products", nil), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestProductUpdateAndSearch() {
	w := suite.doJSON(http.MethodPatch, "/product/"+suite.product.ID.String(), map[string]interface{}{
		"name":     "Green Apples",
		"quantity": 25,
	}, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var product models.Product
	suite.decode(w, &product)
	assert.Equal(suite.T(), "green-apples", product.Slug)
	assert.Equal(suite.T(), 25, product.Quantity)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/product/green-apples?expand=category", nil), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &product)
	suite.Require().NotNil(product.Category)
	assert.Equal(suite.T(), "fruits", product.Category.Slug)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/search/?q=GREEN", nil), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var results []models.Product
	suite.decode(w, &results)
	suite.Require().Len(results, 1)
	assert.Equal(suite.T(), suite.product.ID, results[0].ID)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/search/", nil), nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestUploadCategoryImageToLocalStorage() {
	// Smallest valid PNG header is enough for content sniffing.
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "fruits.png")
	suite.Require().NoError(err)
	_, err = part.Write(png)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/category/fruits/image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := suite.do(req, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var stored models.Category
	suite.Require().NoError(suite.db.First(&stored, "id = ?", suite.category.ID).Error)
	suite.Require().True(strings.HasPrefix(stored.ImageURL, "http://localhost:8080/uploads/categories/"), stored.ImageURL)

	key := strings.TrimPrefix(stored.ImageURL, "http://localhost:8080/uploads/")
	_, err = os.Stat(filepath.Join(suite.uploadDir, filepath.FromSlash(key)))
	assert.NoError(suite.T(), err)
}

func (suite *RouterTestSuite) TestOrders() {
	t := suite.T()

	order := &models.Order{UserID: suite.customer.ID, Status: models.OrderStatusOrdered, AmountTotal: 5}
	suite.Require().NoError(suite.db.Create(order).Error)

	w := suite.do(httptest.NewRequest(http.MethodGet, "/order/", nil), suite.customer)
	suite.Require().Equal(http.StatusOK, w.Code)
	var orders []models.Order
	suite.decode(w, &orders)
	suite.Require().Len(orders, 1)

	w = suite.do(httptest.NewRequest(http.MethodGet, "/order/"+order.ID.String()+"/", nil), suite.employee)
	assert.Equal(t, http.StatusNotFound, w.Code, "orders are scoped to their owner")

	w = suite.doJSON(http.MethodPatch, "/order/"+order.ID.String()+"/status", map[string]string{"status": "shipped"}, suite.employee)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = suite.doJSON(http.MethodPatch, "/order/"+order.ID.String()+"/status", map[string]string{"status": "out_for_delivery"}, suite.customer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.doJSON(http.MethodPatch, "/order/"+order.ID.String()+"/status", map[string]string{"status": "out_for_delivery"}, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(httptest.NewRequest(http.MethodGet, "/order/"+order.ID.String()+"/", nil), suite.customer)
	suite.Require().Equal(http.StatusOK, w.Code)
	var fetched models.Order
	suite.decode(w, &fetched)
	assert.Equal(t, models.OrderStatusOutForDelivery, fetched.Status)
}

func (suite *RouterTestSuite) TestStaffWritesAreAudited() {
	w := suite.doJSON(http.MethodPost, "/category/", map[string]string{"name": "Dairy"}, suite.employee)
	suite.Require().Equal(http.StatusCreated, w.Code)

	suite.Eventually(func() bool {
		var logs []models.AuditLog
		if err := suite.db.Find(&logs).Error; err != nil {
			return false
		}
		return len(logs) == 1 && logs[0].ResourceType == "category" && logs[0].StatusCode == http.StatusCreated
	}, time.Second, 10*time.Millisecond)
}

func (suite *RouterTestSuite) TestWebhookIgnoresUnhandledEvents() {
	payload := `{"id":"evt_1","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := suite.do(req, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Contains(suite.T(), w.Body.String(), `"outcome":"ignored"`)

	req = httptest.NewRequest(http.MethodPost, "/webhook/stripe/", strings.NewReader("{not json"))
	w = suite.do(req, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
