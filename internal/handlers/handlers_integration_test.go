package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"digistore/internal/handlers"
	"digistore/internal/middleware"
	"digistore/internal/models"
	"digistore/internal/repositories"
	"digistore/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

// setupApp builds a Fiber app over a test-scoped in-memory SQLite database,
// mirroring the wiring in main.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB, string) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.UserProfile{}, &models.Device{}, &models.Province{},
		&models.Category{}, &models.Product{}, &models.File{},
	)
	require.NoError(t, err)

	mediaRoot := t.TempDir()

	userRepo := repositories.NewGORMUserRepository(db)
	profileRepo := repositories.NewGORMProfileRepository(db)
	deviceRepo := repositories.NewGORMDeviceRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	fileRepo := repositories.NewGORMFileRepository(db)
	provinceRepo := repositories.NewGORMProvinceRepository(db)

	accountService := services.NewAccountService(userRepo, nil, nil, nil)
	authService := services.NewAuthService(userRepo, deviceRepo, testJWTSecret, nil)
	categoryService := services.NewCategoryService(categoryRepo)
	productService := services.NewProductService(productRepo, categoryRepo, fileRepo, mediaRoot)
	fileService := services.NewFileService(fileRepo, productRepo, mediaRoot, nil)
	provinceService := services.NewProvinceService(provinceRepo)
	profileService := services.NewProfileService(profileRepo, provinceRepo, userRepo, deviceRepo)

	app := fiber.New()
	handlers.NewAuthHandler(accountService, authService).RegisterRoutes(app)

	apiV1 := app.Group("/api/v1", middleware.AuthRequired(authService))
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService, fileService).RegisterRoutes(apiV1)
	handlers.NewProvinceHandler(provinceService).RegisterRoutes(apiV1)
	handlers.NewProfileHandler(profileService).RegisterRoutes(apiV1)

	return app, db, mediaRoot
}

func jsonRequest(method, target string, payload any, token string) *http.Request {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed
}

// registerAndLogin provisions an account and returns a bearer token for it.
func registerAndLogin(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"email":    email,
		"password": password,
	}, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodPost, "/get-token", fiber.Map{
		"email":    email,
		"password": password,
	}, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterDerivesUsernameFromEmail(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"email":    "bob.jones@example.com",
		"password": "secret123",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "bob.jones", user["username"])
	assert.Equal(t, true, user["is_active"])

	// Duplicate email must surface as a conflict.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"username": "someoneelse",
		"email":    "bob.jones@example.com",
		"password": "secret123",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterDerivesUsernameFromPhone(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"phone_number": "989123456789",
		"password":     "secret123",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	username, _ := user["username"].(string)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]\d{7}$`), username)
}

func TestRegisterValidation(t *testing.T) {
	app, _, _ := setupApp(t)

	// Password is required unless no_password is set.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"email": "nopass@example.com",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Malformed phone number.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"phone_number": "12345",
		"password":     "secret123",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Nothing to derive a username from.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"password": "secret123",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetTokenRecordsDevice(t *testing.T) {
	app, db, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/register", fiber.Map{
		"email":      "carol@example.com",
		"password":   "secret123",
		"first_name": "Carol",
		"last_name":  "Danvers",
	}, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	deviceUUID := "0c0fa577-10ed-4a26-8b1c-6d527ee1ffc7"
	login := fiber.Map{
		"email":        "carol@example.com",
		"password":     "secret123",
		"device_uuid":  deviceUUID,
		"device_type":  models.DeviceTypeIOS,
		"device_os":    "iOS 17",
		"device_model": "iPhone 15",
		"app_version":  "1.0.0",
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/get-token", login, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	issued := decodeBody(t, resp)
	assert.Equal(t, "Carol Danvers", issued["full_name"])
	assert.Equal(t, "carol", issued["username"])

	// A second login from the same device must reuse the row.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/get-token", login, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	issued = decodeBody(t, resp)
	token, _ := issued["token"].(string)
	require.NotEmpty(t, token)

	var count int64
	require.NoError(t, db.Model(&models.Device{}).Where("device_uuid = ?", deviceUUID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var device models.Device
	require.NoError(t, db.First(&device, "device_uuid = ?", deviceUUID).Error)
	assert.Equal(t, models.DeviceTypeIOS, device.DeviceType)
	assert.NotNil(t, device.LastLogin)

	// The account can list its own devices.
	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/v1/profile/devices", nil, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var devices []models.Device
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	resp.Body.Close()
	require.Len(t, devices, 1)
	assert.Equal(t, deviceUUID, devices[0].DeviceUUID)

	// Wrong password stays a 401.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/get-token", fiber.Map{
		"email":    "carol@example.com",
		"password": "wrong",
	}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIRequiresToken(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/v1/products", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token := registerAndLogin(t, app, "dave@example.com", "secret123")
	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/v1/products", nil, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestTokenWithoutIdentityClaimRefused(t *testing.T) {
	app, _, _ := setupApp(t)

	// Well signed, but missing the user_id claim handlers depend on.
	claims := jwt.MapClaims{
		"username": "ghost",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/v1/profile", nil, tokenString))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProfileDisplayNameFallsBackToUsername(t *testing.T) {
	app, _, _ := setupApp(t)
	token := registerAndLogin(t, app, "henry@example.com", "secret123")

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/v1/profile", nil, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "henry", body["display_name"])
}

func TestProductDeleteCascadesFiles(t *testing.T) {
	app, db, _ := setupApp(t)
	token := registerAndLogin(t, app, "erin@example.com", "secret123")

	// Create a category and a product bound to it.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/categories", fiber.Map{
		"title": "E-books",
	}, token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decodeBody(t, resp)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/products", fiber.Map{
		"title":        "Go in Practice",
		"category_ids": []string{category["id"].(string)},
	}, token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decodeBody(t, resp)
	productID := product["id"].(string)

	// Attach an uploaded payload.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "book.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 payload"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("title", "The book"))
	require.NoError(t, writer.Close())

	uploadReq := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID+"/files", &buf)
	uploadReq.Header.Set("Content-Type", writer.FormDataContentType())
	uploadReq.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(uploadReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var fileCount int64
	require.NoError(t, db.Model(&models.File{}).Where("product_id = ?", productID).Count(&fileCount).Error)
	assert.EqualValues(t, 1, fileCount)

	// Deleting the product removes its file rows with it.
	resp, err = app.Test(jsonRequest(http.MethodDelete, "/api/v1/products/"+productID, nil, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, db.Model(&models.File{}).Where("product_id = ?", productID).Count(&fileCount).Error)
	assert.EqualValues(t, 0, fileCount)
}

func TestProvinceDeleteNullsProfileReference(t *testing.T) {
	app, db, _ := setupApp(t)
	token := registerAndLogin(t, app, "frank@example.com", "secret123")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/provinces", fiber.Map{
		"name": "Tehran",
	}, token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	province := decodeBody(t, resp)
	provinceID := province["id"].(string)

	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/v1/profile", fiber.Map{
		"nick_name":   "Frankie",
		"province_id": provinceID,
	}, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, provinceID, profile["province_id"])

	resp, err = app.Test(jsonRequest(http.MethodDelete, "/api/v1/provinces/"+provinceID, nil, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The profile survives with a nulled reference.
	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/v1/profile", nil, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Frankie", body["display_name"])
	profile = body["profile"].(map[string]any)
	assert.Equal(t, "Frankie", profile["nick_name"])
	assert.Nil(t, profile["province_id"])

	var profileCount int64
	require.NoError(t, db.Model(&models.UserProfile{}).Count(&profileCount).Error)
	assert.EqualValues(t, 1, profileCount)
}

func TestCategoryCycleRejected(t *testing.T) {
	app, _, _ := setupApp(t)
	token := registerAndLogin(t, app, "grace@example.com", "secret123")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/categories", fiber.Map{
		"title": "Parent",
	}, token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	parent := decodeBody(t, resp)
	parentID := parent["id"].(string)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/categories", fiber.Map{
		"title":     "Child",
		"parent_id": parentID,
	}, token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	child := decodeBody(t, resp)
	childID := child["id"].(string)

	// Reassigning the parent under its own child must be rejected.
	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/v1/categories/"+parentID, fiber.Map{
		"title":     "Parent",
		"parent_id": childID,
	}, token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "ancestor")
}
