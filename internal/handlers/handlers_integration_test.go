package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/whitedevilpython/hackathon-registration/internal/handlers"
	"github.com/whitedevilpython/hackathon-registration/internal/models"
	"github.com/whitedevilpython/hackathon-registration/internal/repositories"
	"github.com/whitedevilpython/hackathon-registration/internal/services"
	"github.com/whitedevilpython/hackathon-registration/internal/testutil"
	"github.com/whitedevilpython/hackathon-registration/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// stubNotifier records verification links instead of sending mail.
type stubNotifier struct {
	mu    sync.Mutex
	links map[string]string
	err   error
}

func (n *stubNotifier) SendVerification(_ context.Context, to, _, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	if n.links == nil {
		n.links = make(map[string]string)
	}
	n.links[to] = link
	return nil
}

func (n *stubNotifier) tokenFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	link := n.links[email]
	return link[strings.LastIndex(link, "/")+1:]
}

type testOptions struct {
	verification bool
	notifier     services.Notifier
	adminHash    string
}

// setupApp sets up a Fiber app for testing against a fresh SQLite database.
func setupApp(t *testing.T, opts testOptions) (*fiber.App, *gorm.DB) {
	t.Helper()
	cfg := testutil.Config(t)
	db := testutil.OpenDB(t, cfg)

	participantRepo := repositories.NewGORMParticipantRepository(db)
	pendingRepo := repositories.NewGORMPendingRepository(db, cfg.PendingTTL)

	registrationService := services.NewRegistrationService(participantRepo, pendingRepo, opts.notifier, nil, services.RegistrationOptions{
		VerificationEnabled: opts.verification,
		PublicBaseURL:       cfg.PublicBaseURL,
	})
	adminService := services.NewAdminService(participantRepo, nil)
	adminAuthService := services.NewAdminAuthService(opts.adminHash, "test_jwt_secret")

	app := fiber.New(fiber.Config{Views: views.NewEngine()})
	handlers.NewRegistrationHandler(registrationService).RegisterRoutes(app)
	handlers.NewAdminHandler(adminService, adminAuthService, opts.verification).RegisterRoutes(app)
	return app, db
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func registration(name, email string) map[string]string {
	return map[string]string{
		"name":    name,
		"email":   email,
		"phone":   "555-0001",
		"year":    "2",
		"college": "MIT",
	}
}

func TestRegisterDeleteList_EndToEnd(t *testing.T) {
	app, _ := setupApp(t, testOptions{})

	status, body := postJSON(t, app, "/register", map[string]string{
		"name": "Ann", "email": "ann@x.com", "phone": "555-0001", "year": "2", "college": "MIT",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Registration successful!", body["message"])
	assert.Equal(t, "HACK0001", body["unique_id"])

	status, body = postJSON(t, app, "/register", map[string]string{
		"name": "Bo", "email": "bo@x.com", "phone": "555-0002", "year": "3", "college": "CMU",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "HACK0002", body["unique_id"])

	status, body = postJSON(t, app, "/delete", map[string]string{"unique_id": "HACK0001"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Participant HACK0001 deleted", body["message"])

	status, page := get(t, app, "/admin")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, page, "HACK0002")
	assert.Contains(t, page, "bo@x.com")
	assert.NotContains(t, page, "HACK0001")
	assert.NotContains(t, page, "ann@x.com")
}

func TestRegister_Failures(t *testing.T) {
	app, db := setupApp(t, testOptions{})

	// Missing field
	input := registration("Ann", "ann@x.com")
	delete(input, "college")
	status, body := postJSON(t, app, "/register", input)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "All fields required", body["message"])

	// Empty field
	input = registration("", "ann@x.com")
	status, _ = postJSON(t, app, "/register", input)
	assert.Equal(t, http.StatusBadRequest, status)

	var n int64
	require.NoError(t, db.Model(&models.Participant{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	// Duplicate email
	status, _ = postJSON(t, app, "/register", registration("Ann", "ann@x.com"))
	assert.Equal(t, http.StatusOK, status)
	status, body = postJSON(t, app, "/register", registration("Other Ann", "ann@x.com"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already registered!", body["message"])

	require.NoError(t, db.Model(&models.Participant{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	// Malformed body
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRegister_MalformedStoredID(t *testing.T) {
	app, db := setupApp(t, testOptions{})
	require.NoError(t, db.Create(&models.Participant{UniqueID: "BROKEN", Name: "X", Email: "x@x.com", Phone: "1", Year: "1", College: "C"}).Error)

	status, body := postJSON(t, app, "/register", registration("Ann", "ann@x.com"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["message"], "BROKEN")
}

func TestRegister_Concurrent(t *testing.T) {
	app, _ := setupApp(t, testOptions{})

	const n = 15
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jsonBody, _ := json.Marshal(registration("P", strings.Repeat("p", i+1)+"@x.com"))
			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			defer resp.Body.Close()
			var body map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Errorf("decode failed: %v", err)
				return
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("unexpected status %d: %v", resp.StatusCode, body["message"])
				return
			}
			ids <- body["unique_id"].(string)
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate unique id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestVerificationFlow(t *testing.T) {
	notifier := &stubNotifier{}
	app, db := setupApp(t, testOptions{verification: true, notifier: notifier})

	status, body := postJSON(t, app, "/register", registration("Ann", "ann@x.com"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "HACK0001", body["unique_id"])
	assert.Contains(t, body["message"], "check your email")

	var stored models.Participant
	require.NoError(t, db.First(&stored, "email = ?", "ann@x.com").Error)
	assert.False(t, stored.IsVerified)
	require.NotNil(t, stored.VerificationToken)

	token := notifier.tokenFor("ann@x.com")
	assert.Equal(t, *stored.VerificationToken, token)

	status, text := get(t, app, "/verify/"+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email verified successfully! Your registration ID is HACK0001.", text)

	require.NoError(t, db.First(&stored, "email = ?", "ann@x.com").Error)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationToken)

	// The link is single-use.
	status, text = get(t, app, "/verify/"+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Invalid or expired verification link.", text)

	_, text = get(t, app, "/verify/never-issued")
	assert.Equal(t, "Invalid or expired verification link.", text)
}

func TestVerificationFlow_MailFailure(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("dial tcp: connection refused")}
	app, db := setupApp(t, testOptions{verification: true, notifier: notifier})

	status, body := postJSON(t, app, "/register", registration("Ann", "ann@x.com"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body["status"])

	var n int64
	require.NoError(t, db.Model(&models.Participant{}).Where("email = ?", "ann@x.com").Count(&n).Error)
	assert.Equal(t, int64(0), n)
	require.NoError(t, db.Model(&models.PendingRegistration{}).Where("email = ?", "ann@x.com").Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestVerificationFlow_PromotesOrphanedPending(t *testing.T) {
	app, db := setupApp(t, testOptions{verification: true, notifier: &stubNotifier{}})

	// A mail went out but the process died before the participant row was written.
	require.NoError(t, db.Create(&models.PendingRegistration{
		Email: "bo@x.com", Name: "Bo", Phone: "555-0002", Year: "3", College: "CMU", Token: "orphan",
	}).Error)

	status, text := get(t, app, "/verify/orphan")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email verified successfully! Your registration ID is HACK0001.", text)

	var stored models.Participant
	require.NoError(t, db.First(&stored, "email = ?", "bo@x.com").Error)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationToken)

	var n int64
	require.NoError(t, db.Model(&models.PendingRegistration{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	_, text = get(t, app, "/verify/orphan")
	assert.Equal(t, "Invalid or expired verification link.", text)
}

func TestDelete_Failures(t *testing.T) {
	app, db := setupApp(t, testOptions{})

	status, _ := postJSON(t, app, "/register", registration("Ann", "ann@x.com"))
	require.Equal(t, http.StatusOK, status)

	status, body := postJSON(t, app, "/delete", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unique ID required", body["message"])

	status, body = postJSON(t, app, "/delete", map[string]string{"unique_id": "HACK0099"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Participant not found", body["message"])

	var n int64
	require.NoError(t, db.Model(&models.Participant{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestHomeAndTestDB(t *testing.T) {
	app, db := setupApp(t, testOptions{})

	status, page := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, page, "Hackathon Registration")
	assert.Contains(t, page, `id="register-form"`)

	status, text := get(t, app, "/test-db")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, text, `"status":"ok"`)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	status, text = get(t, app, "/test-db")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, text, `"status":"error"`)

	status, _ = get(t, app, "/admin")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	app, _ := setupApp(t, testOptions{adminHash: string(hash)})

	status, _ := get(t, app, "/admin")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = postJSON(t, app, "/delete", map[string]string{"unique_id": "HACK0001"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = postJSON(t, app, "/admin/login", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := postJSON(t, app, "/admin/login", map[string]string{"password": "s3cret"})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = postJSON(t, app, "/delete", map[string]string{"unique_id": "HACK0001"}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Participant not found", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: token})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	status, _ = postJSON(t, app, "/delete", map[string]string{"unique_id": "HACK0001"}, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminLogin_Disabled(t *testing.T) {
	app, _ := setupApp(t, testOptions{})

	status, body := postJSON(t, app, "/admin/login", map[string]string{"password": "anything"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Admin login is not enabled", body["message"])
}
