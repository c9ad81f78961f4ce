package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"itms-booking-backend/config"
	"itms-booking-backend/internal/authz"
	"itms-booking-backend/internal/booking"
	"itms-booking-backend/internal/model"
	"itms-booking-backend/internal/store"
)

const testSecret = "test-secret"

// The router runs against the real clock, so bookings are dated well in the
// future to keep the time guards out of the way.
var testDay = time.Now().UTC().AddDate(0, 0, 30).Truncate(24 * time.Hour)

func ts(hour int) time.Time {
	return testDay.Add(time.Duration(hour) * time.Hour)
}

type testServer struct {
	router *gin.Engine
	store  store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Resource{}, &model.Booking{}, &model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Auth.JWTSecret = testSecret

	appStore := store.NewGormStore(db)
	engine := booking.NewService(appStore)
	router := NewRouter(appStore, engine, cfg, &webpush.Options{VAPIDPublicKey: "test-public-key"})
	return &testServer{router: router, store: appStore}
}

// token signs a test bearer token for the given user and role.
func token(t *testing.T, userID string, role authz.Role) string {
	t.Helper()
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tk.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) createResource(t *testing.T, name string, category model.ResourceCategory) model.Resource {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/resources", token(t, "admin-1", authz.RoleAdmin), gin.H{
		"name":     name,
		"category": category,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resource model.Resource
	require.NoError(t, json.Unmarshal(decodeBody(t, w)["resource"], &resource))
	return resource
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		tk := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "role": "user"})
		signed, err := tk.SignedString([]byte("other-secret"))
		require.NoError(t, err)
		w := s.do(t, http.MethodGet, "/api/resources", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown role claim", func(t *testing.T) {
		tk := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "role": "root"})
		signed, err := tk.SignedString([]byte(testSecret))
		require.NoError(t, err)
		w := s.do(t, http.MethodGet, "/api/resources", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("vapid key needs no token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/vapid_public_key", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "test-public-key")
	})
}

func TestResourceEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("users may not manage resources", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/resources", token(t, "user-1", authz.RoleUser), gin.H{
			"name": "Room A", "category": "MEETING_ROOM",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin creates a resource", func(t *testing.T) {
		resource := s.createResource(t, "Room A", model.CategoryMeetingRoom)
		assert.NotEmpty(t, resource.ID)
		assert.Equal(t, model.ResourceAvailable, resource.Status)
		assert.Equal(t, 1, resource.Capacity, "capacity defaults to 1")
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/resources", token(t, "admin-1", authz.RoleAdmin), gin.H{
			"name": "Room B", "category": "GARAGE",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update takes a resource out of service", func(t *testing.T) {
		resource := s.createResource(t, "Projector", model.CategoryITEquipment)
		w := s.do(t, http.MethodPut, "/api/resources/"+resource.ID, token(t, "admin-1", authz.RoleAdmin), gin.H{
			"status": "MAINTENANCE",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		// Booking it must now fail.
		w = s.do(t, http.MethodPost, "/api/bookings", token(t, "user-1", authz.RoleUser), gin.H{
			"resourceId": resource.ID,
			"title":      "demo",
			"startTime":  ts(10),
			"endTime":    ts(11),
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("invalid category filter", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources?category=GARAGE", token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown resource", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources/missing", token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBookingEndpoints(t *testing.T) {
	s := newTestServer(t)
	resource := s.createResource(t, "Room A", model.CategoryMeetingRoom)

	var created model.Booking

	t.Run("create", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings", token(t, "user-1", authz.RoleUser), gin.H{
			"resourceId": resource.ID,
			"title":      "team sync",
			"startTime":  ts(10),
			"endTime":    ts(12),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(decodeBody(t, w)["booking"], &created))
		assert.Equal(t, model.BookingPending, created.Status)
		assert.Equal(t, "user-1", created.RequesterID, "requester comes from the token, not the body")
	})

	t.Run("overlapping create conflicts", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings", token(t, "user-2", authz.RoleUser), gin.H{
			"resourceId": resource.ID,
			"title":      "rival",
			"startTime":  ts(11),
			"endTime":    ts(13),
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("inverted interval rejected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings", token(t, "user-1", authz.RoleUser), gin.H{
			"resourceId": resource.ID,
			"title":      "backwards",
			"startTime":  ts(15),
			"endTime":    ts(14),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("technician may not approve a meeting room", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings/"+created.ID+"/approve", token(t, "tech-1", authz.RoleTechnician), gin.H{
			"status": "APPROVED",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("approval body must be APPROVED or REJECTED", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings/"+created.ID+"/approve", token(t, "mgr-1", authz.RoleManager), gin.H{
			"status": "CANCELLED",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("manager approves", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings/"+created.ID+"/approve", token(t, "mgr-1", authz.RoleManager), gin.H{
			"status": "APPROVED",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var b model.Booking
		require.NoError(t, json.Unmarshal(decodeBody(t, w)["booking"], &b))
		assert.Equal(t, model.BookingApproved, b.Status)
		require.NotNil(t, b.ApproverID)
		assert.Equal(t, "mgr-1", *b.ApproverID)
	})

	t.Run("approving again conflicts with the workflow", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings/"+created.ID+"/approve", token(t, "mgr-1", authz.RoleManager), gin.H{
			"status": "APPROVED",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("strangers may not cancel", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings/"+created.ID+"/cancel", token(t, "user-9", authz.RoleUser), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("requester cancels", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/bookings/"+created.ID+"/cancel", token(t, "user-1", authz.RoleUser), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var b model.Booking
		require.NoError(t, json.Unmarshal(decodeBody(t, w)["booking"], &b))
		assert.Equal(t, model.BookingCancelled, b.Status)
	})

	t.Run("list filters by status", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/bookings?status=CANCELLED", token(t, "user-1", authz.RoleUser), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var bookings []model.Booking
		require.NoError(t, json.Unmarshal(decodeBody(t, w)["bookings"], &bookings))
		require.Len(t, bookings, 1)
		assert.Equal(t, created.ID, bookings[0].ID)
	})

	t.Run("list rejects unknown status", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/bookings?status=BOGUS", token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown booking", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/bookings/missing", token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAvailabilityEndpoints(t *testing.T) {
	s := newTestServer(t)
	resource := s.createResource(t, "Room A", model.CategoryMeetingRoom)

	w := s.do(t, http.MethodPost, "/api/bookings", token(t, "user-1", authz.RoleUser), gin.H{
		"resourceId": resource.ID,
		"title":      "standup",
		"startTime":  ts(10),
		"endTime":    ts(11),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	rangeQuery := fmt.Sprintf("from=%s&to=%s",
		ts(8).Format(time.RFC3339), ts(18).Format(time.RFC3339))

	t.Run("availability timeline", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources/"+resource.ID+"/availability?"+rangeQuery,
			token(t, "user-1", authz.RoleUser), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var spans []booking.Span
		require.NoError(t, json.Unmarshal(decodeBody(t, w)["spans"], &spans))
		require.Len(t, spans, 3)
		assert.False(t, spans[0].Busy)
		assert.True(t, spans[1].Busy)
		assert.False(t, spans[2].Busy)
	})

	t.Run("range is mandatory", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources/"+resource.ID+"/availability",
			token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/resources/"+resource.ID+"/availability?from=yesterday&to=tomorrow",
			token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("free probe", func(t *testing.T) {
		busyQuery := fmt.Sprintf("from=%s&to=%s",
			ts(10).Format(time.RFC3339), ts(11).Format(time.RFC3339))
		w := s.do(t, http.MethodGet, "/api/resources/"+resource.ID+"/free?"+busyQuery,
			token(t, "user-1", authz.RoleUser), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"free":false`)

		freeQuery := fmt.Sprintf("from=%s&to=%s",
			ts(11).Format(time.RFC3339), ts(12).Format(time.RFC3339))
		w = s.do(t, http.MethodGet, "/api/resources/"+resource.ID+"/free?"+freeQuery,
			token(t, "user-1", authz.RoleUser), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"free":true`)
	})
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createResource(t, "Room A", model.CategoryMeetingRoom)

	t.Run("users may not view stats", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/stats", token(t, "user-1", authz.RoleUser), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("managers may", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/stats", token(t, "mgr-1", authz.RoleManager), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"totalResources":1`)
	})
}

func TestSubscriptionEndpoints(t *testing.T) {
	s := newTestServer(t)
	bearer := token(t, "user-1", authz.RoleUser)

	w := s.do(t, http.MethodPut, "/api/subscriptions", bearer, gin.H{
		"endpoint": "https://push.example.com/sub-1",
		"p256dh":   "key",
		"auth":     "auth",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("listing shows own endpoints only", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/subscriptions", bearer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "sub-1")

		w = s.do(t, http.MethodGet, "/api/subscriptions", token(t, "user-2", authz.RoleUser), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "sub-1")
	})

	t.Run("delete", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/api/subscriptions", bearer, gin.H{
			"endpoint": "https://push.example.com/sub-1",
		})
		require.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(t, http.MethodGet, "/api/subscriptions", bearer, nil)
		assert.NotContains(t, w.Body.String(), "sub-1")
	})

	t.Run("incomplete subscription rejected", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/api/subscriptions", bearer, gin.H{
			"endpoint": "https://push.example.com/sub-2",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
