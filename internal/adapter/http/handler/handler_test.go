package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	args := m.Called(ctx, username, password)
	tp, _ := args.Get(0).(*models.TokenPair)
	return tp, args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, token string) (*models.TokenPair, error) {
	args := m.Called(ctx, token)
	tp, _ := args.Get(0).(*models.TokenPair)
	return tp, args.Error(1)
}

func (m *mockAuth) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockDevices struct{ mock.Mock }

func (m *mockDevices) Create(ctx context.Context, d models.Device) (models.Device, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(models.Device), args.Error(1)
}

func (m *mockDevices) Update(ctx context.Context, id types.DeviceID, patch models.DevicePatch) (models.Device, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Device), args.Error(1)
}

func (m *mockDevices) Delete(ctx context.Context, id types.DeviceID) error {
	return m.Called(ctx, id).Error(0)
}

type mockViews struct{ mock.Mock }

func (m *mockViews) Locations(ctx context.Context, f models.LocationFilter) (models.LocationResponse, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(models.LocationResponse), args.Error(1)
}

func (m *mockViews) Dashboard(ctx context.Context) models.Dashboard {
	return m.Called(ctx).Get(0).(models.Dashboard)
}

func (m *mockViews) Devices(ctx context.Context) ([]models.DeviceSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.DeviceSummary), args.Error(1)
}

func (m *mockViews) Device(ctx context.Context, id types.DeviceID) (models.DeviceDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.DeviceDetail), args.Error(1)
}

func (m *mockViews) Track(ctx context.Context, id types.DeviceID, hours int) (models.DeviceTrack, error) {
	args := m.Called(ctx, id, hours)
	return args.Get(0).(models.DeviceTrack), args.Error(1)
}

type mockIngest struct{ mock.Mock }

func (m *mockIngest) Record(ctx context.Context, r models.LocationRecord, source string) error {
	return m.Called(ctx, r, source).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, req models.UserCreateRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) List(ctx context.Context, f models.Filters) (*models.UserPage, error) {
	args := m.Called(ctx, f)
	p, _ := args.Get(0).(*models.UserPage)
	return p, args.Error(1)
}

func (m *mockUsers) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthLogin(t *testing.T) {
	svc := &mockAuth{}
	h := NewAuth(svc, logger.Nop())

	pair := &models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	svc.On("Login", mock.Anything, "admin", "secret123").Return(pair, nil).Once()
	svc.On("Login", mock.Anything, "admin", "wrong").
		Return(nil, fmt.Errorf("AuthService.Login: %w", types.ErrInvalidCredentials)).Once()

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"secret123"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "access", body["access_token"])
		assert.Equal(t, "refresh", body["refresh_token"])
	})

	t.Run("invalid credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decodeBody(t, rec)["error"])
	})

	t.Run("missing fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":""}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs, ok := decodeBody(t, rec)["error"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, errs, "username")
		assert.Contains(t, errs, "password")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	svc.AssertExpectations(t)
}

func TestAuthMe(t *testing.T) {
	svc := &mockAuth{}
	h := NewAuth(svc, logger.Nop())

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated", func(t *testing.T) {
		id := uuid.New()
		svc.On("Me", mock.Anything, id).Return(&models.User{ID: id, Username: "admin", Role: types.RoleAdmin}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(models.WithClaims(req.Context(), &models.CustomClaims{UserID: id, Role: types.RoleAdmin}))
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		user, ok := decodeBody(t, rec)["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "admin", user["username"])
		assert.NotContains(t, user, "password")
	})
}

func TestDevicesCreate(t *testing.T) {
	devices := &mockDevices{}
	h := NewDevices(devices, &mockViews{}, logger.Nop())

	t.Run("default color", func(t *testing.T) {
		devices.On("Create", mock.Anything, mock.MatchedBy(func(d models.Device) bool {
			return d.ID == "12" && d.Color == models.DefaultDeviceColor
		})).Return(models.Device{ID: "12", Name: "Tablet", Color: models.DefaultDeviceColor}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/devices", strings.NewReader(`{"id":12,"name":"Tablet"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "12", decodeBody(t, rec)["id"])
	})

	t.Run("duplicate", func(t *testing.T) {
		devices.On("Create", mock.Anything, mock.Anything).
			Return(models.Device{}, fmt.Errorf("DeviceRepo.Create: %w", types.ErrDeviceExists)).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/devices", strings.NewReader(`{"id":"10","name":"Pixel","color":"#e74c3c"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, types.ErrDeviceExists.Error(), decodeBody(t, rec)["error"])
	})

	t.Run("invalid color", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/devices", strings.NewReader(`{"id":"10","name":"Pixel","color":"red"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs, ok := decodeBody(t, rec)["error"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, errs, "color")
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/devices", strings.NewReader(`{"id":"10","name":"Pixel","owner":"x"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	devices.AssertExpectations(t)
}

func TestDevicesGetAndTrack(t *testing.T) {
	views := &mockViews{}
	h := NewDevices(&mockDevices{}, views, logger.Nop())

	views.On("Device", mock.Anything, types.DeviceID("10")).
		Return(models.DeviceDetail{DeviceSummary: models.DeviceSummary{Device: models.Device{ID: "10", Name: "Joachim Pixel"}}, Address: "Berlin"}, nil).Once()
	views.On("Device", mock.Anything, types.DeviceID("99")).
		Return(models.DeviceDetail{}, types.ErrDeviceNotFound).Once()
	views.On("Track", mock.Anything, types.DeviceID("10"), 24).
		Return(models.DeviceTrack{DeviceID: "10", Points: []models.LocationRecord{}, DistanceKm: 1.5}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/devices/10", nil)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Berlin", decodeBody(t, rec)["address"])

	req = httptest.NewRequest(http.MethodGet, "/api/devices/99", nil)
	req.SetPathValue("id", "99")
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/devices/10/track?timeRangeHours=24", nil)
	req.SetPathValue("id", "10")
	rec = httptest.NewRecorder()
	h.Track(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1.5, decodeBody(t, rec)["distance_km"], 1e-9)

	req = httptest.NewRequest(http.MethodGet, "/api/devices/10/track?timeRangeHours=abc", nil)
	req.SetPathValue("id", "10")
	rec = httptest.NewRecorder()
	h.Track(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	views.AssertExpectations(t)
}

func TestDevicesDelete(t *testing.T) {
	devices := &mockDevices{}
	h := NewDevices(devices, &mockViews{}, logger.Nop())

	devices.On("Delete", mock.Anything, types.DeviceID("10")).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/devices/10", nil)
	req.SetPathValue("id", "10")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	devices.AssertExpectations(t)
}

func TestLocationsList(t *testing.T) {
	views := &mockViews{}
	h := NewLocations(views, &mockIngest{}, "http", logger.Nop())

	resp := models.NewLocationResponse([]models.LocationRecord{
		{DeviceID: "10", Latitude: 52.5, Longitude: 13.4, Timestamp: "2024-03-15T10:15:00Z"},
	}, time.Now())
	views.On("Locations", mock.Anything, models.LocationFilter{DeviceID: "10", SinceHoursAgo: 2, Limit: 50}).
		Return(resp, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/locations?username=10&timeRangeHours=2&limit=50", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["total_points"])
	assert.Equal(t, "2024-03-15T10:15:00Z", body["last_updated"])

	req = httptest.NewRequest(http.MethodGet, "/api/locations?limit=20000", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	views.On("Locations", mock.Anything, mock.Anything).
		Return(models.LocationResponse{}, fmt.Errorf("webhook: %w", types.ErrSourceUnavailable)).Once()
	req = httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	views.AssertExpectations(t)
}

func TestLocationsRecord(t *testing.T) {
	ingest := &mockIngest{}
	h := NewLocations(&mockViews{}, ingest, "http", logger.Nop())

	ingest.On("Record", mock.Anything, mock.MatchedBy(func(r models.LocationRecord) bool {
		return r.DeviceID == "10" && r.Latitude == 52.5
	}), "http").Return(nil).Once()

	body := `{"username":"10","latitude":52.5,"longitude":13.4,"timestamp":"2024-03-15T10:15:00Z","extra":"ignored"}`
	rec := httptest.NewRecorder()
	h.Record(rec, httptest.NewRequest(http.MethodPost, "/api/locations", strings.NewReader(body)))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	ingest.On("Record", mock.Anything, mock.Anything, "http").
		Return(&validator.ValidationError{Errors: map[string]string{"latitude": "must be between -90 and 90"}}).Once()

	body = `{"username":"10","latitude":95,"longitude":13.4,"timestamp":"2024-03-15T10:15:00Z"}`
	rec = httptest.NewRecorder()
	h.Record(rec, httptest.NewRequest(http.MethodPost, "/api/locations", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs, ok := decodeBody(t, rec)["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "latitude")

	ingest.AssertExpectations(t)
}

func TestDashboardGet(t *testing.T) {
	views := &mockViews{}
	h := NewDashboard(views, logger.Nop())

	views.On("Dashboard", mock.Anything).Return(models.Dashboard{
		Stats:    models.DashboardStats{TotalDevices: 2},
		Devices:  []models.DashboardCard{},
		Degraded: true,
	}).Once()

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, []any{}, body["devices"])
}

func TestUsersDeleteSelf(t *testing.T) {
	users := &mockUsers{}
	h := NewUsers(users, logger.Nop())

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	req = req.WithContext(models.WithClaims(req.Context(), &models.CustomClaims{UserID: id, Role: types.RoleAdmin}))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUsersCreateAndList(t *testing.T) {
	users := &mockUsers{}
	h := NewUsers(users, logger.Nop())

	users.On("Create", mock.Anything, models.UserCreateRequest{Username: "viewer", Password: "password1"}).
		Return(&models.User{ID: uuid.New(), Username: "viewer", Role: types.RoleViewer}, nil).Once()

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"viewer","password":"password1"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"viewer","password":"short"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	users.On("List", mock.Anything, models.NewUserFilters(2, 10, "-created_at")).
		Return(&models.UserPage{Users: []models.User{}}, nil).Once()

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/users?page=2&page_size=10&sort=-created_at", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/users/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	users.AssertExpectations(t)
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("op: %w", types.ErrDeviceNotFound), http.StatusNotFound},
		{types.ErrUsernameTaken, http.StatusConflict},
		{types.ErrLastAdmin, http.StatusConflict},
		{types.ErrExpiredToken, http.StatusUnauthorized},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrInvalidTimestamp, http.StatusUnprocessableEntity},
		{types.ErrGeocoderUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetCode(tt.err), tt.err.Error())
	}

	assert.Equal(t, "internal server error", publicMessage(errors.New("pq: secret detail")))
}

func TestHealthCheck(t *testing.T) {
	h := NewHealth("admin-service", map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("refused") }),
	}, logger.Nop())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "unavailable"}, body["dependencies"])
	info, ok := body["system_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin-service", info["service-name"])
}
