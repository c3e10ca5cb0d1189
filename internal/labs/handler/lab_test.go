package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labreserve/internal/labs/service"
	"labreserve/pkg/config"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"
)

type mockLabService struct {
	createFunc        func(ctx context.Context, lab *model.Lab) error
	getByIDFunc       func(ctx context.Context, id string) (*model.Lab, error)
	getAllFunc        func(ctx context.Context, limit int, offset int64) ([]*model.Lab, int64, error)
	updateFunc        func(ctx context.Context, id string, updates *model.LabUpdate) error
	deleteFunc        func(ctx context.Context, id string) error
	statusFunc        func(ctx context.Context, labID string, asOf time.Time) (*model.StatusSnapshot, error)
	timelineFunc      func(ctx context.Context, labID string, date time.Time) (*service.DayTimeline, error)
	findAvailableFunc func(ctx context.Context, req service.AvailabilityRequest) ([]*model.Lab, error)
}

func (m *mockLabService) Create(ctx context.Context, lab *model.Lab) error {
	return m.createFunc(ctx, lab)
}

func (m *mockLabService) GetByID(ctx context.Context, id string) (*model.Lab, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockLabService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Lab, int64, error) {
	return m.getAllFunc(ctx, limit, offset)
}

func (m *mockLabService) Update(ctx context.Context, id string, updates *model.LabUpdate) error {
	return m.updateFunc(ctx, id, updates)
}

func (m *mockLabService) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockLabService) Status(ctx context.Context, labID string, asOf time.Time) (*model.StatusSnapshot, error) {
	return m.statusFunc(ctx, labID, asOf)
}

func (m *mockLabService) Timeline(ctx context.Context, labID string, date time.Time) (*service.DayTimeline, error) {
	return m.timelineFunc(ctx, labID, date)
}

func (m *mockLabService) FindAvailable(ctx context.Context, req service.AvailabilityRequest) ([]*model.Lab, error) {
	return m.findAvailableFunc(ctx, req)
}

func testConfig() *config.Config {
	return &config.Config{
		Log:      logger.New(logger.Config{Level: "error", Format: logger.FormatJSON, Service: "test"}),
		Location: time.UTC,
	}
}

func newRouter(svc *mockLabService) *httprouter.Router {
	router := httprouter.New()
	NewLabHandler(svc, testConfig()).RegisterRoutes(router)
	return router
}

func TestStatus_AsOfParameter(t *testing.T) {
	var gotAsOf time.Time
	svc := &mockLabService{
		statusFunc: func(ctx context.Context, labID string, asOf time.Time) (*model.StatusSnapshot, error) {
			gotAsOf = asOf
			return &model.StatusSnapshot{Status: model.StateFree}, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/labs/id/65b2f0a1c4d5e6f7a8b9c0aa/status?as_of=2025-09-15T10:30:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC), gotAsOf.UTC())
}

func TestStatus_InvalidAsOf(t *testing.T) {
	router := newRouter(&mockLabService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/labs/id/65b2f0a1c4d5e6f7a8b9c0aa/status?as_of=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimeline_DateParameter(t *testing.T) {
	var gotDate time.Time
	svc := &mockLabService{
		timelineFunc: func(ctx context.Context, labID string, date time.Time) (*service.DayTimeline, error) {
			gotDate = date
			return &service.DayTimeline{LabID: labID, Date: date.Format("2006-01-02")}, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/labs/id/65b2f0a1c4d5e6f7a8b9c0aa/timeline?date=2025-09-15", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, gotDate.Year())
	assert.Equal(t, time.September, gotDate.Month())
	assert.Equal(t, 15, gotDate.Day())
}

func TestFindAvailable_BuildsInterval(t *testing.T) {
	var gotReq service.AvailabilityRequest
	svc := &mockLabService{
		findAvailableFunc: func(ctx context.Context, req service.AvailabilityRequest) ([]*model.Lab, error) {
			gotReq = req
			return []*model.Lab{}, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/labs/available?date=2025-09-15&start=09:30&duration_hours=1.5&min_capacity=25&software=matlab&software=autocad", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 9, 15, 9, 30, 0, 0, time.UTC), gotReq.Start)
	assert.Equal(t, time.Date(2025, 9, 15, 11, 0, 0, 0, time.UTC), gotReq.End)
	assert.Equal(t, 25, gotReq.MinCapacity)
	assert.Equal(t, []string{"matlab", "autocad"}, gotReq.Software)
}

func TestFindAvailable_MissingStart(t *testing.T) {
	router := newRouter(&mockLabService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/labs/available?date=2025-09-15&duration_hours=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindAvailable_RejectsZeroDuration(t *testing.T) {
	router := newRouter(&mockLabService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/labs/available?date=2025-09-15&start=09:00&duration_hours=0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
