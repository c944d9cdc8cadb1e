package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"franchise-map-api/internal/mapstate"
	"franchise-map-api/internal/models"
	"franchise-map-api/internal/service"
	"franchise-map-api/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMapService is a mock implementation of the MapService interface
type MockMapService struct {
	mock.Mock
}

func (m *MockMapService) view(args mock.Arguments) (*service.MapView, error) {
	return args.Get(0).(*service.MapView), args.Error(1)
}

func (m *MockMapService) Open(ctx context.Context, p service.OpenMapParams) (*service.MapView, error) {
	return m.view(m.Called(ctx, p))
}

func (m *MockMapService) Get(id string) (*service.MapView, error) {
	return m.view(m.Called(id))
}

func (m *MockMapService) ReportEnvironment(id string, report session.EnvironmentReport) error {
	return m.Called(id, report).Error(0)
}

func (m *MockMapService) ReportContainer(id string, rect mapstate.Rect) error {
	return m.Called(id, rect).Error(0)
}

func (m *MockMapService) Resize(id string, rect mapstate.Rect) (*service.MapView, error) {
	return m.view(m.Called(id, rect))
}

func (m *MockMapService) AddBrowserLog(id string, message string) error {
	return m.Called(id, message).Error(0)
}

func (m *MockMapService) ReportMapError(id string, message string) (*service.MapView, error) {
	return m.view(m.Called(id, message))
}

func (m *MockMapService) MarkInitialized(id string) (*service.MapView, error) {
	return m.view(m.Called(id))
}

func (m *MockMapService) Retry(id string) (*service.MapView, error) {
	return m.view(m.Called(id))
}

func (m *MockMapService) Overlay(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func (m *MockMapService) Close(id string) error {
	return m.Called(id).Error(0)
}

const sessionID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

func newRouter(maps MapService, backfill BackfillService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewLocationHandler(new(MockLocationService)), NewMapHandler(maps), NewBackfillHandler(context.Background(), backfill))
	return r
}

func newMapRouter(svc MapService) *gin.Engine {
	return newRouter(svc, new(MockBackfillService))
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMapHandler_Open(t *testing.T) {
	view := &service.MapView{ID: sessionID, Snapshot: mapstate.Snapshot{Step: mapstate.StepStarting, IsLoading: true}}

	tests := []struct {
		name           string
		body           string
		expectParams   *service.OpenMapParams
		mockView       *service.MapView
		mockError      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "malformed body",
			body:           `{"locations":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "by franchisee",
			body:           `{"franchisee_id":"fr-1","container":{"width":800,"height":600}}`,
			expectParams:   &service.OpenMapParams{FranchiseeID: "fr-1", Container: &mapstate.Rect{Width: 800, Height: 600}},
			mockView:       view,
			expectedStatus: http.StatusCreated,
		},
		{
			name: "inline locations with bad coordinates still open",
			body: `{"locations":[{"id":"b","name":"n","address":"a","city":"c","state":"s","zip":"z","latitude":null,"longitude":-74}]}`,
			expectParams: &service.OpenMapParams{Locations: []models.LocationRecord{{
				ID: "b", Name: "n", Address: "a", City: "c", State: "s", Zip: "z", Longitude: models.Float64(-74),
			}}},
			mockView:       view,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing source",
			body:           `{}`,
			expectParams:   &service.OpenMapParams{},
			mockView:       nil,
			mockError:      fmt.Errorf("%w: franchisee_id or locations is required", service.ErrInvalidRequest),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "service: invalid request: franchisee_id or locations is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockMapService)
			if tt.expectParams != nil {
				mockSvc.On("Open", mock.Anything, *tt.expectParams).Return(tt.mockView, tt.mockError)
			}

			w := doRequest(newMapRouter(mockSvc), http.MethodPost, "/map/sessions", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			} else {
				assert.Equal(t, sessionID, body["id"])
				assert.Equal(t, "starting", body["initializationStep"])
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestMapHandler_Get(t *testing.T) {
	mockSvc := new(MockMapService)
	mockSvc.On("Get", sessionID).Return(&service.MapView{
		ID:              sessionID,
		ShouldRenderMap: true,
		Snapshot:        mapstate.Snapshot{Step: mapstate.StepLeafletValid, LeafletValid: true, ContainerReady: true},
	}, nil)
	mockSvc.On("Get", "missing").Return((*service.MapView)(nil), session.ErrSessionNotFound)
	r := newMapRouter(mockSvc)

	w := doRequest(r, http.MethodGet, "/map/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["shouldRenderMap"])
	assert.Equal(t, "leaflet-valid", body["initializationStep"])

	w = doRequest(r, http.MethodGet, "/map/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "map session not found", decode(t, w)["error"])
}

func TestMapHandler_Reports(t *testing.T) {
	mockSvc := new(MockMapService)
	env := session.EnvironmentReport{
		Stylesheets: []mapstate.Stylesheet{{Href: "/leaflet.css"}},
		HasLibrary:  true,
		ReadyState:  "complete",
	}
	mockSvc.On("ReportEnvironment", sessionID, env).Return(nil)
	mockSvc.On("ReportContainer", sessionID, mapstate.Rect{Width: 300, Height: 200}).Return(nil)
	mockSvc.On("AddBrowserLog", sessionID, "tiles loaded").Return(nil)
	mockSvc.On("Resize", sessionID, mapstate.Rect{Width: 640, Height: 480}).Return(&service.MapView{ID: sessionID}, nil)
	r := newMapRouter(mockSvc)

	w := doRequest(r, http.MethodPut, "/map/sessions/"+sessionID+"/environment",
		`{"stylesheets":[{"href":"/leaflet.css"}],"hasLibrary":true,"readyState":"complete"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodPut, "/map/sessions/"+sessionID+"/container", `{"width":300,"height":200}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodPut, "/map/sessions/"+sessionID+"/container", `{"width":-1,"height":200}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/map/sessions/"+sessionID+"/logs", `{"message":"tiles loaded"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodPost, "/map/sessions/"+sessionID+"/resize", `{"width":640,"height":480}`)
	assert.Equal(t, http.StatusOK, w.Code)

	mockSvc.AssertExpectations(t)
}

func TestMapHandler_Lifecycle(t *testing.T) {
	mockSvc := new(MockMapService)
	fallback := &service.MapView{ID: sessionID, Snapshot: mapstate.Snapshot{
		Step:           mapstate.StepFallbackActive,
		UseFallbackMap: true,
		MapError:       "Map container not found",
	}}
	mockSvc.On("ReportMapError", sessionID, "Map container not found").Return(fallback, nil)
	mockSvc.On("Retry", sessionID).Return(&service.MapView{ID: sessionID, Snapshot: mapstate.Snapshot{Step: mapstate.StepRetrying}}, nil)
	mockSvc.On("MarkInitialized", sessionID).
		Return((*service.MapView)(nil), fmt.Errorf("%w: %v", service.ErrInvalidRequest, mapstate.ErrNotReady))
	mockSvc.On("Overlay", sessionID).Return("<div>debug</div>", nil)
	mockSvc.On("Close", sessionID).Return(nil)
	r := newMapRouter(mockSvc)

	w := doRequest(r, http.MethodPost, "/map/sessions/"+sessionID+"/errors", `{"message":"Map container not found"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Map container not found", decode(t, w)["mapError"])

	w = doRequest(r, http.MethodPost, "/map/sessions/"+sessionID+"/retry", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "retrying", decode(t, w)["initializationStep"])

	w = doRequest(r, http.MethodPost, "/map/sessions/"+sessionID+"/initialized", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/map/sessions/"+sessionID+"/debug", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<div>debug</div>", w.Body.String())

	w = doRequest(r, http.MethodDelete, "/map/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	mockSvc.AssertExpectations(t)
}

func TestRegisterRoutes_Health(t *testing.T) {
	w := doRequest(newMapRouter(new(MockMapService)), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
