package spaces

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spacebook/internal/apiclient"
	"spacebook/internal/availability"
	"spacebook/internal/cache"
	"spacebook/internal/domain"
	"spacebook/internal/notification"
	"spacebook/internal/session"
)

type mockSpaceAPI struct {
	mock.Mock
}

func (m *mockSpaceAPI) ListSpaces(ctx context.Context, creds apiclient.Credentials, q apiclient.AvailabilityQuery) ([]domain.Space, error) {
	args := m.Called(ctx, creds, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Space), args.Error(1)
}

func (m *mockSpaceAPI) CreateSpace(ctx context.Context, creds apiclient.Credentials, p apiclient.SpacePayload) (*domain.Space, error) {
	args := m.Called(ctx, creds, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Space), args.Error(1)
}

func (m *mockSpaceAPI) UpdateSpace(ctx context.Context, creds apiclient.Credentials, id int64, p apiclient.SpacePayload) (*domain.Space, error) {
	args := m.Called(ctx, creds, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Space), args.Error(1)
}

func (m *mockSpaceAPI) DeleteSpace(ctx context.Context, creds apiclient.Credentials, id int64) error {
	args := m.Called(ctx, creds, id)
	return args.Error(0)
}

type memoryCache struct {
	lists       map[int64][]domain.Space
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{lists: map[int64][]domain.Space{}}
}

func (c *memoryCache) Get(_ context.Context, userID int64) ([]domain.Space, error) {
	l, ok := c.lists[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return l, nil
}

func (c *memoryCache) Set(_ context.Context, userID int64, spaces []domain.Space) {
	c.lists[userID] = spaces
}

func (c *memoryCache) InvalidateAll(context.Context) error {
	c.invalidated++
	c.lists = map[int64][]domain.Space{}
	return nil
}

type sentToast struct {
	userID         int64
	kind           notification.Kind
	message, title string
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []sentToast
}

func (n *recordingNotifier) Notify(userID int64, kind notification.Kind, message, title string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, sentToast{userID, kind, message, title})
}

func (n *recordingNotifier) last() sentToast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toasts[len(n.toasts)-1]
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

var (
	user  = &session.Session{UserID: 3, Name: "Ana"}
	admin = &session.Session{UserID: 1, Name: "Root", IsAdmin: true}

	catalog = []domain.Space{
		{ID: 1, Name: "Room A", Type: "meeting_room", Capacity: 8},
		{ID: 2, Name: "Hall", Type: "auditorium", Capacity: 120},
		{ID: 3, Name: "Desk", Type: "open_space", Capacity: 1},
		{ID: 4, Name: "Room B", Type: "meeting_room", Capacity: 12},
	}
)

func newService() (*Service, *mockSpaceAPI, *memoryCache, *recordingNotifier) {
	api := new(mockSpaceAPI)
	c := newMemoryCache()
	n := &recordingNotifier{}
	return NewService(api, c, n, nil), api, c, n
}

func TestList_LocalFilterAndTypes(t *testing.T) {
	svc, api, c, _ := newService()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{}).Return(catalog, nil)

	view, err := svc.List(context.Background(), user, availability.Criteria{Type: "meeting_room", MinCapacity: intPtr(10), Date: "2024-12-20"})
	require.NoError(t, err)

	require.Len(t, view.Spaces, 1)
	assert.Equal(t, "Room B", view.Spaces[0].Name)
	assert.Equal(t, "/reservations/create?spaceId="+strconv.FormatInt(view.Spaces[0].ID.Int64(), 10), view.Spaces[0].ReserveRedirect)
	assert.Equal(t, []string{"auditorium", "meeting_room", "open_space"}, view.Types)
	assert.Len(t, view.TimeOptions, 24)
	assert.False(t, view.Stale)
	assert.False(t, view.IsAdmin)
	assert.Len(t, c.lists[user.UserID], 4)
}

func TestList_AvailabilityQuery(t *testing.T) {
	svc, api, c, _ := newService()
	q := apiclient.AvailabilityQuery{Date: "2024-12-20", StartTime: "09:00", EndTime: "11:00"}
	api.On("ListSpaces", mock.Anything, admin, q).Return(catalog[:2], nil)

	view, err := svc.List(context.Background(), admin, availability.Criteria{Date: "2024-12-20", StartTime: "09:00", EndTime: "11:00", MaxCapacity: intPtr(50)})
	require.NoError(t, err)
	require.Len(t, view.Spaces, 1)
	assert.Equal(t, "Room A", view.Spaces[0].Name)
	assert.True(t, view.IsAdmin)
	api.AssertExpectations(t)
	assert.Empty(t, c.lists, "a windowed list must not replace the last good list")
}

func TestList_WindowedFailureIgnoresLastGood(t *testing.T) {
	svc, api, c, _ := newService()
	c.lists[user.UserID] = catalog
	api.On("ListSpaces", mock.Anything, user, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.List(context.Background(), user, availability.Criteria{Date: "2024-12-20", StartTime: "09:00", EndTime: "11:00"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestList_WindowedThenUnconstrainedFailureServesFullList(t *testing.T) {
	svc, api, _, _ := newService()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{}).Return(catalog, nil).Once()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{Date: "2024-12-20", StartTime: "09:00", EndTime: "11:00"}).Return(catalog[:1], nil).Once()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{}).Return(nil, errors.New("timeout")).Once()

	_, err := svc.List(context.Background(), user, availability.Criteria{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), user, availability.Criteria{Date: "2024-12-20", StartTime: "09:00", EndTime: "11:00"})
	require.NoError(t, err)

	view, err := svc.List(context.Background(), user, availability.Criteria{})
	require.NoError(t, err)
	assert.True(t, view.Stale)
	assert.Len(t, view.Spaces, 4)
	assert.Equal(t, []string{"auditorium", "meeting_room", "open_space"}, view.Types)
}

func TestListQuery_EmptyBoundsAreUnset(t *testing.T) {
	c, err := ListQuery{Type: " ", MinCapacity: "", MaxCapacity: "  "}.Criteria()
	require.NoError(t, err)
	assert.Nil(t, c.MinCapacity)
	assert.Nil(t, c.MaxCapacity)
	assert.Len(t, availability.Filter(catalog, c), 4)

	c, err = ListQuery{MinCapacity: "10", MaxCapacity: "0"}.Criteria()
	require.NoError(t, err)
	assert.Equal(t, 10, *c.MinCapacity)
	assert.Equal(t, 0, *c.MaxCapacity)

	_, err = ListQuery{MinCapacity: "ten"}.Criteria()
	assert.Error(t, err)
}

func TestList_StaleOnError(t *testing.T) {
	svc, api, c, _ := newService()
	c.lists[user.UserID] = catalog
	api.On("ListSpaces", mock.Anything, user, mock.Anything).Return(nil, errors.New("timeout"))

	view, err := svc.List(context.Background(), user, availability.Criteria{Type: "auditorium"})
	require.NoError(t, err)
	assert.True(t, view.Stale)
	require.Len(t, view.Spaces, 1)
	assert.Equal(t, "Hall", view.Spaces[0].Name)
}

func TestList_ErrorWithoutCache(t *testing.T) {
	svc, api, _, _ := newService()
	api.On("ListSpaces", mock.Anything, user, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.List(context.Background(), user, availability.Criteria{})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestEditForm_NotFound(t *testing.T) {
	svc, api, _, _ := newService()
	api.On("ListSpaces", mock.Anything, admin, apiclient.AvailabilityQuery{}).Return(catalog, nil)

	_, err := svc.EditForm(context.Background(), admin, 99)
	assert.ErrorIs(t, err, ErrSpaceNotFound)

	view, err := svc.EditForm(context.Background(), admin, 2)
	require.NoError(t, err)
	assert.Equal(t, "Hall", view.Space.Name)
	assert.Equal(t, "Edit Space", view.Form.PageTitle)
	assert.Len(t, view.TypeOptions, 4)
}

func TestCreate_ValidationMessages(t *testing.T) {
	svc, api, _, n := newService()

	_, err := svc.Create(context.Background(), admin, SpaceRequest{Name: "  ", Capacity: 0})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Type is required", fields["type"])
	assert.Equal(t, "Capacity must be at least 1", fields["capacity"])
	assert.Equal(t, sentToast{1, notification.KindError, "Please fix the form errors", "Validation Error"}, n.last())
	api.AssertNotCalled(t, "CreateSpace", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_OptionalFieldsOnlyWhenSet(t *testing.T) {
	svc, api, c, n := newService()
	c.lists[admin.UserID] = catalog

	expected := apiclient.SpacePayload{Name: "Studio", Type: "other", Capacity: 4}
	api.On("CreateSpace", mock.Anything, admin, expected).Return(&domain.Space{ID: 9, Name: "Studio"}, nil)

	created, err := svc.Create(context.Background(), admin, SpaceRequest{Name: "Studio", Type: "other", Capacity: 4, PricePerHour: floatPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID.Int64())
	assert.Equal(t, 1, c.invalidated)
	assert.Equal(t, `Space "Studio" has been created successfully`, n.last().message)
	assert.Equal(t, notification.KindSuccess, n.last().kind)
}

func TestCreate_UpstreamFailureToast(t *testing.T) {
	svc, api, _, n := newService()
	api.On("CreateSpace", mock.Anything, admin, mock.Anything).Return(nil, &apiclient.APIError{Status: http.StatusInternalServerError})

	_, err := svc.Create(context.Background(), admin, SpaceRequest{Name: "Studio", Type: "other", Capacity: 4, Description: "d", PricePerHour: floatPtr(25)})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, sentToast{1, notification.KindError, "Failed to create space. Please try again.", "Creation Failed"}, n.last())

	p := api.Calls[0].Arguments.Get(2).(apiclient.SpacePayload)
	assert.Equal(t, "d", p.Description)
	require.NotNil(t, p.PricePerHour)
	assert.Equal(t, 25.0, *p.PricePerHour)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	svc, api, _, n := newService()
	api.On("ListSpaces", mock.Anything, admin, apiclient.AvailabilityQuery{}).Return(catalog, nil)

	res, err := svc.Delete(context.Background(), admin, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "confirmation_required", res.Status)
	assert.Equal(t, `Are you sure you want to delete the space "Hall"? This action cannot be undone.`, res.Prompt)
	api.AssertNotCalled(t, "DeleteSpace", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, n.toasts)

	api.On("DeleteSpace", mock.Anything, admin, int64(2)).Return(nil)
	res, err = svc.Delete(context.Background(), admin, 2, true)
	require.NoError(t, err)
	assert.Equal(t, "deleted", res.Status)
	assert.Equal(t, `Space "Hall" has been deleted successfully`, n.last().message)
}

func TestDelete_UpstreamMessageWins(t *testing.T) {
	svc, api, _, n := newService()
	api.On("ListSpaces", mock.Anything, admin, apiclient.AvailabilityQuery{}).Return(catalog, nil)
	api.On("DeleteSpace", mock.Anything, admin, int64(1)).Return(&apiclient.APIError{Status: http.StatusConflict, Message: "Space has reservations"})

	_, err := svc.Delete(context.Background(), admin, 1, true)
	require.Error(t, err)
	assert.Equal(t, sentToast{1, notification.KindError, "Space has reservations", "Delete Failed"}, n.last())
}

func newRouter(svc *Service, sess *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api/v1", func(c *gin.Context) {
		c.Set("session", sess)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(group, func(c *gin.Context) { c.Next() })
	return router
}

func TestHandler_GetNotFoundRedirects(t *testing.T) {
	svc, api, _, _ := newService()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{}).Return(catalog, nil)

	w := httptest.NewRecorder()
	newRouter(svc, user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/spaces/42", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/spaces"`)
}

func TestHandler_ListBindsQuery(t *testing.T) {
	svc, api, _, _ := newService()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{}).Return(catalog, nil)

	w := httptest.NewRecorder()
	newRouter(svc, user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/spaces?type=meeting_room&max_capacity=10", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Room A")
	assert.NotContains(t, w.Body.String(), "Room B")
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestHandler_ListEmptyFilterFieldsKeepEverySpace(t *testing.T) {
	svc, api, _, _ := newService()
	api.On("ListSpaces", mock.Anything, user, apiclient.AvailabilityQuery{}).Return(catalog, nil)
	router := newRouter(svc, user)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/spaces?type=&min_capacity=&max_capacity=&date=&start_time=&end_time=", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":4`)
	assert.NotContains(t, w.Body.String(), `"min_capacity"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/spaces?min_capacity=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateValidationError(t *testing.T) {
	svc, _, _, _ := newService()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spaces", bytes.NewBufferString(`{"name":"X","type":"other","capacity":0}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(svc, admin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Capacity must be at least 1")
}
