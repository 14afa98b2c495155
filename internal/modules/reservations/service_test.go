package reservations

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spacebook/internal/apiclient"
	"spacebook/internal/availability"
	"spacebook/internal/domain"
	"spacebook/internal/notification"
	"spacebook/internal/pkg/viewseq"
	"spacebook/internal/session"
)

type mockReservationAPI struct {
	mock.Mock
}

func (m *mockReservationAPI) ListSpaces(ctx context.Context, creds apiclient.Credentials, q apiclient.AvailabilityQuery) ([]domain.Space, error) {
	args := m.Called(ctx, creds, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Space), args.Error(1)
}

func (m *mockReservationAPI) ListReservationsByUser(ctx context.Context, creds apiclient.Credentials, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, creds, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *mockReservationAPI) ListReservationsBySpace(ctx context.Context, creds apiclient.Credentials, spaceID int64, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, creds, spaceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *mockReservationAPI) GetReservation(ctx context.Context, creds apiclient.Credentials, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, creds, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockReservationAPI) CreateReservation(ctx context.Context, creds apiclient.Credentials, p apiclient.ReservationPayload) error {
	return m.Called(ctx, creds, p).Error(0)
}

func (m *mockReservationAPI) UpdateReservation(ctx context.Context, creds apiclient.Credentials, id int64, p apiclient.ReservationPayload) error {
	return m.Called(ctx, creds, id, p).Error(0)
}

func (m *mockReservationAPI) DeleteReservation(ctx context.Context, creds apiclient.Credentials, id int64) error {
	return m.Called(ctx, creds, id).Error(0)
}

type sentToast struct {
	kind           notification.Kind
	message, title string
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []sentToast
}

func (n *recordingNotifier) Notify(_ int64, kind notification.Kind, message, title string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, sentToast{kind, message, title})
}

func (n *recordingNotifier) last() sentToast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toasts[len(n.toasts)-1]
}

type skipCounter struct{ n int }

func (s *skipCounter) SkippedRecords(n int) { s.n += n }

var (
	// Wednesday.
	fixedNow = time.Date(2024, time.December, 18, 10, 30, 0, 0, time.UTC)

	testUser = &session.Session{UserID: 5, Name: "Ana"}

	testSpaces = []domain.Space{
		{ID: 4, Name: "Room A", Type: "meeting_room", Capacity: 8},
		{ID: 6, Name: "Hall", Type: "auditorium", Capacity: 100},
	}

	spaceReservations = []domain.Reservation{
		{ID: 1, SpaceID: 4, EventName: "Standup", StartTime: "2024-12-18T09:00:00", EndTime: "2024-12-18T10:00:00"},
		{ID: 2, SpaceID: 4, EventName: "Review", StartTime: "2024-12-18 14:00:00", EndTime: "2024-12-18 16:00:00"},
		{ID: 3, SpaceID: 4, EventName: "Retro", Date: "2024-12-23", StartTime: "11:00:00", EndTime: "12:00:00"},
		{ID: 4, SpaceID: 4, EventName: "Broken", StartTime: "soon", EndTime: "later"},
	}
)

type fixture struct {
	svc      *Service
	api      *mockReservationAPI
	notifier *recordingNotifier
	tracker  *viewseq.Tracker
	skipped  *skipCounter
}

func newFixture() *fixture {
	f := &fixture{
		api:      new(mockReservationAPI),
		notifier: &recordingNotifier{},
		tracker:  viewseq.NewTracker(),
		skipped:  &skipCounter{},
	}
	f.svc = NewService(f.api, f.notifier, f.tracker, f.skipped, nil, Options{
		Slots:    availability.BuildSlots(7, 22),
		Location: time.UTC,
		Clock:    func() time.Time { return fixedNow },
	})
	return f
}

func TestList_SoftEmptyWithoutUser(t *testing.T) {
	f := newFixture()

	view, err := f.svc.List(context.Background(), &session.Session{})
	require.NoError(t, err)
	assert.NotNil(t, view.Reservations)
	assert.Empty(t, view.Reservations)
	f.api.AssertNotCalled(t, "ListReservationsByUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_NormalizesAndSkips(t *testing.T) {
	f := newFixture()
	f.api.On("ListReservationsByUser", mock.Anything, testUser, int64(5)).Return(spaceReservations, nil)

	view, err := f.svc.List(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, "2024-12-18", view.Reservations[1].Date)
	assert.Equal(t, "14:00", view.Reservations[1].StartTime)
	assert.Equal(t, "/reservations/edit/2", view.Reservations[1].EditRedirect)
	assert.Equal(t, 1, f.skipped.n)
}

func TestOccupancy_MergesDayAndExcludesEdited(t *testing.T) {
	f := newFixture()
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "2024-12-18").Return(spaceReservations, nil)

	view, err := f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18"})
	require.NoError(t, err)
	assert.Equal(t, []availability.TimeRange{{Start: "09:00", End: "16:00"}}, view.OccupiedRanges)
	assert.Len(t, view.AvailableStartTimes, 16)
	assert.False(t, view.Degraded)

	view, err = f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18", ExcludeID: 2})
	require.NoError(t, err)
	assert.Equal(t, []availability.TimeRange{{Start: "09:00", End: "10:00"}}, view.OccupiedRanges)
}

func TestOccupancy_FailureResetsToFullGrid(t *testing.T) {
	f := newFixture()
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "2024-12-18").Return(nil, errors.New("timeout"))

	view, err := f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18"})
	require.NoError(t, err)
	assert.True(t, view.Degraded)
	assert.Empty(t, view.OccupiedRanges)
	assert.Equal(t, availability.BuildSlots(7, 22), view.AvailableEndTimes)
}

func TestOccupancy_StaleSequenceDiscarded(t *testing.T) {
	f := newFixture()
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), mock.Anything).Return([]domain.Reservation{}, nil)

	_, err := f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18", Seq: 5})
	require.NoError(t, err)

	_, err = f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-19", Seq: 4})
	assert.ErrorIs(t, err, ErrStaleView)
}

func TestOccupancy_SequenceIsScopedToSpaceAndPageView(t *testing.T) {
	f := newFixture()
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, mock.Anything, mock.Anything).Return([]domain.Reservation{}, nil)
	ctx := context.Background()

	_, err := f.svc.Occupancy(ctx, testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18", Seq: 5})
	require.NoError(t, err)

	// another space starts its own count
	_, err = f.svc.Occupancy(ctx, testUser, OccupancyQuery{SpaceID: 6, Date: "2024-12-18", Seq: 1})
	require.NoError(t, err)
	_, err = f.svc.Occupancy(ctx, testUser, OccupancyQuery{SpaceID: 6, Date: "2024-12-19", Seq: 2})
	require.NoError(t, err)

	// a reload of space 4 with a new page view id restarts at 1
	_, err = f.svc.Occupancy(ctx, testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18", Seq: 1, View: "page-2"})
	require.NoError(t, err)
	_, err = f.svc.Occupancy(ctx, testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18", Seq: 1})
	assert.ErrorIs(t, err, ErrStaleView)
}

func TestCalendar_SequenceIsScopedToSpace(t *testing.T) {
	f := newFixture()
	f.api.On("ListSpaces", mock.Anything, testUser, apiclient.AvailabilityQuery{}).Return(testSpaces, nil)
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, mock.Anything, "").Return([]domain.Reservation{}, nil)

	_, err := f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4, Seq: 3})
	require.NoError(t, err)
	_, err = f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 6, Seq: 1})
	require.NoError(t, err)
	_, err = f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4, Seq: 2})
	assert.ErrorIs(t, err, ErrStaleView)
}

func TestOccupancy_OvertakenWhileLoading(t *testing.T) {
	f := newFixture()
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "2024-12-18").
		Run(func(mock.Arguments) {
			// A newer request for the same view arrives mid-flight.
			f.tracker.Begin(testUser.Key(), viewName(viewOccupancy, 4, ""), 2)
		}).
		Return([]domain.Reservation{}, nil)

	_, err := f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "2024-12-18", Seq: 1})
	assert.ErrorIs(t, err, ErrStaleView)
}

func TestOccupancy_InvalidDate(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Occupancy(context.Background(), testUser, OccupancyQuery{SpaceID: 4, Date: "18/12/2024"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCalendar_CurrentWeekAndNavigation(t *testing.T) {
	f := newFixture()
	f.api.On("ListSpaces", mock.Anything, testUser, apiclient.AvailabilityQuery{}).Return(testSpaces, nil)
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "").Return(spaceReservations, nil)

	view, err := f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4})
	require.NoError(t, err)
	assert.Equal(t, "Room A", view.Space.Name)
	assert.Equal(t, "2024-12-16", view.Week.WeekStart)
	assert.Equal(t, "Dec 16 - 22, 2024", view.Week.Range)
	assert.Equal(t, "2024-12-09", view.PrevWeek)
	assert.Equal(t, "2024-12-23", view.NextWeek)
	assert.Equal(t, "2024-12-16", view.CurrentWeek)

	wed := view.Week.Days[2]
	assert.True(t, wed.IsToday)
	assert.Equal(t, "Wed", wed.DayName)
	assert.Equal(t, "09:00", wed.Slots[2].Time)
	assert.True(t, wed.Slots[2].Reserved)
	assert.Equal(t, "Reserved: Standup", wed.Slots[2].Tooltip)
	assert.False(t, wed.Slots[3].Reserved)

	view, err = f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4, Week: "2024-12-16", Nav: "next"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-23", view.Week.WeekStart)
	assert.Equal(t, "Dec 23 - 29, 2024", view.Week.Range)
	assert.True(t, view.Week.Days[0].Slots[4].Reserved)

	view, err = f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4, Week: "2024-12-30", Nav: "today"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-16", view.Week.WeekStart)
}

func TestCalendar_FanOutFailureAndUnknownSpace(t *testing.T) {
	f := newFixture()
	f.api.On("ListSpaces", mock.Anything, testUser, apiclient.AvailabilityQuery{}).Return(testSpaces, nil)
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "").Return(nil, errors.New("down"))
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(99), "").Return([]domain.Reservation{}, nil)

	_, err := f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4})
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = f.svc.NewForm(context.Background(), testUser, 99)
	assert.ErrorIs(t, err, ErrSpaceNotFound)

	_, err = f.svc.Calendar(context.Background(), testUser, CalendarQuery{SpaceID: 4, Nav: "sideways"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewForm(t *testing.T) {
	f := newFixture()
	f.api.On("ListSpaces", mock.Anything, testUser, apiclient.AvailabilityQuery{}).Return(testSpaces, nil)
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(6), "").Return([]domain.Reservation{}, nil)

	view, err := f.svc.NewForm(context.Background(), testUser, 6)
	require.NoError(t, err)
	assert.Equal(t, "Create Reservation", view.Form.PageTitle)
	assert.Equal(t, "/spaces", view.Form.CancelRedirect)
	assert.Equal(t, int64(6), view.Values.SpaceID)
	assert.Equal(t, "Hall", view.Calendar.Space.Name)
	assert.Equal(t, "07:00", view.TimeOptions[0])
	assert.Equal(t, "22:00", view.TimeOptions[len(view.TimeOptions)-1])
}

func TestEditForm(t *testing.T) {
	f := newFixture()
	f.api.On("GetReservation", mock.Anything, testUser, int64(2)).Return(&spaceReservations[1], nil)
	f.api.On("ListSpaces", mock.Anything, testUser, apiclient.AvailabilityQuery{}).Return(testSpaces, nil)
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "2024-12-18").Return(spaceReservations, nil)

	view, err := f.svc.EditForm(context.Background(), testUser, 2)
	require.NoError(t, err)
	assert.Equal(t, "Edit Reservation", view.Form.PageTitle)
	assert.Equal(t, FormValues{SpaceID: 4, Date: "2024-12-18", StartTime: "14:00", EndTime: "16:00", EventName: "Review"}, view.Values)
	assert.Equal(t, "Room A", view.Space.Name)
	assert.Equal(t, []availability.TimeRange{{Start: "09:00", End: "10:00"}}, view.Occupancy.OccupiedRanges)
}

func TestEditForm_ToleratesSideFailures(t *testing.T) {
	f := newFixture()
	f.api.On("GetReservation", mock.Anything, testUser, int64(2)).Return(&spaceReservations[1], nil)
	f.api.On("ListSpaces", mock.Anything, testUser, mock.Anything).Return(nil, errors.New("down"))
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "2024-12-18").Return(nil, errors.New("down"))

	view, err := f.svc.EditForm(context.Background(), testUser, 2)
	require.NoError(t, err)
	assert.Nil(t, view.Space)
	assert.Empty(t, view.Occupancy.OccupiedRanges)
	assert.Len(t, view.Occupancy.AvailableStartTimes, 16)
}

func TestEditForm_NotFound(t *testing.T) {
	f := newFixture()
	f.api.On("GetReservation", mock.Anything, testUser, int64(77)).Return(nil, &apiclient.APIError{Status: http.StatusNotFound})

	_, err := f.svc.EditForm(context.Background(), testUser, 77)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func validRequest() ReservationRequest {
	return ReservationRequest{SpaceID: 4, EventName: "Planning", Date: "2024-12-20", StartTime: "09:00", EndTime: "11:00"}
}

func TestCreate_SendsPayload(t *testing.T) {
	f := newFixture()
	expected := apiclient.ReservationPayload{SpaceID: "4", EventName: "Planning", StartTime: "2024-12-20T09:00", EndTime: "2024-12-20T11:00"}
	f.api.On("CreateReservation", mock.Anything, testUser, expected).Return(nil)

	res, err := f.svc.Create(context.Background(), testUser, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "/reservations", res.Redirect)
	assert.Equal(t, sentToast{notification.KindSuccess, "Reservation created successfully!", ""}, f.notifier.last())
}

func TestCreate_RejectedUsesApiMessage(t *testing.T) {
	f := newFixture()
	f.api.On("CreateReservation", mock.Anything, testUser, mock.Anything).
		Return(&apiclient.APIError{Status: http.StatusUnprocessableEntity, Message: "The space is already booked"}).Once()

	_, err := f.svc.Create(context.Background(), testUser, validRequest())
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "The space is already booked", rejected.Message)
	assert.Equal(t, notification.KindError, f.notifier.last().kind)

	f.api.On("CreateReservation", mock.Anything, testUser, mock.Anything).
		Return(&apiclient.APIError{Status: http.StatusUnprocessableEntity}).Once()
	_, err = f.svc.Create(context.Background(), testUser, validRequest())
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Invalid reservation", rejected.Message)
}

func TestCreate_OtherFailureGenericMessage(t *testing.T) {
	f := newFixture()
	f.api.On("CreateReservation", mock.Anything, testUser, mock.Anything).Return(&apiclient.APIError{Status: http.StatusInternalServerError})

	_, err := f.svc.Create(context.Background(), testUser, validRequest())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "Something went wrong. Please try again.", f.notifier.last().message)
}

func TestCreate_LocalValidation(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.StartTime = "9am"
	req.EventName = "   "

	_, err := f.svc.Create(context.Background(), testUser, req)
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "start_time")

	req = validRequest()
	req.EventName = "   "
	_, err = f.svc.Create(context.Background(), testUser, req)
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "event_name")
	f.api.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	f.api.On("UpdateReservation", mock.Anything, testUser, int64(2), mock.Anything).Return(nil)

	res, err := f.svc.Update(context.Background(), testUser, 2, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "updated", res.Status)
	assert.Equal(t, "Reservation updated successfully!", f.notifier.last().message)
}

func TestDelete_ConfirmationGate(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Delete(context.Background(), testUser, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "confirmation_required", res.Status)
	assert.Equal(t, "Are you sure you want to delete this reservation?", res.Prompt)
	f.api.AssertNotCalled(t, "DeleteReservation", mock.Anything, mock.Anything, mock.Anything)

	f.api.On("DeleteReservation", mock.Anything, testUser, int64(2)).Return(errors.New("boom")).Once()
	_, err = f.svc.Delete(context.Background(), testUser, 2, true)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "Failed to delete reservation. Please try again.", f.notifier.last().message)

	f.api.On("DeleteReservation", mock.Anything, testUser, int64(2)).Return(nil).Once()
	res, err = f.svc.Delete(context.Background(), testUser, 2, true)
	require.NoError(t, err)
	assert.Equal(t, "deleted", res.Status)
	assert.Equal(t, "Reservation deleted successfully!", f.notifier.last().message)
}

func TestExportCalendar(t *testing.T) {
	f := newFixture()
	f.api.On("ListSpaces", mock.Anything, testUser, apiclient.AvailabilityQuery{}).Return(testSpaces, nil)
	f.api.On("ListReservationsBySpace", mock.Anything, testUser, int64(4), "").Return(spaceReservations, nil)

	file, err := f.svc.ExportCalendar(context.Background(), testUser, CalendarQuery{SpaceID: 4}, "")
	require.NoError(t, err)
	assert.Equal(t, "reservations-space-4-2024-12-16.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, string(file.Body), "Standup")

	file, err = f.svc.ExportCalendar(context.Background(), testUser, CalendarQuery{SpaceID: 4}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)

	_, err = f.svc.ExportCalendar(context.Background(), testUser, CalendarQuery{SpaceID: 4}, "xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
