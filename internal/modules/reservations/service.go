package reservations

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spacebook/internal/apiclient"
	"spacebook/internal/availability"
	"spacebook/internal/domain"
	"spacebook/internal/export"
	"spacebook/internal/notification"
	"spacebook/internal/pkg/validator"
	"spacebook/internal/session"
)

const (
	msgCreated       = "Reservation created successfully!"
	msgUpdated       = "Reservation updated successfully!"
	msgDeleted       = "Reservation deleted successfully!"
	msgInvalid       = "Invalid reservation"
	msgGeneric       = "Something went wrong. Please try again."
	msgDeleteFailed  = "Failed to delete reservation. Please try again."
	msgConfirmDelete = "Are you sure you want to delete this reservation?"
	viewOccupancy    = "occupancy"
	viewCalendar     = "calendar"
)

var fieldMessages = map[string]struct{ key, message string }{
	"SpaceID":   {"space_id", "Space is required"},
	"EventName": {"event_name", "Event name is required"},
	"Date":      {"date", "Date must be YYYY-MM-DD"},
	"StartTime": {"start_time", "Start time must be HH:mm"},
	"EndTime":   {"end_time", "End time must be HH:mm"},
}

// Options configures the booking grid.
type Options struct {
	Slots    []string
	Location *time.Location
	Clock    func() time.Time
}

type Service struct {
	api      ReservationAPI
	notifier Notifier
	seq      Sequencer
	skipped  SkipCounter
	logger   *zap.Logger

	slots []string
	loc   *time.Location
	clock func() time.Time

	csv *export.CSVExporter
	pdf *export.PDFExporter
}

func NewService(api ReservationAPI, notifier Notifier, seq Sequencer, skipped SkipCounter, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if len(opts.Slots) == 0 {
		opts.Slots = availability.BuildSlots(7, 22)
	}
	return &Service{
		api:      api,
		notifier: notifier,
		seq:      seq,
		skipped:  skipped,
		logger:   logger,
		slots:    opts.Slots,
		loc:      opts.Location,
		clock:    opts.Clock,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// List returns the reservations of the current user. A session without a
// user id yields an empty list rather than an error.
func (s *Service) List(ctx context.Context, sess *session.Session) (*ListView, error) {
	if sess == nil || sess.UserID == 0 {
		return &ListView{Reservations: []ListItem{}}, nil
	}

	raw, err := s.api.ListReservationsByUser(ctx, sess, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	records := s.normalize(raw)
	return &ListView{Reservations: listItems(records), Total: len(records)}, nil
}

// NewForm loads the space and its week calendar concurrently; either failure
// fails the form.
func (s *Service) NewForm(ctx context.Context, sess *session.Session, spaceID int64) (*CreateFormView, error) {
	cal, err := s.Calendar(ctx, sess, CalendarQuery{SpaceID: spaceID})
	if err != nil {
		return nil, err
	}
	return &CreateFormView{
		Form:        formMeta(modeCreate),
		Values:      FormValues{SpaceID: spaceID},
		TimeOptions: s.timeOptions(),
		Calendar:    cal,
	}, nil
}

// EditForm loads a reservation, then its space and the occupancy of its day
// with the reservation itself excluded. Only the reservation is mandatory.
func (s *Service) EditForm(ctx context.Context, sess *session.Session, id int64) (*EditFormView, error) {
	raw, err := s.api.GetReservation(ctx, sess, id)
	if err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	rec, err := availability.Normalize(*raw)
	if err != nil {
		s.logger.Warn("reservation without usable date", zap.Int64("reservation_id", id), zap.Error(err))
	}

	view := &EditFormView{
		ReservationID: id,
		Form:          formMeta(modeEdit),
		Values: FormValues{
			SpaceID:   rec.SpaceID,
			Date:      rec.Date,
			StartTime: rec.StartTime,
			EndTime:   rec.EndTime,
			EventName: rec.EventName,
		},
		TimeOptions: s.timeOptions(),
		Occupancy:   availability.ResolveOccupancy(nil, rec.Date, id, s.slots),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		spaces, err := s.api.ListSpaces(gctx, sess, apiclient.AvailabilityQuery{})
		if err != nil {
			s.logger.Warn("edit form space lookup failed", zap.Int64("reservation_id", id), zap.Error(err))
			return nil
		}
		if sp, ok := domain.FindSpace(spaces, rec.SpaceID); ok {
			view.Space = sp
		}
		return nil
	})
	if rec.Date != "" && rec.SpaceID != 0 {
		g.Go(func() error {
			occ, _, err := s.occupancy(gctx, sess, rec.SpaceID, rec.Date, id)
			if err != nil {
				return nil
			}
			view.Occupancy = occ
			return nil
		})
	}
	_ = g.Wait()

	return view, nil
}

// Occupancy computes the picker state of a space on a date. Requests carry a
// per-view sequence number; a result overtaken by a newer request is
// reported as ErrStaleView instead of being returned.
func (s *Service) Occupancy(ctx context.Context, sess *session.Session, q OccupancyQuery) (*OccupancyView, error) {
	date, ok := parseDate(q.Date, s.loc)
	if !ok {
		return nil, FieldErrors{"date": "Date must be YYYY-MM-DD"}
	}

	owner, view := sess.Key(), viewName(viewOccupancy, q.SpaceID, q.View)
	if q.Seq > 0 && !s.seq.Begin(owner, view, q.Seq) {
		return nil, ErrStaleView
	}

	occ, degraded, _ := s.occupancy(ctx, sess, q.SpaceID, date.Format(availability.DateLayout), q.ExcludeID)

	if q.Seq > 0 && !s.seq.IsLatest(owner, view, q.Seq) {
		return nil, ErrStaleView
	}
	return &OccupancyView{Occupancy: occ, SpaceID: q.SpaceID, Seq: q.Seq, Degraded: degraded}, nil
}

// occupancy falls back to an empty day with the full grid when the API call
// fails, reporting degraded=true.
func (s *Service) occupancy(ctx context.Context, sess *session.Session, spaceID int64, date string, excludeID int64) (availability.Occupancy, bool, error) {
	raw, err := s.api.ListReservationsBySpace(ctx, sess, spaceID, date)
	if err != nil {
		s.logger.Warn("occupancy lookup failed, offering the full grid",
			zap.Int64("space_id", spaceID),
			zap.String("date", date),
			zap.Error(err),
		)
		return availability.ResolveOccupancy(nil, date, excludeID, s.slots), true, err
	}
	return availability.ResolveOccupancy(s.normalize(raw), date, excludeID, s.slots), false, nil
}

// Calendar builds the weekly schedule of a space. The space list and the
// space reservations are fetched concurrently.
func (s *Service) Calendar(ctx context.Context, sess *session.Session, q CalendarQuery) (*CalendarView, error) {
	cal := availability.NewCalendar(s.slots, s.now)
	if q.Week != "" {
		anchor, ok := parseDate(q.Week, s.loc)
		if !ok {
			return nil, FieldErrors{"week": "Week must be YYYY-MM-DD"}
		}
		cal.SetAnchor(anchor)
	}
	switch strings.ToLower(q.Nav) {
	case "":
	case "prev", "previous":
		cal.PreviousWeek()
	case "next":
		cal.NextWeek()
	case "today":
		cal.GoToToday()
	default:
		return nil, FieldErrors{"nav": "Nav must be prev, next or today"}
	}

	owner, view := sess.Key(), viewName(viewCalendar, q.SpaceID, q.View)
	if q.Seq > 0 && !s.seq.Begin(owner, view, q.Seq) {
		return nil, ErrStaleView
	}

	var (
		spaces []domain.Space
		raw    []domain.Reservation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spaces, err = s.api.ListSpaces(gctx, sess, apiclient.AvailabilityQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		raw, err = s.api.ListReservationsBySpace(gctx, sess, q.SpaceID, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	space, ok := domain.FindSpace(spaces, q.SpaceID)
	if !ok {
		return nil, ErrSpaceNotFound
	}

	if q.Seq > 0 && !s.seq.IsLatest(owner, view, q.Seq) {
		return nil, ErrStaleView
	}

	anchor := cal.Anchor()
	return &CalendarView{
		Space:       space,
		Week:        cal.Build(s.normalize(raw)),
		PrevWeek:    anchor.AddDate(0, 0, -7).Format(availability.DateLayout),
		NextWeek:    anchor.AddDate(0, 0, 7).Format(availability.DateLayout),
		CurrentWeek: availability.WeekStart(s.now()).Format(availability.DateLayout),
		TimeSlots:   cal.Slots(),
	}, nil
}

// ExportCalendar renders the selected week as CSV or PDF.
func (s *Service) ExportCalendar(ctx context.Context, sess *session.Session, q CalendarQuery, format string) (*Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, ErrUnsupportedFormat
	}

	q.Seq = 0
	view, err := s.Calendar(ctx, sess, q)
	if err != nil {
		return nil, err
	}

	data := export.WeekDataset(view.Week)
	base := fmt.Sprintf("reservations-space-%d-%s", view.Space.ID.Int64(), view.Week.WeekStart)

	switch format {
	case "pdf":
		body, err := s.pdf.Render(data, view.Space.Name, view.Week.Range)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	}
}

func (s *Service) Create(ctx context.Context, sess *session.Session, req ReservationRequest) (*MutationResult, error) {
	payload, err := s.payload(req)
	if err != nil {
		return nil, err
	}

	if err := s.api.CreateReservation(ctx, sess, payload); err != nil {
		return nil, s.mutationFailed(sess, err)
	}

	s.notifier.Notify(sess.UserID, notification.KindSuccess, msgCreated, "")
	return &MutationResult{Status: "created", Message: msgCreated, Redirect: "/reservations"}, nil
}

func (s *Service) Update(ctx context.Context, sess *session.Session, id int64, req ReservationRequest) (*MutationResult, error) {
	payload, err := s.payload(req)
	if err != nil {
		return nil, err
	}

	if err := s.api.UpdateReservation(ctx, sess, id, payload); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, s.mutationFailed(sess, err)
	}

	s.notifier.Notify(sess.UserID, notification.KindSuccess, msgUpdated, "")
	return &MutationResult{Status: "updated", Message: msgUpdated, Redirect: "/reservations"}, nil
}

// Delete removes a reservation once the caller confirmed. Without
// confirmation nothing changes and the prompt to show is returned.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id int64, confirmed bool) (*MutationResult, error) {
	if !confirmed {
		return &MutationResult{Status: "confirmation_required", Prompt: msgConfirmDelete}, nil
	}

	if err := s.api.DeleteReservation(ctx, sess, id); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrReservationNotFound
		}
		s.notifier.Notify(sess.UserID, notification.KindError, msgDeleteFailed, "")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	s.notifier.Notify(sess.UserID, notification.KindSuccess, msgDeleted, "")
	return &MutationResult{Status: "deleted", Message: msgDeleted, Redirect: "/reservations"}, nil
}

func (s *Service) payload(req ReservationRequest) (apiclient.ReservationPayload, error) {
	if errs := validator.Validate(req); errs != nil {
		fields := FieldErrors{}
		for field := range errs {
			if m, ok := fieldMessages[field]; ok {
				fields[m.key] = m.message
			}
		}
		return apiclient.ReservationPayload{}, fields
	}
	if strings.TrimSpace(req.EventName) == "" {
		return apiclient.ReservationPayload{}, FieldErrors{"event_name": fieldMessages["EventName"].message}
	}
	return apiclient.NewReservationPayload(req.SpaceID.Int64(), strings.TrimSpace(req.EventName), req.Date, req.StartTime, req.EndTime), nil
}

// mutationFailed turns an API failure into the message the user sees: the
// API's own message for a rejected reservation, a generic one otherwise.
func (s *Service) mutationFailed(sess *session.Session, err error) error {
	if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.Status == 422 {
		msg := apiErr.Message
		if msg == "" {
			msg = msgInvalid
		}
		s.notifier.Notify(sess.UserID, notification.KindError, msg, "")
		return &RejectedError{Message: msg, Fields: apiErr.Errors}
	}
	s.notifier.Notify(sess.UserID, notification.KindError, msgGeneric, "")
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

func (s *Service) normalize(raw []domain.Reservation) []availability.Record {
	records, skipped := availability.NormalizeAll(raw)
	for _, sk := range skipped {
		s.logger.Warn("reservation skipped", zap.Int64("reservation_id", sk.ReservationID), zap.Error(sk.Err))
	}
	if s.skipped != nil {
		s.skipped.SkippedRecords(len(skipped))
	}
	return records
}

func (s *Service) timeOptions() []string {
	out := make([]string, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *Service) now() time.Time {
	return s.clock().In(s.loc)
}

// viewName scopes a sequence to one kind of view of one space, and to the
// page load when the client names it.
func viewName(kind string, spaceID int64, clientView string) string {
	name := kind + ":" + strconv.FormatInt(spaceID, 10)
	if clientView = strings.TrimSpace(clientView); clientView != "" {
		name += ":" + clientView
	}
	return name
}

func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(availability.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
