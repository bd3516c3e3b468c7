package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"apptbook/internal/database"
	"apptbook/internal/domain"
	"apptbook/internal/events"
	"apptbook/internal/metrics"
	"apptbook/internal/models"
	"apptbook/internal/schedule"

	"github.com/rs/zerolog"
)

// SchedulerService drives the slot scheduling view: which days are offered,
// which slots each day has, who holds them, and the book/cancel mutations.
// Slot states are never stored; they are recomputed from the appointment
// store on every reconciliation and replaced wholesale.
type SchedulerService struct {
	store    domain.AppointmentStore
	eventBus domain.EventPublisher
	notify   domain.NotificationQueue
	days     *schedule.Generator
	grid     []string
	gridSet  map[string]struct{}
	duration int
	logger   *zerolog.Logger

	mu       sync.Mutex
	cache    map[string]*models.BookedSlots
	inFlight map[string]struct{}
}

func NewSchedulerService(
	store domain.AppointmentStore,
	eventBus domain.EventPublisher,
	notify domain.NotificationQueue,
	days *schedule.Generator,
	dayStart, dayEnd string,
	intervalMinutes, appointmentMinutes int,
	logger *zerolog.Logger,
) *SchedulerService {
	if appointmentMinutes <= 0 {
		appointmentMinutes = models.DefaultAppointmentMinutes
	}

	grid := schedule.Times(dayStart, dayEnd, intervalMinutes)
	gridSet := make(map[string]struct{}, len(grid))
	for _, t := range grid {
		gridSet[t] = struct{}{}
	}

	return &SchedulerService{
		store:    store,
		eventBus: eventBus,
		notify:   notify,
		days:     days,
		grid:     grid,
		gridSet:  gridSet,
		duration: appointmentMinutes,
		logger:   logger,
		cache:    make(map[string]*models.BookedSlots),
		inFlight: make(map[string]struct{}),
	}
}

// Days returns the bookable calendar days starting from now. Holidays stay
// in the list, flagged, so the page renders them disabled.
func (s *SchedulerService) Days(now time.Time) []models.CalendarDay {
	return s.days.Upcoming(now)
}

// Reconcile reads every appointment on the day and rebuilds the booked-slot
// snapshot for this actor from scratch. Stored times are canonicalized to
// HH:MM; values that cannot be parsed are dropped so a corrupt row shows the
// slot as available instead of falsely blocking it. If a reconciliation for
// the same actor and day is already in flight, the previous snapshot is
// returned rather than issuing an overlapping store read.
func (s *SchedulerService) Reconcile(ctx context.Context, actor models.Actor, dateKey string) (*models.BookedSlots, error) {
	key := fmt.Sprintf("%d|%s", actor.ID, dateKey)

	s.mu.Lock()
	if _, busy := s.inFlight[key]; busy {
		cached := s.cache[key]
		s.mu.Unlock()
		if cached != nil {
			return cached, nil
		}
		return models.NewBookedSlots(dateKey), nil
	}
	s.inFlight[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	appointments, err := s.store.AppointmentsByDate(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", dateKey, err)
	}

	snapshot := models.NewBookedSlots(dateKey)
	for _, a := range appointments {
		clock, ok := schedule.NormalizeClock(a.Time)
		if !ok {
			s.logger.Warn().Int64("appointment_id", a.ID).Str("raw", a.Time).
				Msg("unparseable stored time, treating slot as free")
			continue
		}
		snapshot.All[clock] = struct{}{}
		if a.OwnerID == actor.ID && actor.ID != 0 {
			snapshot.Mine[clock] = struct{}{}
		}
	}

	s.mu.Lock()
	s.cache[key] = snapshot
	s.mu.Unlock()

	return snapshot, nil
}

// SlotStates renders the slot panel for one day from a reconciled snapshot:
// every grid time, each marked available, booked by someone else, or mine.
func (s *SchedulerService) SlotStates(cache *models.BookedSlots) []models.SlotView {
	out := make([]models.SlotView, 0, len(s.grid))
	for _, t := range s.grid {
		state := models.SlotAvailable
		if cache != nil {
			if _, mine := cache.Mine[t]; mine {
				state = models.SlotBookedByMe
			} else if _, taken := cache.All[t]; taken {
				state = models.SlotBookedByOther
			}
		}
		out = append(out, models.SlotView{Time: t, State: state})
	}
	return out
}

// Book creates an appointment for the actor at the given day and time. The
// store's uniqueness constraint is the single source of truth for conflicts:
// there is no check-then-insert window, a lost race surfaces as ErrSlotTaken.
func (s *SchedulerService) Book(ctx context.Context, actor models.Actor, dateKey, timeOfDay string) (*models.Appointment, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	if err := s.validateSlot(dateKey, timeOfDay); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", dateKey, time.Local)
	if err != nil {
		return nil, ErrInvalidSlot
	}

	clock, _ := schedule.NormalizeClock(timeOfDay)
	appointment := &models.Appointment{
		OwnerID:         actor.ID,
		Name:            actor.Name,
		Email:           actor.Email,
		Date:            date,
		Time:            clock,
		Label:           fmt.Sprintf("%s %s", dateKey, clock),
		DurationMinutes: s.duration,
	}

	if err := s.store.InsertAppointment(ctx, appointment); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncBooking("book", "conflict")
			s.invalidate(dateKey)
			return nil, database.ErrSlotTaken
		}
		metrics.IncBooking("book", "error")
		return nil, err
	}

	metrics.IncBooking("book", "ok")
	s.invalidate(dateKey)

	s.publishEvent(events.EventAppointmentBooked, appointment, actor)
	s.enqueueNotification(ctx, models.NotifyAppointment, appointment)

	return appointment, nil
}

// Cancel removes the actor's own appointment. Canceling an appointment that
// no longer exists, or that belongs to someone else, deletes nothing and is
// not an error: the end state the caller asked for already holds.
func (s *SchedulerService) Cancel(ctx context.Context, actor models.Actor, id int64) error {
	if actor.ID == 0 {
		return ErrUnauthenticated
	}

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}

	deleted, err := s.store.DeleteAppointmentOwned(ctx, id, actor.ID)
	if err != nil {
		metrics.IncBooking("cancel", "error")
		return err
	}
	if deleted == 0 {
		metrics.IncBooking("cancel", "noop")
		return nil
	}

	metrics.IncBooking("cancel", "ok")
	s.finishCancel(ctx, appointment, actor)
	return nil
}

// CancelAny removes any appointment regardless of owner. Employee and admin
// roles only.
func (s *SchedulerService) CancelAny(ctx context.Context, actor models.Actor, id int64) error {
	if actor.ID == 0 {
		return ErrUnauthenticated
	}
	if !actor.CanManage() {
		return ErrForbidden
	}

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}

	deleted, err := s.store.DeleteAppointment(ctx, id)
	if err != nil {
		metrics.IncBooking("cancel_any", "error")
		return err
	}
	if deleted == 0 {
		metrics.IncBooking("cancel_any", "noop")
		return nil
	}

	metrics.IncBooking("cancel_any", "ok")
	s.finishCancel(ctx, appointment, actor)
	return nil
}

// AllAppointments lists every appointment between the two canonical dates
// inclusive. Employee and admin roles only.
func (s *SchedulerService) AllAppointments(ctx context.Context, actor models.Actor, startKey, endKey string) ([]*models.Appointment, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	if !actor.CanManage() {
		return nil, ErrForbidden
	}
	return s.store.AppointmentsByRange(ctx, startKey, endKey)
}

// MyAppointments lists the actor's upcoming appointments.
func (s *SchedulerService) MyAppointments(ctx context.Context, actor models.Actor) ([]*models.Appointment, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	return s.store.AppointmentsByOwner(ctx, actor.ID)
}

func (s *SchedulerService) validateSlot(dateKey, timeOfDay string) error {
	date, err := time.ParseInLocation("2006-01-02", dateKey, time.Local)
	if err != nil {
		return ErrInvalidSlot
	}
	if s.days.IsHoliday(dateKey) {
		return ErrInvalidSlot
	}
	dow := date.Weekday()
	if dow != s.days.Weekdays[0] && dow != s.days.Weekdays[1] {
		return ErrInvalidSlot
	}

	clock, ok := schedule.NormalizeClock(timeOfDay)
	if !ok {
		return ErrInvalidSlot
	}
	if _, onGrid := s.gridSet[clock]; !onGrid {
		return ErrInvalidSlot
	}
	return nil
}

func (s *SchedulerService) invalidate(dateKey string) {
	suffix := "|" + dateKey
	s.mu.Lock()
	for key := range s.cache {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			delete(s.cache, key)
		}
	}
	s.mu.Unlock()
}

func (s *SchedulerService) finishCancel(ctx context.Context, appointment *models.Appointment, actor models.Actor) {
	if appointment == nil {
		return
	}
	s.invalidate(appointment.DateKey())
	s.publishEvent(events.EventAppointmentCanceled, appointment, actor)
	s.enqueueNotification(ctx, models.NotifyCancel, appointment)
}

func (s *SchedulerService) publishEvent(eventType string, a *models.Appointment, actor models.Actor) {
	if s.eventBus == nil {
		return
	}
	payload := events.AppointmentEventPayload{
		AppointmentID: a.ID,
		OwnerID:       a.OwnerID,
		OwnerEmail:    a.Email,
		Date:          a.DateKey(),
		Time:          a.Time,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("appointment_id", a.ID).Msg("publish event error")
	}
}

// enqueueNotification is best-effort: a queue failure is logged and the
// booking outcome stands.
func (s *SchedulerService) enqueueNotification(ctx context.Context, notifyType string, a *models.Appointment) {
	if s.notify == nil {
		return
	}
	task := &models.NotificationTask{
		Type:      notifyType,
		Recipient: a.Email,
		Name:      a.Name,
		Date:      a.DateKey(),
		Time:      a.Time,
		Status:    models.TaskStatusPending,
	}
	if err := s.notify.EnqueueNotification(ctx, task); err != nil {
		s.logger.Error().Err(err).Int64("appointment_id", a.ID).Str("type", notifyType).
			Msg("notification enqueue error")
	}
}
