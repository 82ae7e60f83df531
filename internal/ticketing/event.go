package ticketing

import (
	"context"
	"time"

	"github.com/eleven-am/boxoffice/internal/clock"
	"github.com/eleven-am/boxoffice/pkg/orm"
)

type Event struct {
	ID        int64     `db:"id" yaml:"id"`
	Name      string    `db:"name" yaml:"name" validate:"required,max=100"`
	Date      time.Time `db:"date" yaml:"date" validate:"required"`
	StadiumID int64     `db:"stadium_id" yaml:"stadium_id,omitempty" validate:"required"`
	IsActive  bool      `db:"is_active" yaml:"is_active"`
}

// NewEvent returns an active event, matching the column default.
func NewEvent(name string, date time.Time, stadiumID int64) *Event {
	return &Event{
		Name:      name,
		Date:      date,
		StadiumID: stadiumID,
		IsActive:  true,
	}
}

func (e Event) String() string {
	return e.Name
}

// Events holds the typed columns of the event table.
var Events = struct {
	ID        orm.NumericColumn[int64]
	Name      orm.StringColumn
	Date      orm.TimeColumn
	StadiumID orm.NumericColumn[int64]
	IsActive  orm.BoolColumn
}{
	ID:        orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id", Table: "event"}}},
	Name:      orm.StringColumn{Column: orm.Column[string]{Name: "name", Table: "event"}},
	Date:      orm.TimeColumn{ComparableColumn: orm.ComparableColumn[time.Time]{Column: orm.Column[time.Time]{Name: "date", Table: "event"}}},
	StadiumID: orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "stadium_id", Table: "event"}}},
	IsActive:  orm.BoolColumn{Column: orm.Column[bool]{Name: "is_active", Table: "event"}},
}

var eventMetadata = orm.Metadata{
	Table:   orm.Table{Name: "event", PrimaryKey: "id"},
	Columns: []string{"id", "name", "date", "stadium_id", "is_active"},
}

const (
	findFutureEventsSQL = `SELECT * FROM event WHERE date > NOW()`

	stadiumNameOfEventSQL = `(SELECT stadium.name FROM stadium WHERE stadium.id = event.stadium_id)`
)

type EventRepository struct {
	*orm.Repository[Event]
	clock clock.Clock
}

func newEventRepository(db orm.DBExecutor, c clock.Clock) (*EventRepository, error) {
	repo, err := orm.NewRepository[Event](db, eventMetadata)
	if err != nil {
		return nil, err
	}
	return &EventRepository{Repository: repo, clock: c}, nil
}

// ExtendAllDatesBy shifts every event by days. Negative values move events
// earlier.
func (r *EventRepository) ExtendAllDatesBy(ctx context.Context, days int) (int64, error) {
	return r.Query(ctx).Update(map[string]interface{}{
		Events.Date.Name: Events.Date.AddDays(days),
	})
}

// DeactivatePastEvents deactivates every event dated before now.
func (r *EventRepository) DeactivatePastEvents(ctx context.Context) (int64, error) {
	return r.Query(ctx).
		Where(Events.Date.Before(r.clock.Now())).
		Update(map[string]interface{}{
			Events.IsActive.Name: false,
		})
}

// AppendStadiumNameToEventName renames every event to "<name> - <stadium>".
// Running it twice appends the stadium name twice.
func (r *EventRepository) AppendStadiumNameToEventName(ctx context.Context) (int64, error) {
	return r.Query(ctx).Update(map[string]interface{}{
		Events.Name.Name: Events.Name.Concat(" - ", orm.Expr(stadiumNameOfEventSQL)),
	})
}

// ListWithoutStadium loads every event except for the stadium reference.
func (r *EventRepository) ListWithoutStadium(ctx context.Context) ([]Event, error) {
	return r.Query(ctx).Omit(Events.StadiumID.Name).Find()
}

// FindFutureRaw returns future events as rows keyed by column name. The
// database clock decides what "future" means.
func (r *EventRepository) FindFutureRaw(ctx context.Context) ([]map[string]interface{}, error) {
	return r.RawMaps(ctx, findFutureEventsSQL)
}

// Upcoming returns up to limit events dated now or later, soonest first.
func (r *EventRepository) Upcoming(ctx context.Context, limit uint64) ([]Event, error) {
	return r.Query(ctx).
		Where(Events.Date.Since(r.clock.Now())).
		OrderBy(Events.Date.Asc()).
		Limit(limit).
		Find()
}

func (r *EventRepository) SortedByName(ctx context.Context) ([]Event, error) {
	return r.Query(ctx).OrderBy(Events.Name.Asc()).Find()
}
