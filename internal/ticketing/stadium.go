package ticketing

import (
	"context"

	"github.com/eleven-am/boxoffice/pkg/orm"
)

type Stadium struct {
	ID       int64  `db:"id" yaml:"id"`
	Name     string `db:"name" yaml:"name" validate:"required,max=100"`
	Address  string `db:"address" yaml:"address,omitempty" validate:"required,max=100"`
	Capacity int    `db:"capacity" yaml:"capacity"`
}

func (s Stadium) String() string {
	return s.Name
}

// Stadiums holds the typed columns of the stadium table.
var Stadiums = struct {
	ID       orm.NumericColumn[int64]
	Name     orm.StringColumn
	Address  orm.StringColumn
	Capacity orm.NumericColumn[int]
}{
	ID:       orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id", Table: "stadium"}}},
	Name:     orm.StringColumn{Column: orm.Column[string]{Name: "name", Table: "stadium"}},
	Address:  orm.StringColumn{Column: orm.Column[string]{Name: "address", Table: "stadium"}},
	Capacity: orm.NumericColumn[int]{ComparableColumn: orm.ComparableColumn[int]{Column: orm.Column[int]{Name: "capacity", Table: "stadium"}}},
}

var stadiumMetadata = orm.Metadata{
	Table:   orm.Table{Name: "stadium", PrimaryKey: "id"},
	Columns: []string{"id", "name", "address", "capacity"},
}

const findStadiumsByMinCapacitySQL = `SELECT * FROM stadium WHERE capacity > $1`

type StadiumRepository struct {
	*orm.Repository[Stadium]
	tickets *orm.Repository[Ticket]
}

func newStadiumRepository(db orm.DBExecutor, tickets *orm.Repository[Ticket]) (*StadiumRepository, error) {
	repo, err := orm.NewRepository[Stadium](db, stadiumMetadata)
	if err != nil {
		return nil, err
	}
	return &StadiumRepository{Repository: repo, tickets: tickets}, nil
}

// FindByNameAndMinCapacity returns stadiums whose name contains name, ignoring
// case, and whose capacity is strictly greater than minCapacity.
func (r *StadiumRepository) FindByNameAndMinCapacity(ctx context.Context, name string, minCapacity int) ([]Stadium, error) {
	return r.Query(ctx).
		Where(Stadiums.Name.IContains(name)).
		Where(Stadiums.Capacity.Gt(minCapacity)).
		Find()
}

func (r *StadiumRepository) DoubleCapacityAboveThreshold(ctx context.Context, minCapacity int) (int64, error) {
	return r.Query(ctx).
		Where(Stadiums.Capacity.Gt(minCapacity)).
		Update(map[string]interface{}{
			Stadiums.Capacity.Name: Stadiums.Capacity.Mul(2),
		})
}

// IncreaseCapacityBySoldTickets adds the number of tickets sold for eventID to
// the capacity of the stadium hosting it. The count and the update are two
// separate statements; wrap the call in Store.WithTransaction to make them
// atomic.
func (r *StadiumRepository) IncreaseCapacityBySoldTickets(ctx context.Context, eventID int64) (int64, error) {
	sold, err := r.tickets.Query(ctx).Where(Tickets.EventID.Eq(eventID)).Count()
	if err != nil {
		return 0, err
	}

	return r.Query(ctx).
		Where(orm.Where(Stadiums.ID.String()+" IN (SELECT stadium_id FROM event WHERE id = ?)", eventID)).
		Update(map[string]interface{}{
			Stadiums.Capacity.Name: Stadiums.Capacity.Add(sold),
		})
}

// ListWithoutAddress loads every stadium except for the address column.
func (r *StadiumRepository) ListWithoutAddress(ctx context.Context) ([]Stadium, error) {
	return r.Query(ctx).Omit(Stadiums.Address.Name).Find()
}

func (r *StadiumRepository) FindByMinCapacityRaw(ctx context.Context, minCapacity int) ([]Stadium, error) {
	return r.Raw(ctx, findStadiumsByMinCapacitySQL, minCapacity)
}

func (r *StadiumRepository) TopNByCapacity(ctx context.Context, n uint64) ([]Stadium, error) {
	return r.Query(ctx).
		OrderBy(Stadiums.Capacity.Desc()).
		Limit(n).
		Find()
}

func (r *StadiumRepository) SortedByName(ctx context.Context) ([]Stadium, error) {
	return r.Query(ctx).OrderBy(Stadiums.Name.Asc()).Find()
}
