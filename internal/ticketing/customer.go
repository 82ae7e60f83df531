package ticketing

import (
	"context"
	"strings"

	"github.com/eleven-am/boxoffice/pkg/orm"
)

// Customer is a ticket buyer. Email is unique across all customers.
type Customer struct {
	ID        int64  `db:"id" yaml:"id"`
	Username  string `db:"username" yaml:"username" validate:"max=100"`
	FirstName string `db:"first_name" yaml:"first_name" validate:"max=100"`
	Email     string `db:"email" yaml:"email,omitempty" validate:"required,email,max=254"`
	IsActive  bool   `db:"is_active" yaml:"is_active"`
}

// FullName is the trimmed first name, or the email when no first name is set.
func (c Customer) FullName() string {
	if name := strings.TrimSpace(c.FirstName); name != "" {
		return name
	}
	return c.Email
}

func (c Customer) String() string {
	return c.FullName()
}

// Customers holds the typed columns of the customer table.
var Customers = struct {
	ID        orm.NumericColumn[int64]
	Username  orm.StringColumn
	FirstName orm.StringColumn
	Email     orm.StringColumn
	IsActive  orm.BoolColumn
}{
	ID:        orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id", Table: "customer"}}},
	Username:  orm.StringColumn{Column: orm.Column[string]{Name: "username", Table: "customer"}},
	FirstName: orm.StringColumn{Column: orm.Column[string]{Name: "first_name", Table: "customer"}},
	Email:     orm.StringColumn{Column: orm.Column[string]{Name: "email", Table: "customer"}},
	IsActive:  orm.BoolColumn{Column: orm.Column[bool]{Name: "is_active", Table: "customer"}},
}

var customerMetadata = orm.Metadata{
	Table:        orm.Table{Name: "customer", PrimaryKey: "id"},
	Columns:      []string{"id", "username", "first_name", "email", "is_active"},
	DefaultOrder: []string{Customers.ID.Desc()},
}

const findActiveCustomersSQL = `SELECT * FROM customer WHERE is_active = $1`

type CustomerRepository struct {
	*orm.Repository[Customer]
}

func newCustomerRepository(db orm.DBExecutor) (*CustomerRepository, error) {
	repo, err := orm.NewRepository[Customer](db, customerMetadata)
	if err != nil {
		return nil, err
	}
	return &CustomerRepository{Repository: repo}, nil
}

// FindByUsernameSubstringActive returns active customers whose username
// contains s, case-sensitively.
func (r *CustomerRepository) FindByUsernameSubstringActive(ctx context.Context, s string) ([]Customer, error) {
	return r.Query(ctx).
		Where(Customers.Username.Contains(s)).
		Where(Customers.IsActive.IsTrue()).
		Find()
}

// CopyEmailIntoUsername sets every customer's username to their email.
func (r *CustomerRepository) CopyEmailIntoUsername(ctx context.Context) (int64, error) {
	return r.Query(ctx).Update(map[string]interface{}{
		Customers.Username.Name: Customers.Email.Ref(),
	})
}

// DeactivateShortUsernames deactivates customers whose username has fewer
// than minLength characters.
func (r *CustomerRepository) DeactivateShortUsernames(ctx context.Context, minLength int) (int64, error) {
	return r.Query(ctx).
		Where(Customers.Username.Length().Lt(minLength)).
		Update(map[string]interface{}{
			Customers.IsActive.Name: false,
		})
}

// ListWithoutEmail loads every customer except for the email column, which is
// left empty.
func (r *CustomerRepository) ListWithoutEmail(ctx context.Context) ([]Customer, error) {
	return r.Query(ctx).Omit(Customers.Email.Name).Find()
}

func (r *CustomerRepository) FindActiveRaw(ctx context.Context, active bool) ([]Customer, error) {
	return r.Raw(ctx, findActiveCustomersSQL, active)
}

func (r *CustomerRepository) FirstN(ctx context.Context, n uint64) ([]Customer, error) {
	return r.Query(ctx).Limit(n).Find()
}

func (r *CustomerRepository) SortedByUsername(ctx context.Context) ([]Customer, error) {
	return r.Query(ctx).OrderBy(Customers.Username.Asc()).Find()
}
