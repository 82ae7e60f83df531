package orm

// JoinType represents different types of SQL joins
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
	RightJoin JoinType = "RIGHT JOIN"
	FullJoin  JoinType = "FULL OUTER JOIN"
)

// join represents a SQL join clause (internal use only)
type join struct {
	Type      JoinType
	Table     string
	Condition string
}
