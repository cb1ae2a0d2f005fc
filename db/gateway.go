package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// Row is one result row keyed by column name.
type Row map[string]any

var procedureName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Gateway invokes stored procedures. Every call leases exactly one pooled
// connection and hands it back before returning, whatever the outcome.
type Gateway struct {
	db Database
}

func NewGateway(database Database) *Gateway {
	return &Gateway{db: database}
}

// Call runs procedure with positional params and returns its rows. Store
// failures are returned as-is apart from naming the procedure.
func (g *Gateway) Call(ctx context.Context, procedure string, params ...any) ([]Row, error) {
	if !procedureName.MatchString(procedure) {
		return nil, fmt.Errorf("invalid procedure name %q", procedure)
	}

	query := callStatement(procedure, len(params))

	var result []Row
	err := g.db.GetDB().WithContext(ctx).Connection(func(tx *gorm.DB) error {
		rows, err := tx.Raw(query, params...).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}

			row := make(Row, len(columns))
			for i, column := range columns {
				if b, ok := values[i].([]byte); ok {
					row[column] = string(b)
				} else {
					row[column] = values[i]
				}
			}
			result = append(result, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", procedure, err)
	}

	return result, nil
}

func callStatement(procedure string, n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", procedure, strings.Join(placeholders, ", "))
}
