package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/munificent-school/backoffice/internal/repositories"
)

// SharedHelpers contains common query building used by every repository
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyPagination applies limit and offset. A non-positive limit returns every row.
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// ApplySort orders by a whitelisted column, falling back to defaultOrder.
func (h *SharedHelpers) ApplySort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]string, defaultOrder string) *gorm.DB {
	column, ok := allowed[sortBy]
	if !ok {
		return query.Order(defaultOrder)
	}
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}
	return query.Order(fmt.Sprintf("%s %s", column, direction))
}

// LikePattern wraps term for a case-insensitive substring match, escaping LIKE wildcards.
func LikePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(term)) + "%"
}

// notFound maps gorm's missing-row error onto repositories.ErrNotFound.
func notFound(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

// requireAffected turns a zero-row write into ErrNotFound.
func requireAffected(result *gorm.DB, entity string, id interface{}) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
	}
	return nil
}
