package store

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// ListQuery selects one page of a listing. Pages are 1-based.
type ListQuery struct {
	Page    int
	PerPage int
}

// Normalize clamps page and per_page into their valid ranges
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Filter narrows a query. Filters built from nil values are no-ops.
type Filter func(db *gorm.DB) *gorm.DB

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains matches rows whose column contains value, ignoring case
func Contains(column string, value *string) Filter {
	return func(db *gorm.DB) *gorm.DB {
		if value == nil || *value == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(*value)) + "%"
		return db.Where("LOWER("+db.Statement.Quote(column)+`) LIKE ? ESCAPE '\'`, pattern)
	}
}

// Equal matches rows whose column equals value
func Equal[V any](column string, value *V) Filter {
	return func(db *gorm.DB) *gorm.DB {
		if value == nil {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: *value})
	}
}

// Where is an unconditional filter
func Where(query string, args ...any) Filter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func scopes(filters []Filter) []func(*gorm.DB) *gorm.DB {
	out := make([]func(*gorm.DB) *gorm.DB, len(filters))
	for i, f := range filters {
		out[i] = f
	}
	return out
}
