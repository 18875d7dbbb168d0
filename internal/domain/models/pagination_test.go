package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

func TestNewUserFilters_Defaults(t *testing.T) {
	f := NewUserFilters(0, 0, "")
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, "username", f.SortColumn())
	assert.Equal(t, "ASC", f.SortDirection())
	assert.Equal(t, 0, f.Offset())
}

func TestFilters_Validate(t *testing.T) {
	v := validator.New()
	NewUserFilters(2, 500, "password_hash").Validate(v)
	assert.False(t, v.Valid())
	assert.Contains(t, v.Errors, "page_size")
	assert.Contains(t, v.Errors, "sort")
}

func TestFilters_SortDescending(t *testing.T) {
	f := NewUserFilters(3, 10, "-created_at")
	assert.Equal(t, "created_at", f.SortColumn())
	assert.Equal(t, "DESC", f.SortDirection())
	assert.Equal(t, 20, f.Offset())
}

func TestFilters_UnknownSortFallsBack(t *testing.T) {
	f := NewUserFilters(1, 10, "1; DROP TABLE users")
	assert.Equal(t, "username", f.SortColumn())
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(12, NewUserFilters(1, 5, ""))
	assert.Equal(t, 1, m.FirstPage)
	assert.Equal(t, 3, m.LastPage)
	assert.Equal(t, 12, m.TotalRecords)

	empty := NewMetadata(0, NewUserFilters(1, 5, ""))
	assert.Equal(t, 0, empty.FirstPage)
	assert.Equal(t, 0, empty.LastPage)
}
