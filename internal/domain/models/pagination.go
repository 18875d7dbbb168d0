package models

import (
	"slices"
	"strings"

	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UserSortSafelist lists the sort keys accepted by GET /api/users.
var UserSortSafelist = []string{"username", "created_at", "last_login_at", "-username", "-created_at", "-last_login_at"}

// Filters holds page and sort parameters of a list request. Sort is one of
// SortSafelist; a leading "-" sorts descending.
type Filters struct {
	Page         int
	PageSize     int
	Sort         string
	SortSafelist []string
}

// NewUserFilters fills missing values with the defaults of the user list.
func NewUserFilters(page, pageSize int, sort string) Filters {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if sort == "" {
		sort = "username"
	}
	return Filters{
		Page:         page,
		PageSize:     pageSize,
		Sort:         sort,
		SortSafelist: UserSortSafelist,
	}
}

func (f Filters) Validate(v *validator.Validator) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= MaxPageSize, "page_size", "must be a maximum of 100")
	v.Check(validator.PermittedValue(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
}

// SortColumn returns the column of a safelisted Sort, falling back to the
// first safelist entry. Never interpolate Sort itself into SQL.
func (f Filters) SortColumn() string {
	if slices.Contains(f.SortSafelist, f.Sort) {
		return strings.TrimPrefix(f.Sort, "-")
	}
	if len(f.SortSafelist) == 0 {
		return "id"
	}
	return strings.TrimPrefix(f.SortSafelist[0], "-")
}

func (f Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f Filters) Limit() int {
	return f.PageSize
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

// NewMetadata computes page bounds for a result of total records.
// An empty result has zero first and last pages.
func NewMetadata(total int, f Filters) Metadata {
	m := Metadata{
		CurrentPage:  f.Page,
		PageSize:     f.PageSize,
		TotalRecords: total,
	}
	if total == 0 || f.PageSize <= 0 {
		return m
	}
	m.FirstPage = 1
	m.LastPage = (total + f.PageSize - 1) / f.PageSize
	return m
}

// UserPage is one page of the user list.
type UserPage struct {
	Users    []User   `json:"users"`
	Metadata Metadata `json:"metadata"`
}
