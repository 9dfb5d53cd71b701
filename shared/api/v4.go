package api

import (
	"encoding/json"
	"fmt"
)

// Request params

type Locale = string

type PublicationState string

const (
	PublicationLive    PublicationState = "live"
	PublicationPreview PublicationState = "preview"
)

// Filters is a nested operator tree, e.g.
//
//	Filters{"title": Filters{"$containsi": "go"}, "$or": []Filters{...}}
type Filters = map[string]any

// Params are the query parameters understood by the v4 REST API.
// They are serialized with bracket notation: filters[title][$eq]=x.
type Params struct {
	Fields           []string         `json:"fields,omitempty"`
	Populate         any              `json:"populate,omitempty"` // "*", []string or a nested map
	Sort             []string         `json:"sort,omitempty"`     // "title:asc"
	Pagination       Pagination       `json:"pagination,omitempty"`
	Filters          Filters          `json:"filters,omitempty"`
	PublicationState PublicationState `json:"publicationState,omitempty"`
	Locale           Locale           `json:"locale,omitempty"`
}

// Pagination is either PaginationByPage or PaginationByOffset.
type Pagination interface {
	pagination()
}

type PaginationByPage struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	WithCount *bool `json:"withCount,omitempty"`
}

type PaginationByOffset struct {
	Start     int   `json:"start"`
	Limit     int   `json:"limit"`
	WithCount *bool `json:"withCount,omitempty"`
}

func (PaginationByPage) pagination()   {}
func (PaginationByOffset) pagination() {}

// Response envelope

type Entry[T any] struct {
	Id         int64          `json:"id" validate:"required"`
	Attributes T              `json:"attributes"`
	Meta       map[string]any `json:"meta,omitempty"`
}

type ResponseSingle[T any] struct {
	Data *Entry[T] `json:"data" validate:"required"`
	Meta Meta      `json:"meta"`
}

type ResponseMany[T any] struct {
	Data []Entry[T] `json:"data" validate:"required,dive"`
	Meta Meta       `json:"meta"`
}

// Payload wraps a request body the way the v4 API expects: {"data": ...}.
type Payload[T any] struct {
	Data T `json:"data"`
}

// Meta carries pagination plus any other keys the backend adds.
type Meta struct {
	Pagination *MetaPagination            `json:"pagination,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// MetaPagination is page based (page, pageSize, pageCount, total) or
// offset based (start, limit, total).
type MetaPagination struct {
	Page      int `json:"page,omitempty"`
	PageSize  int `json:"pageSize,omitempty"`
	PageCount int `json:"pageCount,omitempty"`
	Start     int `json:"start,omitempty"`
	Limit     int `json:"limit,omitempty"`
	Total     int `json:"total"`
}

func (p MetaPagination) ByOffset() bool {
	return p.PageSize == 0 && p.Limit > 0
}

func (m *Meta) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Meta{}
	if p, ok := raw["pagination"]; ok {
		m.Pagination = &MetaPagination{}
		if err := json.Unmarshal(p, m.Pagination); err != nil {
			return fmt.Errorf("meta.pagination: %w", err)
		}
		delete(raw, "pagination")
	}
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

func (m Meta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Pagination != nil {
		out["pagination"] = m.Pagination
	}
	return json.Marshal(out)
}

// Error envelope

// ErrorResponse is the body the backend sends with non-2xx statuses.
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
