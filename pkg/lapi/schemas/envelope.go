package schemas

import "github.com/quatton/libra/pkg/db"

// Envelope is the body shape shared by every non-auth response.
type Envelope[T any] struct {
	StatusCode int    `json:"status_code" example:"200" doc:"HTTP status code, mirrored in the body"`
	Details    string `json:"details" doc:"Human readable outcome"`
	Data       T      `json:"data" doc:"Payload"`
}

type EnvelopeOutput[T any] struct {
	Body Envelope[T]
}

func Wrap[T any](status int, details string, data T) *EnvelopeOutput[T] {
	return &EnvelopeOutput[T]{Body: Envelope[T]{StatusCode: status, Details: details, Data: data}}
}

// MapAll converts a page of rows, never returning nil so lists encode as [].
func MapAll[M any, O any](rows []M, conv func(*M) O) []O {
	out := make([]O, 0, len(rows))
	for i := range rows {
		out = append(out, conv(&rows[i]))
	}
	return out
}

type PageParams struct {
	PageNumber int `query:"page_number" minimum:"1" default:"1" doc:"1-based page number"`
	PageSize   int `query:"page_size" minimum:"1" maximum:"100" default:"10" doc:"Items per page"`
}

func (p PageParams) Page() db.Page {
	return db.Page{Number: p.PageNumber, Size: p.PageSize}.Normalize()
}

type IDParam struct {
	ID int64 `path:"id" minimum:"1" doc:"Record id"`
}

// Empty is the payload of responses that carry only a status.
type Empty struct{}

func Done(status int, details string) *EnvelopeOutput[*Empty] {
	return Wrap[*Empty](status, details, nil)
}
