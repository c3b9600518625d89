package domain

import (
	"context"
	"encoding/json"
)

// OMDbResponse is a title or id lookup payload. Only the fields the
// pipeline reads are decoded; Raw keeps the full document.
type OMDbResponse struct {
	Title     string          `json:"Title"`
	Year      string          `json:"Year"`
	Director  string          `json:"Director"`
	Plot      string          `json:"Plot"`
	BoxOffice string          `json:"BoxOffice"`
	ImdbID    string          `json:"imdbID"`
	Response  string          `json:"Response"`
	Error     string          `json:"Error"`
	Raw       json.RawMessage `json:"-"`
}

func (r *OMDbResponse) OK() bool {
	return r != nil && r.Response == "True"
}

// OMDbSearchResponse is the payload of a search-by-title request.
type OMDbSearchResponse struct {
	Search []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		ImdbID string `json:"imdbID"`
		Type   string `json:"Type"`
	} `json:"Search"`
	TotalResults string `json:"totalResults"`
	Response     string `json:"Response"`
	Error        string `json:"Error"`
}

// MetadataClient looks up movie metadata. Query never returns an error;
// a nil result means nothing was found or the call was not made.
type MetadataClient interface {
	Query(ctx context.Context, title string, year int) *OMDbResponse
	RateLimited() bool
	Calls() int
}
