package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spiffcs/gitgazer/internal/aggregate"
	"github.com/spiffcs/gitgazer/internal/model"
	"github.com/spiffcs/gitgazer/internal/service"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// JSONReport is the document written for a successful analysis. The HTTP
// API serves the same shape.
type JSONReport struct {
	Profile       model.Profile             `json:"profile"`
	Totals        JSONTotals                `json:"totals"`
	Languages     []aggregate.LanguageShare `json:"languages"`
	TopStarred    []model.Repository        `json:"topStarred"`
	Timeline      []aggregate.YearCount     `json:"timeline"`
	Repositories  []aggregate.Row           `json:"repositories"`
	FetchedAt     time.Time                 `json:"fetchedAt"`
	FromCache     bool                      `json:"fromCache"`
	Partial       bool                      `json:"partial,omitempty"`
	PartialReason string                    `json:"partialReason,omitempty"`
}

// JSONTotals summarizes the repository collection.
type JSONTotals struct {
	Repositories int `json:"repositories"`
	Stars        int `json:"stars"`
	Forks        int `json:"forks"`
}

// JSONError is the document written for a failed analysis.
type JSONError struct {
	Error *model.ErrorResult `json:"error"`
}

// Document converts a report into its JSON representation: a *JSONReport on
// success or a *JSONError otherwise.
func Document(r service.Report) any {
	switch res := r.Result.(type) {
	case *model.SuccessResult:
		return &JSONReport{
			Profile: res.Profile,
			Totals: JSONTotals{
				Repositories: len(res.Repositories),
				Stars:        r.TotalStars,
				Forks:        r.TotalForks,
			},
			Languages:     r.Languages,
			TopStarred:    r.TopStarred,
			Timeline:      r.Timeline,
			Repositories:  r.Rows,
			FetchedAt:     res.FetchedAt,
			FromCache:     r.FromCache,
			Partial:       res.Partial,
			PartialReason: res.PartialReason,
		}
	case *model.ErrorResult:
		return &JSONError{Error: res}
	default:
		return &JSONError{Error: model.ProfileUnavailable()}
	}
}

// Format writes the report as a single JSON document.
func (f *JSONFormatter) Format(r service.Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(Document(r))
}
