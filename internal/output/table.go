package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/gitgazer/internal/aggregate"
	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/format"
	"github.com/spiffcs/gitgazer/internal/model"
	"github.com/spiffcs/gitgazer/internal/service"
)

// Fallback sentences for empty sections.
const (
	NoLanguages    = "No language data available for repositories."
	NoStarred      = "No starred repositories found."
	NoTimeline     = "No repository creation data available."
	NoRepositories = "No public repositories found for this user."
)

// Column widths for the repository table.
const (
	colName     = 32
	colLanguage = 16
	colStars    = 7
	colForks    = 7
	colCreated  = len(constants.DateLayout)

	labelWidth = 20
)

var (
	headingStyle = color.New(color.Bold, color.FgCyan)
	labelStyle   = color.New(color.Bold)
	faintStyle   = color.New(color.Faint)
	warnStyle    = color.New(color.FgYellow)
	errorStyle   = color.New(color.FgRed, color.Bold)
	barStyle     = color.New(color.FgGreen)
	starStyle    = color.New(color.FgYellow)
)

// TableFormatter formats output for a terminal
type TableFormatter struct {
	// Hyperlinks enables OSC 8 links for the profile URL.
	Hyperlinks bool
	// Now is used to describe the age of cached results.
	Now func() time.Time
}

// Format prints the profile block followed by every section.
func (f *TableFormatter) Format(r service.Report, w io.Writer) error {
	switch res := r.Result.(type) {
	case *model.ErrorResult:
		_, err := fmt.Fprintln(w, errorStyle.Sprint(res.Message))
		return err
	case *model.SuccessResult:
		f.profile(r, res, w)
		if len(res.Repositories) == 0 {
			fmt.Fprintln(w, NoRepositories)
			return nil
		}
		f.languages(r.Languages, w)
		f.topStarred(r.TopStarred, w)
		f.timeline(r.Timeline, w)
		f.repositories(r.Rows, w)
		return nil
	default:
		return fmt.Errorf("unexpected result type %T", r.Result)
	}
}

func (f *TableFormatter) profile(r service.Report, res *model.SuccessResult, w io.Writer) {
	p := res.Profile

	fmt.Fprintf(w, "Successfully fetched data for %s!\n", p.DisplayName())
	if r.FromCache && f.Now != nil {
		fmt.Fprintln(w, faintStyle.Sprintf("(cached, fetched %s ago)", format.Since(res.FetchedAt, f.Now())))
	}
	if res.Partial {
		fmt.Fprintln(w, warnStyle.Sprintf("Warning: repository list is incomplete (%s)", res.PartialReason))
	}
	if res.ExceedsDeclared(constants.PageSize) {
		fmt.Fprintln(w, warnStyle.Sprintf("Note: %d repositories listed but the profile declares %d", len(res.Repositories), p.PublicRepos))
	}

	heading(w, "User Profile")
	field(w, "Name", optional(p.Name))
	field(w, "Bio", optional(p.Bio))
	field(w, "Followers", fmt.Sprintf("%d | Following: %d", p.Followers, p.Following))
	field(w, "Public Repos", fmt.Sprintf("%d", p.PublicRepos))
	field(w, "Stars / Forks", fmt.Sprintf("%s / %s", format.Compact(r.TotalStars), format.Compact(r.TotalForks)))
	if p.HTMLURL != "" {
		link := p.HTMLURL
		if f.Hyperlinks {
			link = format.Hyperlink(p.HTMLURL, p.HTMLURL)
		}
		field(w, "Profile", link)
	}
}

func (f *TableFormatter) languages(shares []aggregate.LanguageShare, w io.Writer) {
	heading(w, "Language Analysis")
	if len(shares) == 0 {
		fmt.Fprintln(w, NoLanguages)
		return
	}

	top := shares[0].Count
	for _, s := range shares {
		fmt.Fprintf(w, "  %s %s %s (%d)\n",
			format.PadRight(format.Truncate(s.Language, labelWidth), labelWidth),
			format.PadRight(barStyle.Sprint(format.Bar(s.Count, top, constants.BarWidth)), constants.BarWidth),
			format.PadLeft(format.Percent(s.Percent), 6),
			s.Count,
		)
	}
}

func (f *TableFormatter) topStarred(repos []model.Repository, w io.Writer) {
	heading(w, fmt.Sprintf("Top %d Most Starred Repositories", len(repos)))
	if len(repos) == 0 {
		fmt.Fprintln(w, NoStarred)
		return
	}

	top := repos[0].Stars
	for _, r := range repos {
		fmt.Fprintf(w, "  %s %s %s\n",
			format.PadRight(format.Truncate(r.Name, labelWidth), labelWidth),
			format.PadRight(starStyle.Sprint(format.Bar(r.Stars, top, constants.BarWidth)), constants.BarWidth),
			format.Compact(r.Stars),
		)
	}
}

func (f *TableFormatter) timeline(years []aggregate.YearCount, w io.Writer) {
	heading(w, "Repository Creation Timeline")
	if len(years) == 0 {
		fmt.Fprintln(w, NoTimeline)
		return
	}

	top := 0
	for _, y := range years {
		top = max(top, y.Count)
	}
	for _, y := range years {
		fmt.Fprintf(w, "  %d %s %d\n",
			y.Year,
			format.PadRight(barStyle.Sprint(format.Bar(y.Count, top, constants.BarWidth)), constants.BarWidth),
			y.Count,
		)
	}
}

func (f *TableFormatter) repositories(rows []aggregate.Row, w io.Writer) {
	heading(w, "All Repositories")

	fmt.Fprintf(w, "%-*s  %-*s  %*s  %*s  %s\n",
		colName, "Repository Name",
		colLanguage, "Primary Language",
		colStars, "Stars",
		colForks, "Forks",
		"Creation Date")
	fmt.Fprintln(w, strings.Repeat("-", colName+colLanguage+colStars+colForks+colCreated+8))

	for _, row := range rows {
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			format.PadRight(format.Truncate(row.Name, colName), colName),
			format.PadRight(format.Truncate(row.Language, colLanguage), colLanguage),
			format.PadLeft(fmt.Sprintf("%d", row.Stars), colStars),
			format.PadLeft(fmt.Sprintf("%d", row.Forks), colForks),
			row.Created.Format(constants.DateLayout),
		)
	}
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("━", format.DisplayWidth(title)))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Sprint(format.PadRight(label+":", 14)), value)
}

func optional(s *string) string {
	if s == nil || *s == "" {
		return constants.MissingValue
	}
	return *s
}
