package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/format"
	"github.com/spiffcs/gitgazer/internal/model"
	"github.com/spiffcs/gitgazer/internal/service"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	Now func() time.Time
}

// Format outputs the report as a Markdown document
func (f *MarkdownFormatter) Format(r service.Report, w io.Writer) error {
	switch res := r.Result.(type) {
	case *model.ErrorResult:
		_, err := fmt.Fprintf(w, "> **Error:** %s\n", res.Message)
		return err
	case *model.SuccessResult:
		f.format(r, res, w)
		return nil
	default:
		return fmt.Errorf("unexpected result type %T", r.Result)
	}
}

func (f *MarkdownFormatter) format(r service.Report, res *model.SuccessResult, w io.Writer) {
	p := res.Profile

	fmt.Fprintf(w, "# %s\n", escape(p.DisplayName()))
	if f.Now != nil {
		fmt.Fprintf(w, "\n*Generated: %s*\n", f.Now().Format("2006-01-02 15:04"))
	}
	if res.Partial {
		fmt.Fprintf(w, "\n> **Warning:** repository list is incomplete (%s)\n", res.PartialReason)
	}

	fmt.Fprintln(w, "\n## User Profile")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Login:** [%s](%s)\n", escape(p.Login), p.HTMLURL)
	fmt.Fprintf(w, "- **Name:** %s\n", escape(optional(p.Name)))
	fmt.Fprintf(w, "- **Bio:** %s\n", escape(optional(p.Bio)))
	fmt.Fprintf(w, "- **Followers:** %d | **Following:** %d\n", p.Followers, p.Following)
	fmt.Fprintf(w, "- **Public Repos:** %d\n", p.PublicRepos)
	fmt.Fprintf(w, "- **Stars:** %d | **Forks:** %d\n", r.TotalStars, r.TotalForks)

	if len(res.Repositories) == 0 {
		fmt.Fprintf(w, "\n%s\n", NoRepositories)
		return
	}

	fmt.Fprintln(w, "\n## Language Analysis")
	fmt.Fprintln(w)
	if len(r.Languages) == 0 {
		fmt.Fprintln(w, NoLanguages)
	} else {
		fmt.Fprintln(w, "| Language | Repositories | Share |")
		fmt.Fprintln(w, "|---|---:|---:|")
		for _, l := range r.Languages {
			fmt.Fprintf(w, "| %s | %d | %s |\n", escape(l.Language), l.Count, format.Percent(l.Percent))
		}
	}

	fmt.Fprintln(w, "\n## Repository Popularity")
	fmt.Fprintln(w)
	if len(r.TopStarred) == 0 {
		fmt.Fprintln(w, NoStarred)
	} else {
		fmt.Fprintln(w, "| # | Repository | Stars |")
		fmt.Fprintln(w, "|---:|---|---:|")
		for i, repo := range r.TopStarred {
			fmt.Fprintf(w, "| %d | %s | %d |\n", i+1, escape(repo.Name), repo.Stars)
		}
	}

	fmt.Fprintln(w, "\n## Repository Creation Timeline")
	fmt.Fprintln(w)
	if len(r.Timeline) == 0 {
		fmt.Fprintln(w, NoTimeline)
	} else {
		fmt.Fprintln(w, "| Year | Repositories |")
		fmt.Fprintln(w, "|---|---:|")
		for _, y := range r.Timeline {
			fmt.Fprintf(w, "| %d | %d |\n", y.Year, y.Count)
		}
	}

	fmt.Fprintln(w, "\n## All Repositories")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Repository Name | Primary Language | Stars | Forks | Creation Date |")
	fmt.Fprintln(w, "|---|---|---:|---:|---|")
	for _, row := range r.Rows {
		fmt.Fprintf(w, "| %s | %s | %d | %d | %s |\n",
			escape(row.Name), escape(row.Language), row.Stars, row.Forks, row.Created.Format(constants.DateLayout))
	}
}

// escape keeps user-controlled text from breaking table cells.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
