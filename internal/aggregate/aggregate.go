// Package aggregate derives summary views from a repository collection.
// Every function is pure and returns an empty, non-nil slice for empty input.
package aggregate

import (
	"sort"
	"time"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/model"
)

// LanguageCount is the number of repositories using a primary language.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// LanguageShare is a LanguageCount with its percentage of all counted repositories.
type LanguageShare struct {
	LanguageCount
	Percent float64 `json:"percent"`
}

// YearCount is the number of repositories created in a calendar year (UTC).
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Row is the tabular projection of a repository.
type Row struct {
	Name     string    `json:"name"`
	Language string    `json:"language"`
	Stars    int       `json:"stars"`
	Forks    int       `json:"forks"`
	Created  time.Time `json:"created"`
}

// LanguageFrequency counts repositories per primary language, most used first.
// Repositories without a detected language are left out entirely.
// Equal counts keep the order in which the language was first seen.
func LanguageFrequency(repos []model.Repository) []LanguageCount {
	counts := []LanguageCount{}
	index := make(map[string]int)

	for _, r := range repos {
		if !r.HasLanguage() {
			continue
		}
		lang := *r.Language
		if i, ok := index[lang]; ok {
			counts[i].Count++
			continue
		}
		index[lang] = len(counts)
		counts = append(counts, LanguageCount{Language: lang, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Shares converts language counts into percentages of their total.
func Shares(counts []LanguageCount) []LanguageShare {
	shares := make([]LanguageShare, 0, len(counts))

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return shares
	}

	for _, c := range counts {
		shares = append(shares, LanguageShare{
			LanguageCount: c,
			Percent:       float64(c.Count) * 100 / float64(total),
		})
	}
	return shares
}

// TopByStars returns at most n repositories ordered by star count, highest
// first. Repositories with equal stars keep their collection order.
func TopByStars(repos []model.Repository, n int) []model.Repository {
	if n <= 0 {
		return []model.Repository{}
	}

	sorted := byStars(repos)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CreationTimeline counts repositories per creation year in ascending year
// order. Years without repositories are not included.
func CreationTimeline(repos []model.Repository) []YearCount {
	perYear := make(map[int]int)
	for _, r := range repos {
		perYear[r.CreatedAt.UTC().Year()]++
	}

	timeline := make([]YearCount, 0, len(perYear))
	for year, count := range perYear {
		timeline = append(timeline, YearCount{Year: year, Count: count})
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Year < timeline[j].Year
	})
	return timeline
}

// Table projects repositories into display rows sorted by stars, highest first.
// An absent language is shown as constants.MissingValue.
func Table(repos []model.Repository) []Row {
	sorted := byStars(repos)

	rows := make([]Row, 0, len(sorted))
	for _, r := range sorted {
		lang := constants.MissingValue
		if r.HasLanguage() {
			lang = *r.Language
		}
		rows = append(rows, Row{
			Name:     r.Name,
			Language: lang,
			Stars:    r.Stars,
			Forks:    r.Forks,
			Created:  r.CreatedAt.UTC(),
		})
	}
	return rows
}

// Totals sums stars and forks across the collection.
func Totals(repos []model.Repository) (stars, forks int) {
	for _, r := range repos {
		stars += r.Stars
		forks += r.Forks
	}
	return stars, forks
}

// byStars returns a stably sorted copy; the input is never reordered.
func byStars(repos []model.Repository) []model.Repository {
	sorted := make([]model.Repository, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stars > sorted[j].Stars
	})
	return sorted
}
