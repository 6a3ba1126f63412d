package analytics

import (
	"sort"
	"time"

	"github.com/akislov/book-comb/app/book"
)

// Reading statistics derived from the canonical library. Pure counting and
// grouping; recomputed in full after every aggregation run.

type Overview struct {
	TotalBooks       int     `json:"totalBooks"`
	Read             int     `json:"read"`
	CurrentlyReading int     `json:"currentlyReading"`
	WantToRead       int     `json:"wantToRead"`
	AverageRating    float64 `json:"averageRating"`
	TotalPages       int     `json:"totalPages"`
}

type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

type AuthorStat struct {
	Author        string  `json:"author"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}

type RatingCount struct {
	Rating float64 `json:"rating"`
	Count  int     `json:"count"`
}

type Goals struct {
	BooksThisYear  int     `json:"booksThisYear"`
	TargetThisYear int     `json:"targetThisYear"`
	Progress       float64 `json:"progress"`
	OnTrack        bool    `json:"onTrack"`
}

type Analytics struct {
	Overview        Overview      `json:"overview"`
	ByYear          []YearCount   `json:"byYear"`
	ByMonth         []MonthCount  `json:"byMonth"`
	TopAuthors      []AuthorStat  `json:"topAuthors"`
	AuthorDiversity float64       `json:"authorDiversity"`
	Ratings         []RatingCount `json:"ratings"`
	Goals           Goals         `json:"goals"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}

const topAuthorsLimit = 10

// Compute derives the full analytics document from the library.
func Compute(library book.Library, yearlyGoal int) Analytics {
	return computeAt(library, yearlyGoal, time.Now().UTC())
}

func computeAt(library book.Library, yearlyGoal int, now time.Time) Analytics {
	a := Analytics{GeneratedAt: now}

	var readBooks book.Library
	for _, b := range library {
		switch b.Status {
		case book.StatusRead:
			a.Overview.Read++
			readBooks = append(readBooks, b)
		case book.StatusCurrentlyReading:
			a.Overview.CurrentlyReading++
		case book.StatusWantToRead:
			a.Overview.WantToRead++
		}
		a.Overview.TotalPages += b.PageCount
	}
	a.Overview.TotalBooks = len(library)

	ratingSum := 0.0
	ratingCount := 0
	ratingDist := make(map[float64]int)
	for _, b := range readBooks {
		if b.Rating > 0 {
			ratingSum += b.Rating
			ratingCount++
			ratingDist[b.Rating]++
		}
	}
	if ratingCount > 0 {
		a.Overview.AverageRating = ratingSum / float64(ratingCount)
	}

	a.ByYear, a.ByMonth = timeline(readBooks)
	a.TopAuthors, a.AuthorDiversity = authors(readBooks)
	a.Ratings = ratingCounts(ratingDist)
	a.Goals = goals(readBooks, yearlyGoal, now)

	return a
}

func timeline(readBooks book.Library) ([]YearCount, []MonthCount) {
	byYear := make(map[int]int)
	byMonth := make(map[string]int)

	for _, b := range readBooks {
		if b.CompletedDate == nil {
			continue
		}
		byYear[b.CompletedDate.Year()]++
		byMonth[b.CompletedDate.Format("2006-01")]++
	}

	years := make([]YearCount, 0, len(byYear))
	for year, count := range byYear {
		years = append(years, YearCount{Year: year, Count: count})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	months := make([]MonthCount, 0, len(byMonth))
	for month, count := range byMonth {
		months = append(months, MonthCount{Month: month, Count: count})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	return years, months
}

func authors(readBooks book.Library) ([]AuthorStat, float64) {
	counts := make(map[string]int)
	ratingSums := make(map[string]float64)
	ratingCounts := make(map[string]int)

	for _, b := range readBooks {
		counts[b.Author]++
		if b.Rating > 0 {
			ratingSums[b.Author] += b.Rating
			ratingCounts[b.Author]++
		}
	}

	stats := make([]AuthorStat, 0, len(counts))
	for author, count := range counts {
		stat := AuthorStat{Author: author, Count: count}
		if ratingCounts[author] > 0 {
			stat.AverageRating = ratingSums[author] / float64(ratingCounts[author])
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Author < stats[j].Author
	})
	if len(stats) > topAuthorsLimit {
		stats = stats[:topAuthorsLimit]
	}

	diversity := 0.0
	if len(readBooks) > 0 {
		diversity = float64(len(counts)) / float64(len(readBooks))
	}

	return stats, diversity
}

func ratingCounts(dist map[float64]int) []RatingCount {
	out := make([]RatingCount, 0, len(dist))
	for rating, count := range dist {
		out = append(out, RatingCount{Rating: rating, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	return out
}

func goals(readBooks book.Library, target int, now time.Time) Goals {
	g := Goals{TargetThisYear: target}

	for _, b := range readBooks {
		if b.CompletedDate != nil && b.CompletedDate.Year() == now.Year() {
			g.BooksThisYear++
		}
	}

	if target > 0 {
		g.Progress = float64(g.BooksThisYear) / float64(target) * 100

		// On track when the pace matches the elapsed share of the year.
		elapsed := float64(now.YearDay()) / 365.0
		g.OnTrack = float64(g.BooksThisYear) >= elapsed*float64(target)
	}

	return g
}
