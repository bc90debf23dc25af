package workflow

import "github.com/SAP-F-2025/grading-workflow-service/internal/models"

const DefaultPageSize = 10

// ComputeTotalPages uses ceiling division. An empty roster has zero pages.
func ComputeTotalPages(rosterSize, pageSize int) int {
	if rosterSize <= 0 || pageSize <= 0 {
		return 0
	}
	return (rosterSize + pageSize - 1) / pageSize
}

// SliceForPage returns a copy of the roster entries on pageIndex (1-based).
// pageIndex is clamped to [1, totalPages].
func SliceForPage(roster []models.RosterEntry, pageIndex, pageSize int) []models.RosterEntry {
	totalPages := ComputeTotalPages(len(roster), pageSize)
	if totalPages == 0 {
		return []models.RosterEntry{}
	}
	pageIndex = clampPage(pageIndex, totalPages)

	start := (pageIndex - 1) * pageSize
	end := start + pageSize
	if end > len(roster) {
		end = len(roster)
	}

	page := make([]models.RosterEntry, end-start)
	copy(page, roster[start:end])
	return page
}

// Advance moves to the next page; callers check against totalPages first.
func Advance(pageIndex int) int {
	return pageIndex + 1
}

func clampPage(pageIndex, totalPages int) int {
	if pageIndex < 1 {
		return 1
	}
	if pageIndex > totalPages {
		return totalPages
	}
	return pageIndex
}
