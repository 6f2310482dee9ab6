package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/store"
)

// Dataset is the source of the records served by the API.
type Dataset interface {
	Records() ([]*models.Proposal, error)
	Name() string
}

// FileDataset reads the JSON file written by the scrape command. The file
// is re-read on every request; a scrape run replaces it atomically.
type FileDataset struct {
	Path string
}

func (d FileDataset) Records() ([]*models.Proposal, error) {
	records, err := store.Load(d.Path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "dataset unreadable", err)
	}
	return records, nil
}

func (d FileDataset) Name() string { return d.Path }

// StaticDataset serves a fixed slice of records.
type StaticDataset []*models.Proposal

func (d StaticDataset) Records() ([]*models.Proposal, error) { return d, nil }

func (d StaticDataset) Name() string { return "memory" }

// respondError writes a failed response with a status derived from the
// error code.
func respondError(c *gin.Context, err error) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
