package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/selector"
)

// Proposals returns a handler for GET /api/v1/proposals.
//
// Query parameters: status (exact label, case-insensitive), q (title
// substring) and limit. Records keep their persisted order.
func Proposals(ds Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.ProposalQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		records, err := ds.Records()
		if err != nil {
			respondError(c, err)
			return
		}

		matched := filter(records, q)
		c.JSON(http.StatusOK, models.ProposalsResponse{
			Success:   true,
			Total:     len(matched),
			Proposals: limit(matched, q.Limit),
		})
	}
}

// Summary returns a handler for GET /api/v1/proposals/summary.
func Summary(ds Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := ds.Records()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SummaryResponse{
			Success: true,
			Summary: models.Summarize(records),
		})
	}
}

func filter(records []*models.Proposal, q models.ProposalQuery) []*models.Proposal {
	status := selector.Fold(q.Status)
	out := make([]*models.Proposal, 0, len(records))
	for _, r := range records {
		if status != "" && selector.Fold(statusOf(r)) != status {
			continue
		}
		if q.Q != "" && !selector.TextContains(r.Title, q.Q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func limit(records []*models.Proposal, n int) []*models.Proposal {
	if n > 0 && len(records) > n {
		return records[:n]
	}
	return records
}

// statusOf reports a missing status as Unknown, matching the summary.
func statusOf(r *models.Proposal) string {
	if r.Status == "" {
		return models.Unknown
	}
	return r.Status
}
