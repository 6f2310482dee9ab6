package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Dataset string `json:"dataset"`
	Records int    `json:"records"`
	Version string `json:"version"`
}

// ProposalsResponse is the response for GET /api/v1/proposals.
type ProposalsResponse struct {
	Success   bool         `json:"success"`
	Total     int          `json:"total"`
	Proposals []*Proposal  `json:"proposals"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// SummaryResponse is the response for GET /api/v1/proposals/summary.
type SummaryResponse struct {
	Success bool         `json:"success"`
	Summary Summary      `json:"summary"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ProposalQuery holds the optional filters of GET /api/v1/proposals.
type ProposalQuery struct {
	// Status keeps only records whose status equals this label.
	Status string `form:"status"`

	// Q keeps only records whose title contains this text (case-insensitive).
	Q string `form:"q"`

	// Limit caps the number of returned records. Zero means no cap.
	Limit int `form:"limit" binding:"omitempty,min=0,max=10000"`
}

// ErrorResponse is the body of any failed API request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
