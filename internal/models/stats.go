package models

// StatusCounts holds the number of records in each status
type StatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Rejected   int `json:"rejected"`
}

// Total returns the sum over all statuses
func (c StatusCounts) Total() int {
	return c.Pending + c.Processing + c.Completed + c.Rejected
}

// DayCount is one entry of the activity histogram
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD in the stats time zone
	Count int    `json:"count"`
}

// DashboardStats is the response of GET /api/admin/stats
type DashboardStats struct {
	TotalUsers   int          `json:"totalUsers"`
	TotalRecords int          `json:"totalRecords"`
	StatusCounts StatusCounts `json:"statusCounts"`
	TodayRecords int          `json:"todayRecords"`
	Last7Days    []DayCount   `json:"last7Days"`
}

// MessageResponse is returned by operations with no entity to report
type MessageResponse struct {
	Message string `json:"message"`
}
