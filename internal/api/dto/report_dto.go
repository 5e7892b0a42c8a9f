package dto

// RevenueReportDTO 日期為 "2006-01-02"，留空表示不限
type RevenueReportDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
