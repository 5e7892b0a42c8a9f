package service

import (
	"context"
	"sort"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
)

// ReportSummary 營收總表，全部來自訂單項目的下單時快照
type ReportSummary struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
	OrdersCount  int             `json:"ordersCount"`
}

type DailyReport struct {
	Date    string          `json:"date"` // YYYY-MM-DD (UTC)
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`
	Orders  int             `json:"orders"`
}

type IReportService interface {
	RevenueReport(ctx context.Context, start, end *time.Time) (ReportSummary, []DailyReport, error)
}

// ReportService 唯讀，只看狀態為已送達的訂單
type ReportService struct {
	orderRepo db.IOrderRepository
}

func NewReportService(orderRepo db.IOrderRepository) *ReportService {
	return &ReportService{orderRepo: orderRepo}
}

func (s *ReportService) RevenueReport(ctx context.Context, start, end *time.Time) (ReportSummary, []DailyReport, error) {
	orders, err := s.orderRepo.GetDeliveredOrders(ctx, start, end)
	if err != nil {
		return ReportSummary{}, nil, err
	}

	summary := ReportSummary{
		TotalRevenue: decimal.NewFromInt(0),
		TotalCost:    decimal.NewFromInt(0),
		TotalProfit:  decimal.NewFromInt(0),
		OrdersCount:  len(orders),
	}
	byDay := make(map[string]*DailyReport)

	for _, order := range orders {
		revenue := decimal.NewFromInt(0)
		cost := decimal.NewFromInt(0)
		for _, item := range order.Items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			revenue = revenue.Add(item.Price.Mul(qty))
			cost = cost.Add(item.Cost.Mul(qty))
		}

		summary.TotalRevenue = summary.TotalRevenue.Add(revenue)
		summary.TotalCost = summary.TotalCost.Add(cost)

		dayKey := order.OrderDate.UTC().Format("2006-01-02")
		day, ok := byDay[dayKey]
		if !ok {
			day = &DailyReport{
				Date:    dayKey,
				Revenue: decimal.NewFromInt(0),
				Cost:    decimal.NewFromInt(0),
				Profit:  decimal.NewFromInt(0),
			}
			byDay[dayKey] = day
		}
		day.Revenue = day.Revenue.Add(revenue)
		day.Cost = day.Cost.Add(cost)
		day.Profit = day.Profit.Add(revenue.Sub(cost))
		day.Orders++
	}

	summary.TotalProfit = summary.TotalRevenue.Sub(summary.TotalCost)

	daily := make([]DailyReport, 0, len(byDay))
	for _, day := range byDay {
		daily = append(daily, *day)
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	return summary, daily, nil
}

var _ IReportService = (*ReportService)(nil)
