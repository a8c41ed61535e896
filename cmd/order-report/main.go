package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/service"
	"go-pos-orders/pkg/config"
	"go-pos-orders/pkg/database"
	"go-pos-orders/pkg/logger"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// order-report prints the order status breakdown and open layaway balance as tables
func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "query timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(&logger.LogConfig{Level: cfg.Log.Level, Environment: cfg.Server.Env, ServiceName: "order-report"}); err != nil {
		panic(err)
	}
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := service.NewOrderQueryService(repository.NewOrderRepo(db)).GetReport(ctx)
	if err != nil {
		log.Fatal("failed to build report", zap.Error(err))
	}

	byStatus := tablewriter.NewWriter(os.Stdout)
	byStatus.Header("Primary status", "Orders")
	for _, row := range report.ByStatus {
		if err := byStatus.Append([]string{string(row.Status), strconv.FormatInt(row.Count, 10)}); err != nil {
			log.Fatal("failed to write row", zap.Error(err))
		}
	}
	if err := byStatus.Render(); err != nil {
		log.Fatal("failed to render table", zap.Error(err))
	}

	summary := tablewriter.NewWriter(os.Stdout)
	summary.Header("Metric", "Value")
	rows := [][]string{
		{"Total orders", strconv.FormatInt(report.TotalOrders, 10)},
		{"Open layaway orders", strconv.FormatInt(report.OpenLayawayOrders, 10)},
		{"Outstanding layaway", report.OutstandingLayaway.StringFixed(2)},
		{"Undelivered items", strconv.FormatInt(report.UndeliveredOrderItems, 10)},
	}
	for _, r := range rows {
		if err := summary.Append(r); err != nil {
			log.Fatal("failed to write row", zap.Error(err))
		}
	}
	if err := summary.Render(); err != nil {
		log.Fatal("failed to render table", zap.Error(err))
	}
}
