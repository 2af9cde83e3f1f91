// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/callscope/internal/metrics"
	"github.com/tomtom215/callscope/internal/models"
)

// ComputeKPIs aggregates the KPI report for an agent, optionally
// filtered to one month partition. Scalar aggregates run in DuckDB;
// evaluation-criteria results are opaque JSON and are folded in Go.
func (db *DB) ComputeKPIs(ctx context.Context, agentID, month string) (*models.KPIReport, error) {
	start := time.Now()
	report, err := db.computeKPIs(ctx, agentID, month)
	metrics.RecordDBQuery("kpis", "conversations", time.Since(start), err)
	return report, err
}

func (db *DB) computeKPIs(ctx context.Context, agentID, month string) (*models.KPIReport, error) {
	where := " WHERE agent_id = ?"
	args := []interface{}{agentID}
	if month != "" {
		where += " AND month_partition = ?"
		args = append(args, month)
	}

	report := &models.KPIReport{
		AgentID:       agentID,
		Month:         month,
		CriteriaStats: []models.CriterionStats{},
		DailyTrends:   []models.DailyTrend{},
	}
	if month == "" {
		report.Month = "all"
	}

	if err := db.kpiScalars(ctx, where, args, report); err != nil {
		return nil, err
	}
	if report.TotalConversations == 0 {
		return report, nil
	}

	stats, err := db.kpiCriteriaStats(ctx, where, args)
	if err != nil {
		return nil, err
	}
	report.CriteriaStats = stats

	trends, err := db.kpiDailyTrends(ctx, where, args)
	if err != nil {
		return nil, err
	}
	report.DailyTrends = trends

	return report, nil
}

// kpiScalars fills the single-row aggregates. Duration, message and
// cost averages only count positive values; a zero duration means the
// call never connected and would skew the averages.
func (db *DB) kpiScalars(ctx context.Context, where string, args []interface{}, report *models.KPIReport) error {
	query := `SELECT
		COUNT(*),
		SUM(CASE WHEN call_successful = 'success' THEN 1 ELSE 0 END),
		SUM(CASE WHEN call_successful = 'failure' THEN 1 ELSE 0 END),
		SUM(CASE WHEN call_successful = 'unknown' THEN 1 ELSE 0 END),
		SUM(CASE WHEN direction = 'outbound' THEN 1 ELSE 0 END),
		SUM(CASE WHEN direction = 'inbound' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
		AVG(CASE WHEN call_duration_secs > 0 THEN call_duration_secs END),
		MIN(CASE WHEN call_duration_secs > 0 THEN call_duration_secs END),
		MAX(CASE WHEN call_duration_secs > 0 THEN call_duration_secs END),
		SUM(CASE WHEN call_duration_secs > 0 AND call_duration_secs < 30 THEN 1 ELSE 0 END),
		SUM(CASE WHEN call_duration_secs > 300 THEN 1 ELSE 0 END),
		SUM(CASE WHEN termination_reason ILIKE '%transfer%' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status IN ('failed', 'initiated')
			OR termination_reason ILIKE '%hang%' THEN 1 ELSE 0 END),
		AVG(CASE WHEN message_count > 0 THEN message_count END),
		SUM(CASE WHEN cost > 0 THEN cost ELSE 0 END),
		AVG(CASE WHEN cost > 0 THEN cost END),
		AVG(rating)
	FROM conversations` + where

	var (
		avgDuration, avgMessages, avgCost, avgRating sql.NullFloat64
		minDuration, maxDuration                     sql.NullInt64
		totalCost                                    sql.NullFloat64
	)

	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&report.TotalConversations,
		&report.SuccessfulCount, &report.FailedCount, &report.UnknownCount,
		&report.OutboundCalls, &report.InboundCalls,
		&report.DoneCalls, &report.FailedCalls,
		&avgDuration, &minDuration, &maxDuration,
		&report.ShortCallsUnder30, &report.LongCallsOver300,
		&report.TransferCount, &report.DropoutCount,
		&avgMessages, &totalCost, &avgCost, &avgRating,
	)
	if err != nil {
		return fmt.Errorf("failed to compute KPI aggregates: %w", err)
	}

	total := report.TotalConversations
	if total == 0 {
		return nil
	}

	report.ConversionRate = pct(report.SuccessfulCount, total)
	report.ConnectionRate = pct(report.DoneCalls, total)
	report.TransferRate = pct(report.TransferCount, total)
	report.DropoutRate = pct(report.DropoutCount, total)
	report.TechnicalErrors = report.FailedCalls
	report.ErrorRate = pct(report.TechnicalErrors, total)

	report.AvgDurationSecs = round1(avgDuration.Float64)
	report.MinDurationSecs = int(minDuration.Int64)
	report.MaxDurationSecs = int(maxDuration.Int64)
	report.AvgMessageCount = round1(avgMessages.Float64)
	report.TotalCost = totalCost.Float64
	report.AvgCostPerSession = round2(avgCost.Float64)

	if avgRating.Valid {
		r := round2(avgRating.Float64)
		report.AvgRating = &r
	}

	return nil
}

// kpiCriteriaStats folds the per-conversation evaluation criteria JSON
// into per-criterion pass/fail counts. The provider returns either an
// object keyed by criterion id or a list of result objects; both shapes
// are handled. First-seen order is preserved.
func (db *DB) kpiCriteriaStats(ctx context.Context, where string, args []interface{}) ([]models.CriterionStats, error) {
	query := `SELECT evaluation_criteria_results FROM conversations` + where +
		" AND evaluation_criteria_results IS NOT NULL"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria results: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.CriterionStats)
	var order []string

	record := func(id string, passed bool) {
		stat, ok := byID[id]
		if !ok {
			stat = &models.CriterionStats{Name: id}
			byID[id] = stat
			order = append(order, id)
		}
		stat.Total++
		if passed {
			stat.Pass++
		} else {
			stat.Fail++
		}
	}

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan criteria results: %w", err)
		}

		doc := gjson.Parse(raw)
		switch {
		case doc.IsObject():
			doc.ForEach(func(key, value gjson.Result) bool {
				if value.IsObject() {
					record(key.String(), value.Get("result").String() == "success")
				} else {
					record(key.String(), value.String() == "success")
				}
				return true
			})
		case doc.IsArray():
			doc.ForEach(func(_, item gjson.Result) bool {
				id := item.Get("id").String()
				if id == "" {
					id = item.Get("criteria_id").String()
				}
				if id == "" {
					id = item.Raw
				}
				record(id, item.Get("result").String() == "success")
				return true
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]models.CriterionStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byID[id])
	}
	return stats, nil
}

// kpiDailyTrends groups conversations by UTC calendar day.
func (db *DB) kpiDailyTrends(ctx context.Context, where string, args []interface{}) ([]models.DailyTrend, error) {
	// make_timestamp interprets epoch microseconds without a timezone,
	// which keeps day bucketing in UTC regardless of server locale.
	query := `SELECT
		strftime(make_timestamp(start_time_unix * 1000000), '%Y-%m-%d') AS day,
		COUNT(*),
		SUM(CASE WHEN call_successful = 'success' THEN 1 ELSE 0 END),
		SUM(CASE WHEN call_successful = 'failure' THEN 1 ELSE 0 END),
		AVG(CASE WHEN call_duration_secs > 0 THEN call_duration_secs END),
		SUM(CASE WHEN cost > 0 THEN cost ELSE 0 END)
	FROM conversations` + where + ` AND start_time_unix > 0
	GROUP BY day
	ORDER BY day ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily trends: %w", err)
	}
	defer rows.Close()

	var trends []models.DailyTrend
	for rows.Next() {
		var t models.DailyTrend
		var avgDuration sql.NullFloat64
		var cost sql.NullFloat64
		if err := rows.Scan(&t.Date, &t.Total, &t.Success, &t.Failed, &avgDuration, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan daily trend: %w", err)
		}
		t.AvgDuration = round1(avgDuration.Float64)
		t.Cost = cost.Float64
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// pct returns count/total as a percentage rounded to two decimals.
func pct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
