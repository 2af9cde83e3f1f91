// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package models

// KPIReport is the aggregate view over an agent's conversations,
// optionally restricted to a single month partition. Month is "all"
// when no filter was applied. Rates are percentages rounded to two
// decimals.
type KPIReport struct {
	AgentID string `json:"agent_id"`
	Month   string `json:"month"`

	TotalConversations int `json:"total_conversations"`

	// Conversion: call_successful outcomes.
	ConversionRate  float64 `json:"conversion_rate"`
	SuccessfulCount int     `json:"successful_count"`
	FailedCount     int     `json:"failed_count"`
	UnknownCount    int     `json:"unknown_count"`

	// Call attempts by direction and terminal status.
	OutboundCalls  int     `json:"outbound_calls"`
	InboundCalls   int     `json:"inbound_calls"`
	DoneCalls      int     `json:"done_calls"`
	FailedCalls    int     `json:"failed_calls"`
	ConnectionRate float64 `json:"connection_rate"`

	CriteriaStats []CriterionStats `json:"criteria_stats"`

	// Durations only count calls with a positive duration.
	AvgDurationSecs   float64 `json:"avg_duration_secs"`
	MinDurationSecs   int     `json:"min_duration_secs"`
	MaxDurationSecs   int     `json:"max_duration_secs"`
	ShortCallsUnder30 int     `json:"short_calls_under_30s"`
	LongCallsOver300  int     `json:"long_calls_over_300s"`

	TransferCount int     `json:"transfer_count"`
	TransferRate  float64 `json:"transfer_rate"`

	DropoutCount int     `json:"dropout_count"`
	DropoutRate  float64 `json:"dropout_rate"`

	AvgMessageCount   float64 `json:"avg_message_count"`
	TotalCost         float64 `json:"total_cost"`
	AvgCostPerSession float64 `json:"avg_cost_per_session"`

	TechnicalErrors int     `json:"technical_errors"`
	ErrorRate       float64 `json:"error_rate"`

	AvgRating *float64 `json:"avg_rating"`

	DailyTrends []DailyTrend `json:"daily_trends"`
}

// CriterionStats aggregates pass/fail outcomes for one evaluation
// criterion across conversations.
type CriterionStats struct {
	Name  string `json:"name"`
	Pass  int    `json:"pass"`
	Fail  int    `json:"fail"`
	Total int    `json:"total"`
}

// DailyTrend is one day of call volume, outcomes, duration and cost.
type DailyTrend struct {
	Date        string  `json:"date"`
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Failed      int     `json:"failed"`
	AvgDuration float64 `json:"avg_duration"`
	Cost        float64 `json:"cost"`
}
