// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

/*
Package api provides the HTTP surface of Callscope using the chi router.

Endpoints are grouped under /api/v1 and wrapped in a standardized
APIResponse envelope. The package depends on narrow interfaces (Store,
SyncRunner, Exporter) so handlers can be tested with fakes.

Routes:

	GET  /api/v1/health              overall health
	GET  /api/v1/health/live         liveness probe
	GET  /api/v1/health/ready        readiness probe
	POST /api/v1/sync                trigger a sync run (async)
	GET  /api/v1/sync/runs           sync run ledger
	GET  /api/v1/kpis                aggregated KPIs per agent/month
	GET  /api/v1/conversations       paged conversation listing
	POST /api/v1/conversations/refetch  re-enrich rows missing phones
	GET  /api/v1/months              month partitions with counts
	POST /api/v1/archives            archive one agent month to CSV
	GET  /api/v1/archives            archive log
	GET  /api/v1/export              on-demand CSV export
	GET  /metrics                    Prometheus metrics
*/
package api
