// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics owns the Prometheus registry and every collector the server
exports under the riot_ namespace.

HTTP traffic is recorded by middleware.Instrument with the mux pattern as
the route label. Domain code calls the small recording helpers:

	metrics.OrderStatus(models.OrderCompleted, "capture")
	metrics.TriviaAnswered(correct)
	metrics.JobRun("reconciler", time.Since(start), err)

GET /metrics serves Handler().
*/
package metrics
