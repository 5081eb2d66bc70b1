// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package jobs runs the server's background work.

# Scheduler

Scheduler wraps robfig/cron. Every job satisfies Job and is registered with
a cron spec from configuration. Overlapping runs of the same job are
skipped and a panicking job is logged instead of taking the process down.
Each run records a duration and outcome through the metrics package.

# Jobs

  - Reconciler: settles PayPal orders left CREATED or APPROVED for more
    than ten minutes. Approved orders are captured, orders PayPal no
    longer knows are canceled, and CREATED orders older than a day are
    abandoned.
  - StreamMonitor: polls Mux and writes a stream_logs row when a stream
    changes between active and anything else. The first poll after start
    only records a baseline.
  - VODNotifier: broadcasts "new_vod" on the vod_updates channel once per
    approved clip. Listen keeps a realtime subscription on vod_edits and
    reconnects with backoff; running it as a job sweeps clips approved
    while the subscription was down.

The notification flag is claimed with a conditional UPDATE, so two server
instances never announce the same clip.
*/
package jobs
