// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime is a client for Supabase Realtime, the Phoenix channel
websocket that fans out database changes and broadcasts to browsers.

The server never fans out itself. It only listens for row changes it has to
act on and publishes the occasional broadcast:

	c, err := realtime.Dial(ctx, sb.RealtimeURL())
	err = c.Subscribe(ctx, "vod_edits", realtime.PostgresChanges{
		Event: "UPDATE",
		Table: "vod_edits",
	}, func(ch realtime.Change) { ... })
	err = c.Broadcast(ctx, "vod_updates", "new_vod", payload)

Handlers run on the read loop, one at a time, in arrival order.

A heartbeat goes to the phoenix topic every 30 seconds. When the
connection drops, Done is closed and Err says why; reconnecting is the
caller's job.
*/
package realtime
