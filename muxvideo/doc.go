// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package muxvideo manages Mux live streams over the Mux Video REST API.
//
// Streams are created with public playback and public recordings. Responses
// arrive inside a {"data": ...} envelope, which the client strips.
// PlaybackURL and RTMPURL build the HLS and ingest URLs from ids and keys.
package muxvideo
