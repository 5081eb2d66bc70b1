// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LoginRequest: email, password
  - CreateCheckoutRequest: event_id
  - CaptureRequest: order_id
  - StoreOrderRequest: email, event_id, amount
  - PostMessageRequest: message
  - AnswerRequest: option, attempt_token
  - EventRequest, MerchRequest, TriviaQuestionRequest: admin CRUD bodies
  - CreateStreamRequest: optional live stream settings

# Response Types

  - AccessResponse: authed, hasAccess
  - PlaybackResponse: playback_id, playback_url
  - CheckoutResponse, CaptureResponse
  - ProfileResponse: coins and orders
  - TriviaQuestionResponse: question without the answer, attempt token
  - AnswerResponse: correct, coins_awarded
  - DashboardResponse: orders, pending_vod, stream_logs
  - ErrorResponse: error, message

# Domain Types

Profile, Event, Order, Merchandise, ChatMessage, TriviaQuestion, StreamLog
and VODEdit mirror their tables. Nullable columns are pointers.

# Constants

Order statuses:

  - OrderCreated: provider order exists, buyer has not approved
  - OrderApproved: buyer approved, not yet captured
  - OrderCompleted: captured, grants access
  - OrderCanceled: voided, denied or refunded

Stream log statuses: StreamLive, StreamDisconnected.
*/
package models
