// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package orders owns reads and status changes of the orders table.

Checkout, the PayPal webhook, the admin back office and the reconciler job
all move orders through the same Store so the allowed transitions live in
one place:

	CREATED   -> APPROVED | COMPLETED | CANCELED
	APPROVED  -> COMPLETED | CANCELED
	COMPLETED -> CANCELED   (refund or reversal)

Transition is a conditional UPDATE. It reports false instead of failing
when the row is already past the requested status, which makes repeated
captures and redelivered webhooks no-ops.
*/
package orders
