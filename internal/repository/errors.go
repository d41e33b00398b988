// Package repository defines error values reused across multiple
// repositories.  These sentinels let handlers and services distinguish
// failure scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when inserting a user or subscription whose
// email already exists.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrTicketNotFound is returned when a ticket does not exist or is
// inactive.  Handlers translate this into HTTP 404.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrOrderNotFound is returned when an order cannot be found.
var ErrOrderNotFound = errors.New("order not found")

// ErrQuotaExceeded is returned by the quota-guarded insert when the monthly
// cap would be exceeded.  The check runs inside the insert transaction so
// concurrent orders cannot race past it.
var ErrQuotaExceeded = errors.New("monthly quota exceeded")

// ErrOutOfStock is returned when an offering has fewer units left than the
// requested quantity.
var ErrOutOfStock = errors.New("out of stock")

// ErrPostNotFound is returned when a blog post does not exist or is not
// published.
var ErrPostNotFound = errors.New("post not found")
