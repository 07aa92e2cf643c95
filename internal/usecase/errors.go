package usecase

import "fmt"

// Domain error taxonomy. String types keep construction cheap at call sites
// (same idiom as ErrNotFound/ErrConflict elsewhere); struct types are used
// where the caller needs fields off the error.

type NotFoundError string

func (e NotFoundError) Error() string { return string(e) }

type ForbiddenError string

func (e ForbiddenError) Error() string { return string(e) }

type ValidationError string

func (e ValidationError) Error() string { return string(e) }

type InvalidStateError string

func (e InvalidStateError) Error() string { return string(e) }

type AuthenticationError string

func (e AuthenticationError) Error() string { return string(e) }

type ConflictError string

func (e ConflictError) Error() string { return string(e) }

// UnavailableItemError names the specific menu item that blocked the order.
type UnavailableItemError struct {
	MenuItemID string
	Name       string
}

func (e UnavailableItemError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s is currently unavailable", e.Name)
	}
	return fmt.Sprintf("menu item %s is currently unavailable", e.MenuItemID)
}

// GatewayUnavailableError marks a payment provider outage. The caller may
// retry the enclosing operation; nothing was committed.
type GatewayUnavailableError struct {
	Op  string
	Err error
}

func (e GatewayUnavailableError) Error() string {
	return fmt.Sprintf("payment gateway unavailable during %s: %v", e.Op, e.Err)
}

func (e GatewayUnavailableError) Unwrap() error { return e.Err }
