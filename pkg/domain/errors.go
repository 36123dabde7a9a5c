package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     int
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ErrReferenced is returned by a guarded delete while another record still points at the target.
type ErrReferenced struct {
	Entity EntityType
	ID     int
	By     EntityType
	ByID   int
}

func (e ErrReferenced) Error() string {
	return fmt.Sprintf("%s %d still referenced by %s %d", e.Entity, e.ID, e.By, e.ByID)
}

// ErrMissingPrice is returned when a price list lacks a unit price for an ordered type.
type ErrMissingPrice struct {
	PricesID int
	TypeID   int
}

func (e ErrMissingPrice) Error() string {
	return fmt.Sprintf("prices %d has no unit price for article type %d", e.PricesID, e.TypeID)
}

// ErrInvalidQuantity is returned for non-positive quantities or amounts.
type ErrInvalidQuantity struct {
	Quantity int
}

func (e ErrInvalidQuantity) Error() string {
	return fmt.Sprintf("quantity %d must be positive", e.Quantity)
}

// ErrInsufficientStock is returned when a withdrawal exceeds the stock on hand.
type ErrInsufficientStock struct {
	ArticleID int
	Stock     int
	Requested int
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("article %d has %d in stock, cannot withdraw %d", e.ArticleID, e.Stock, e.Requested)
}

// ErrTerminalStatus is returned when a completed or cancelled record is asked to transition.
type ErrTerminalStatus struct {
	Entity EntityType
	ID     int
	Status Status
}

func (e ErrTerminalStatus) Error() string {
	return fmt.Sprintf("%s %d is %s", e.Entity, e.ID, e.Status)
}

// ErrNoPendingLine is returned when an arrival matches no pending self-order line.
type ErrNoPendingLine struct {
	SelfOrderID int
	TypeID      int
}

func (e ErrNoPendingLine) Error() string {
	return fmt.Sprintf("self order %d has no pending line for article type %d", e.SelfOrderID, e.TypeID)
}

// ErrInvalidValue is returned when a field fails validation.
type ErrInvalidValue struct {
	Field  string
	Reason string
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrDueDateInPast is returned when a due date precedes the day it is resolved on.
var ErrDueDateInPast = errors.New("due date lies in the past")
