// Package repository contains data access logic separated from HTTP handlers.
// This file defines sentinel errors shared across repositories so handlers
// can distinguish "not found" from "duplicate" from a transport failure and
// pick the right HTTP status for each.
package repository

import (
	"errors"
	"strings"
)

// ErrMovieNotFound is returned when a movie cannot be found.
var ErrMovieNotFound = errors.New("movie not found")

// ErrCategoryNotFound is returned when a category cannot be found.
var ErrCategoryNotFound = errors.New("category not found")

// ErrUserNotFound is returned when a user cannot be found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateName is returned when an insert or update violates a unique
// name constraint. Handlers translate it into HTTP 409.
var ErrDuplicateName = errors.New("name already exists")

// ErrUsernameExists is returned when registration collides with an existing
// username. Handlers translate it into HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error 1062, unique constraint violation).
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "error 1062") || strings.Contains(msg, "duplicate entry")
}
