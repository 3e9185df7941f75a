// Package services defines the business logic for accounts, submissions,
// and streak progress. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrInvalidCredentials is returned when a login attempt fails, without
	// distinguishing "unknown user" from "wrong password".
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserExists is returned when registration collides with an existing
	// username or email.
	ErrUserExists = errors.New("username or email already registered")

	// ErrInvalidUsername is returned when a username fails validation
	// (length or character set).
	ErrInvalidUsername = errors.New("username must be 3-32 characters: letters, digits, '_', '-'")

	// ErrInvalidEmail is returned when an email address fails validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned when a password is shorter than the
	// required minimum.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Submission-related errors.
var (
	// ErrSubmissionNotFound indicates that the requested submission does not
	// exist or is not accessible to the current user.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrEmptyProblem is returned when a submission carries no problem title.
	ErrEmptyProblem = errors.New("problem title is empty")

	// ErrProblemTooLong is returned when a problem title exceeds the
	// configured maximum length.
	ErrProblemTooLong = errors.New("problem title too long")

	// ErrInvalidDifficulty is returned when a difficulty label is outside
	// the allowed set (easy, medium, hard).
	ErrInvalidDifficulty = errors.New("difficulty must be easy, medium, or hard")

	// ErrFutureSubmission is returned when a submission is dated in the
	// future; malformed dates are rejected here at the input boundary so
	// the streak calculator never sees them.
	ErrFutureSubmission = errors.New("submission date cannot be in the future")

	// ErrEmptyQuery is returned when a search request has a blank query.
	ErrEmptyQuery = errors.New("search query is empty")
)
