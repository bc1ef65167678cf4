/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct. The messages
are shown verbatim on the terminal, so they read like prompts rather than API text.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many connections. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Content Business Logic Errors
	ErrRoomCodeExists:        {Code: ErrRoomCodeExists, Message: "A room with that name already exists."},
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Room not found."},
	ErrInvalidRoomName:       {Code: ErrInvalidRoomName, Message: "Room names must be 1-%d characters."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d bytes)."},

	// 3xxx: User, Session, and Security Errors
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Usernames are 3-20 letters, digits or underscores."},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Passwords must be %d-%d characters."},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Unable to create user, maybe username already taken"},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Unable to validate user, maybe wrong password?"},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found."},

	// 5xxx: Internal System Errors
	ErrUnknown:      {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrShuttingDown: {Code: ErrShuttingDown, Message: "The board is shutting down. Please try again later.", Status: http.StatusServiceUnavailable},
}
