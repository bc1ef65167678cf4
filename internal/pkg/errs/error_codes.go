/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside the
session engine and on the small HTTP surface that sits next to it.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the connection rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room and Content Business Logic Errors
const (
	// ErrRoomCodeExists indicates that a room with the requested name already exists.
	ErrRoomCodeExists = 2102

	// ErrRoomNotFound indicates that the requested room does not exist.
	ErrRoomNotFound = 2103

	// ErrInvalidRoomName indicates that the room name is empty or too long.
	ErrInvalidRoomName = 2105

	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrInvalidUsername indicates that a username failed the registration policy.
	ErrInvalidUsername = 3101

	// ErrInvalidPassword indicates that a password failed the registration policy.
	ErrInvalidPassword = 3102

	// ErrUserAlreadyExists indicates that registration collided with an existing username.
	ErrUserAlreadyExists = 3103

	// ErrInvalidCredentials indicates a login with an unknown username or wrong password.
	ErrInvalidCredentials = 3104

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = 3105
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrShuttingDown indicates that the server no longer accepts new sessions.
	ErrShuttingDown = 5003
)
