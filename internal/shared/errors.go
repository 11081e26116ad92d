package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrItemNotFound       = fmt.Errorf("playlist item not found")

	// Journal errors
	ErrNothingToUndo       = fmt.Errorf("nothing to undo")
	ErrOperationInProgress = fmt.Errorf("a bulk operation is still running")
	ErrUnknownJobKind      = fmt.Errorf("unknown job kind")
	ErrCommandNotFound     = fmt.Errorf("command not found")
	ErrInconsistentJournal = fmt.Errorf("journal may be inconsistent with remote state")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
