package polls

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/castpoll/backend/pkg/response"
)

// Code classifies a failed poll action.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeAuthentication Code = "AUTHENTICATION_ERROR"
	CodeAuthorization  Code = "AUTHORIZATION_ERROR"
	CodeDuplicateVote  Code = "DUPLICATE_VOTE_ERROR"
	CodeNotFound       Code = "NOT_FOUND_ERROR"
	CodePollExpired    Code = "POLL_EXPIRED_ERROR"
	CodeDatabase       Code = "DATABASE_ERROR"
	CodeUnknown        Code = "UNKNOWN_ERROR"
)

// ValidationError carries the full list of validator messages.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, ", ")
}

// AuthenticationError means the caller's identity is absent.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// AuthorizationError means the caller is known but not permitted.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// Sentinel errors raised at the point of failure. Raising tagged variants
// here instead of pattern-matching message text later keeps classification
// out of free-form strings.
var (
	ErrDuplicateVote  = errors.New("you have already voted on this poll")
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("poll option not found")
	ErrPollExpired    = errors.New("poll has expired")
)

// Classify maps any failure onto a Code. Typed variants win; untyped store
// errors fall back to message inspection so failures from outside this
// package still land in the right bucket. A nil error is unknown.
func Classify(err error) Code {
	var (
		validationErr     *ValidationError
		authenticationErr *AuthenticationError
		authorizationErr  *AuthorizationError
	)
	switch {
	case err == nil:
		return CodeUnknown
	case errors.As(err, &validationErr):
		return CodeValidation
	case errors.As(err, &authenticationErr):
		return CodeAuthentication
	case errors.As(err, &authorizationErr):
		return CodeAuthorization
	case errors.Is(err, ErrDuplicateVote):
		return CodeDuplicateVote
	case errors.Is(err, ErrPollNotFound), errors.Is(err, ErrOptionNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPollExpired):
		return CodePollExpired
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already voted"), strings.Contains(msg, "duplicate"):
		return CodeDuplicateVote
	case strings.Contains(msg, "not found"):
		return CodeNotFound
	default:
		return CodeDatabase
	}
}

// Respond is the single chokepoint that turns a failed action into the
// user-facing envelope. Store internals are logged, never echoed.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	switch Classify(err) {
	case CodeValidation:
		response.BadRequest(c, err.Error())
	case CodeAuthentication:
		response.Unauthorized(c, err.Error())
	case CodeAuthorization:
		response.Forbidden(c, err.Error())
	case CodeDuplicateVote:
		response.Conflict(c, ErrDuplicateVote.Error())
	case CodeNotFound:
		response.NotFound(c, err.Error())
	case CodePollExpired:
		response.Gone(c, ErrPollExpired.Error())
	default:
		logger.Error("poll action failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "database error")
	}
}
