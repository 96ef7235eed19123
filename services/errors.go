package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"match-board-system/store"
)

// Domain error kinds. All are recoverable, caller-facing, and rendered
// as JSON by the handlers; none crash the process.
type ErrKind string

const (
	KindAuthorization ErrKind = "authorization"
	KindState         ErrKind = "state_violation"
	KindEligibility   ErrKind = "eligibility_denied"
	KindNotFound      ErrKind = "not_found"
	KindValidation    ErrKind = "validation"
)

type DomainError struct {
	Kind    ErrKind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func errAuthorization(msg string) *DomainError {
	return &DomainError{Kind: KindAuthorization, Message: msg}
}

func errState(msg string) *DomainError {
	return &DomainError{Kind: KindState, Message: msg}
}

func errEligibility(msg string) *DomainError {
	return &DomainError{Kind: KindEligibility, Message: msg}
}

func errNotFound(msg string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: msg}
}

func errValidation(msg string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: msg}
}

func statusFor(kind ErrKind) int {
	switch kind {
	case KindAuthorization, KindEligibility:
		return fiber.StatusForbidden
	case KindState:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// respondErr maps an engine error onto the HTTP response. Store-level
// not-found leaks through some read paths; treat it as 404 rather than
// a server fault.
func respondErr(c *fiber.Ctx, err error) error {
	var de *DomainError
	if errors.As(err, &de) {
		return c.Status(statusFor(de.Kind)).JSON(fiber.Map{
			"error": de.Message,
			"kind":  string(de.Kind),
		})
	}
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "record not found",
			"kind":  string(KindNotFound),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
