package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("user", "42")

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound() should wrap ErrNotFound")
	}
	if err.Error() != "user not found with id 42" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("content", "content too long")

	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationFailed() should wrap ErrValidation")
	}
	if err.Field != "content" {
		t.Errorf("Field = %q, want %q", err.Field, "content")
	}
}

func TestUnauthorizedAndForbiddenAreDistinct(t *testing.T) {
	unauth := Unauthorized("authentication required")
	forbidden := Forbidden("account is banned")

	if !errors.Is(unauth, ErrUnauthorized) || errors.Is(unauth, ErrForbidden) {
		t.Error("Unauthorized() should wrap ErrUnauthorized only")
	}
	if !errors.Is(forbidden, ErrForbidden) || errors.Is(forbidden, ErrUnauthorized) {
		t.Error("Forbidden() should wrap ErrForbidden only")
	}
}

func TestWrappedErrorsSurviveFmtErrorf(t *testing.T) {
	inner := Forbidden("administrator privileges required")
	outer := fmt.Errorf("service/user: %w", inner)

	if !errors.Is(outer, ErrForbidden) {
		t.Error("errors.Is should find ErrForbidden through the wrap chain")
	}

	var appErr *AppError
	if !errors.As(outer, &appErr) {
		t.Fatal("errors.As should extract *AppError")
	}
	if appErr.Message != "administrator privileges required" {
		t.Errorf("Message = %q", appErr.Message)
	}
}
