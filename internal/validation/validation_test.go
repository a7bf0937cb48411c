package validation

import (
	"errors"
	"testing"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name   string
		street string
		city   string
		valid  bool
	}{
		{
			name:   "complete",
			street: "Via Trinchese 10",
			city:   "Lecce",
			valid:  true,
		},
		{
			name:   "missing street",
			street: "  ",
			city:   "Lecce",
			valid:  false,
		},
		{
			name:   "missing city",
			street: "Via Trinchese",
			city:   "",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.street, tt.city)
			if (err == nil) != tt.valid {
				t.Fatalf("ValidateAddress(%q, %q) = %v, want valid=%v", tt.street, tt.city, err, tt.valid)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	base := model.RegistrationProfile{
		Name:            "Anna",
		Username:        "anna",
		Email:           "anna@example.com",
		Password:        "secret",
		ConfirmPassword: "secret",
	}

	if err := ValidateRegistration(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mismatch := base
	mismatch.ConfirmPassword = "other"
	if err := ValidateRegistration(mismatch); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	missing := base
	missing.Email = ""
	err := ValidateRegistration(missing)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "email" {
		t.Fatalf("expected field error for email, got %v", err)
	}
}

func TestValidateRegistration_ReportsFirstMissingField(t *testing.T) {
	for i := 0; i < 20; i++ {
		err := ValidateRegistration(model.RegistrationProfile{})
		var fieldErr *FieldError
		if !errors.As(err, &fieldErr) {
			t.Fatalf("expected FieldError, got %v", err)
		}
		if fieldErr.Field != "username" {
			t.Fatalf("field = %q, want username", fieldErr.Field)
		}
	}

	err := ValidateRegistration(model.RegistrationProfile{Username: "anna"})
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "email" {
		t.Fatalf("expected missing email, got %v", err)
	}
}
