package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	render := func() (err error) {
		defer Recover(&err, "RenderFigure")
		panic("no plotters")
	}

	err := render()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}

	if panicErr.Operation != "RenderFigure" {
		t.Errorf("Expected operation 'RenderFigure', got '%s'", panicErr.Operation)
	}
	if panicErr.PanicValue != "no plotters" {
		t.Errorf("Expected panic value 'no plotters', got '%v'", panicErr.PanicValue)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if panicErr.Error() != "panic in RenderFigure: no plotters" {
		t.Errorf("unexpected message %q", panicErr.Error())
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "RenderFigure")
		return nil
	}

	if err := fn(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	fn := func() (err error) {
		defer Recover(&err, "RenderFigure")
		err = originalErr
		panic("panic after error")
	}

	err := fn()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "panic in RenderFigure") {
		t.Errorf("Error message should contain panic info: %s", errMsg)
	}
	if !strings.Contains(errMsg, "original error") {
		t.Errorf("Error message should contain original error: %s", errMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("Should be able to identify original error with errors.Is")
	}
}

func TestSafeExecute(t *testing.T) {
	if err := SafeExecute("ok", func() error { return nil }); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	fnErr := fmt.Errorf("function error")
	if err := SafeExecute("fails", func() error { return fnErr }); err != fnErr {
		t.Fatalf("Expected original error, got: %v", err)
	}

	err := SafeExecute("panics", func() error {
		panic("boom")
	})
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") {
		t.Error("String() should include stack trace information")
	}
}

func TestPanicError_UnwrapErrorValue(t *testing.T) {
	cause := fmt.Errorf("index out of range")

	err := SafeExecute("panics with error", func() error {
		panic(cause)
	})
	if !errors.Is(err, cause) {
		t.Error("PanicError should unwrap to an error panic value")
	}

	if NewPanicError("op", "string value").Unwrap() != nil {
		t.Error("Unwrap should be nil for non-error panic values")
	}
}
