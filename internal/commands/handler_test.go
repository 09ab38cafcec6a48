package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/domain"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/render"
)

type testMessage struct{}

func (testMessage) Type() string { return "blog.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "blog.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerCategorisesDomainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
	}{
		{"validation", posts.NewValidationError("a.md", "title", "Posts must have a title"), goerrors.CategoryValidation},
		{"not found", &posts.NotFoundError{Resource: "short_url", Key: "x", Message: "Short URL x does not exist"}, goerrors.CategoryNotFound},
		{"slug conflict", fmt.Errorf("save: %w", posts.ErrSlugConflict), goerrors.CategoryConflict},
		{"unsupported body", &render.UnsupportedPostBodyTypeError{Type: domain.ContentTypeReStructuredText}, goerrors.CategoryBadInput},
		{"declined", &DeclinedError{Reason: "Overwrite declined"}, goerrors.CategoryCommand},
		{"slug change", &posts.SlugChangeError{Stored: "morning", Parsed: "evening"}, goerrors.CategoryConflict},
		{"duplicate id", fmt.Errorf("posts/b.md: %w", posts.ErrDuplicateID), goerrors.CategoryConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler[testMessage](func(context.Context, testMessage) error { return tc.err })
			err := h.Execute(context.Background(), testMessage{})
			if !goerrors.IsCategory(err, tc.category) {
				t.Fatalf("expected %s category, got %v", tc.category, err)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected original error to stay reachable, got %v", err)
			}
			if Message(err) != tc.err.Error() {
				t.Fatalf("expected operator message %q, got %q", tc.err.Error(), Message(err))
			}
		})
	}
}

func TestDeclinedErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("a.md: %w", &DeclinedError{})
	if !errors.Is(err, ErrOverwriteDeclined) {
		t.Fatalf("expected declined error to match sentinel, got %v", err)
	}
	if err.Error() != "a.md: Overwrite declined" {
		t.Fatalf("unexpected operator text %q", err.Error())
	}
	if ErrOverwriteDeclined.Error() != "commands: overwrite declined" {
		t.Fatalf("unexpected sentinel text %q", ErrOverwriteDeclined.Error())
	}
}

func TestHandlerTelemetryAndFields(t *testing.T) {
	var got TelemetryInfo
	h := NewHandler[testMessage](
		func(context.Context, testMessage) error { return nil },
		WithOperation[testMessage]("posts.load"),
		WithMessageFields(func(testMessage) map[string]any { return map[string]any{"path": "a.md"} }),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) { got = info }),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got.Status != TelemetryStatusSuccess {
		t.Fatalf("expected success status, got %s", got.Status)
	}
	if got.Command != "blog.test.message" || got.Operation != "posts.load" {
		t.Fatalf("unexpected telemetry identity %+v", got)
	}
	if got.Fields["path"] != "a.md" {
		t.Fatalf("expected message fields in telemetry, got %v", got.Fields)
	}
}

func TestMessagePassesThroughPlainErrors(t *testing.T) {
	if Message(nil) != "" {
		t.Fatalf("expected empty message for nil")
	}
	if Message(errors.New("plain")) != "plain" {
		t.Fatalf("expected plain error text")
	}
}
