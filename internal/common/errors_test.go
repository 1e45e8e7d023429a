package common

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	base := TextExtractionError(errors.New("bad bytes"))
	wrapped := fmt.Errorf("stage: %w", base)
	if KindOf(wrapped) != KindTextExtraction {
		t.Errorf("kind = %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("plain errors must map to internal")
	}
}

func TestUserMessageFallsBackToGenericTurkish(t *testing.T) {
	msg := UserMessage(errors.New("pq: deadlock detected"))
	if strings.Contains(msg, "deadlock") {
		t.Errorf("raw cause leaked to user: %q", msg)
	}
	if !strings.Contains(msg, "Beklenmeyen bir hata") {
		t.Errorf("msg = %q", msg)
	}
}

func TestUnsupportedFormatMessageListsAccepted(t *testing.T) {
	err := UnsupportedFormatError("exe", []string{"pdf", "txt", "jpg"})
	if !strings.Contains(err.UserMessage, "exe") {
		t.Errorf("message missing offending extension: %q", err.UserMessage)
	}
	if !strings.Contains(err.UserMessage, "pdf, txt, jpg") {
		t.Errorf("message missing accepted list: %q", err.UserMessage)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{TextExtractionError(nil), true},
		{StorageError(nil), true},
		{DeadlineError(), true},
		{PhoneConversionError(nil), true},
		{UnsupportedFormatError("exe", nil), false},
		{AuthorizationError(), false},
		{RetryUnsupportedError(), false},
		{NoContentError(), false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", KindOf(tt.err), got, tt.want)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("io timeout")
	err := StorageError(cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}
