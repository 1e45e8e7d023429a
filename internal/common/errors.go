package common

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure. Kinds are stable identifiers recorded
// in logs and processing_metadata; user-facing text lives in UserMessage.
type Kind string

const (
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindTextExtraction    Kind = "TEXT_EXTRACTION_FAILED"
	KindImageConversion   Kind = "IMAGE_CONVERSION_FAILED"
	KindPhoneConversion   Kind = "PHONE_FORMAT_CONVERSION_FAILED"
	KindAIUnparseable     Kind = "AI_RESPONSE_UNPARSEABLE"
	KindNoContent         Kind = "NO_CONTENT_EXTRACTED"
	KindStorage           Kind = "STORAGE_FAILURE"
	KindAuthorization     Kind = "AUTHORIZATION_FAILURE"
	KindRetryUnsupported  Kind = "RETRY_UNSUPPORTED"
	KindDeadline          Kind = "DEADLINE_EXCEEDED"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInternal          Kind = "INTERNAL"
)

// AppError carries a failure kind, a Turkish user-actionable message, and
// the underlying cause. Raw library errors are logged server-side only and
// never shown to the end user.
type AppError struct {
	Kind        Kind
	UserMessage string
	Cause       error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.UserMessage, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
}

func (e *AppError) Unwrap() error { return e.Cause }

// E builds an AppError.
func E(kind Kind, userMessage string, cause error) *AppError {
	return &AppError{Kind: kind, UserMessage: userMessage, Cause: cause}
}

// KindOf extracts the Kind from err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// UserMessage returns the Turkish message to surface for err.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.UserMessage != "" {
		return ae.UserMessage
	}
	return "Beklenmeyen bir hata oluştu. Lütfen tekrar deneyin."
}

// Retryable reports whether a fresh extraction attempt may succeed for err.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTextExtraction, KindImageConversion, KindPhoneConversion, KindStorage, KindDeadline:
		return true
	}
	return false
}

func UnsupportedFormatError(ext string, accepted []string) *AppError {
	return E(KindUnsupportedFormat,
		fmt.Sprintf("Desteklenmeyen dosya formatı: %q. Kabul edilen formatlar: %s", ext, strings.Join(accepted, ", ")),
		nil)
}

func TextExtractionError(cause error) *AppError {
	return E(KindTextExtraction, "Metin çıkarma başarısız. Dosyanın bozuk olmadığından emin olun.", cause)
}

func ImageConversionError(cause error) *AppError {
	return E(KindImageConversion, "Görsel dönüştürme başarısız. Dosyayı JPG veya PNG olarak kaydedip tekrar yükleyin.", cause)
}

func PhoneConversionError(cause error) *AppError {
	return E(KindPhoneConversion, "iPhone fotoğrafı dönüştürülemedi. Lütfen Fotoğraflar uygulamasından JPG formatında dışa aktarın.", cause)
}

func AIUnparseableError(cause error) *AppError {
	return E(KindAIUnparseable, "Yapay zeka yanıtı çözümlenemedi. Lütfen tekrar deneyin.", cause)
}

func NoContentError() *AppError {
	return E(KindNoContent, "Dosyadan içerik çıkarılamadı. Dosyanın okunabilir metin içerdiğinden emin olun.", nil)
}

func StorageError(cause error) *AppError {
	return E(KindStorage, "Dosyaya erişilemedi. Lütfen tekrar deneyin.", cause)
}

func AuthorizationError() *AppError {
	return E(KindAuthorization, "Yetkisiz işlem.", nil)
}

func RetryUnsupportedError() *AppError {
	return E(KindRetryUnsupported, "Bu dosya türü için tekrar deneme desteklenmiyor.", nil)
}

func FilePathNotFoundError() *AppError {
	return E(KindRetryUnsupported, "Dosya yolu bulunamadı.", nil)
}

func DeadlineError() *AppError {
	return E(KindDeadline, "İşlem zaman aşımına uğradı. Lütfen tekrar deneyin.", nil)
}
