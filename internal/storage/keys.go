package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
)

// Object keys are namespaced per owner:
//
//	uploads/{ownerId}/{timestamp}_{randomId}.{ext}
//	converted/{ownerId}/{timestamp}_converted.jpg

// UploadKey builds the storage key for an original upload.
func UploadKey(ownerID uuid.UUID, ext string) string {
	return fmt.Sprintf("uploads/%s/%d_%s.%s", ownerID, time.Now().UnixMilli(), uuid.New(), constants.NormalizeExt(ext))
}

// ConvertedKey builds the storage key for a normalized image intermediate.
func ConvertedKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("converted/%s/%d_converted.jpg", ownerID, time.Now().UnixMilli())
}

// KeyFromPublicURL recovers the storage key from a stored public URL.
// Documents created before key-tracking was introduced only carry the URL,
// so this is the retry coordinator's fallback. Returns ok=false when the
// URL holds no recoverable "uploads/..." path.
func KeyFromPublicURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "uploads" {
			return strings.Join(parts[i:], "/"), true
		}
	}
	return "", false
}
