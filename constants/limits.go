package constants

// Upload size ceilings per category, enforced before anything is stored.
const (
	MaxPDFBytes   = 50 << 20
	MaxImageBytes = 10 << 20
	MaxTextBytes  = 20 << 20
)

// MaxBytesFor returns the upload ceiling for a category.
func MaxBytesFor(category FileCategory) int64 {
	switch category {
	case CategoryPDF:
		return MaxPDFBytes
	case CategoryImage:
		return MaxImageBytes
	default:
		return MaxTextBytes
	}
}
