package reconcile

import "strings"

// normalizers maps registered names to value normalizers. Normalizers run
// on trimmed non-empty strings before counting, so vendor spelling variants
// collapse into one bucket.
var normalizers = map[string]func(string) string{
	"gender":    NormalizeGender,
	"lowercase": strings.ToLower,
	"titlecase": normalizeTitle,
}

// RegisterNormalizer adds a named value normalizer for use in field
// configs. Registering an existing name replaces it.
func RegisterNormalizer(name string, fn func(string) string) {
	normalizers[name] = fn
}

func hasNormalizer(name string) bool {
	_, ok := normalizers[name]
	return ok
}

// lookupNormalizer returns the registered normalizer, or nil for "" and
// unknown names.
func lookupNormalizer(name string) func(string) string {
	if name == "" {
		return nil
	}
	return normalizers[name]
}

// NormalizeGender collapses the common vendor spellings of gender labels.
// Unrecognized values pass through unchanged so novel labels stay visible
// in the distributions.
func NormalizeGender(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "male":
		return "Male"
	case "f", "female":
		return "Female"
	default:
		return value
	}
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
