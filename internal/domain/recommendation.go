package domain

// PreviewLength bounds the description preview returned with a recommendation.
const PreviewLength = 100

// Recommendation is one ranked neighbor of a queried product. Ephemeral,
// produced per request; metadata is re-read from the catalog at query time
// rather than trusted from the index.
type Recommendation struct {
	ProductID          int64
	Name               string
	Category           Category
	Price              float64
	Rating             float64
	Platform           string
	Similarity         float64 // [0,1], higher = more alike
	DescriptionPreview string
}

// Preview truncates a description to PreviewLength runes with an ellipsis
// marker when truncated.
func Preview(description string) string {
	runes := []rune(description)
	if len(runes) <= PreviewLength {
		return description
	}
	return string(runes[:PreviewLength]) + "..."
}
