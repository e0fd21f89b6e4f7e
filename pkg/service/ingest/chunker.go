package ingest

// Chunking defaults, sized for embedding-model context efficiency
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// splitText slices text into fixed-size windows of size runes, each
// overlapping the previous by overlap runes. Blank input yields no
// chunks. Invalid parameters fall back to the defaults.
func splitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
