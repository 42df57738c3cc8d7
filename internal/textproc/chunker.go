// Package textproc holds the pure text transforms of the ingestion
// pipeline: overlapping chunking and content cleaning.
package textproc

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// Chunk splits text into overlapping segments of up to size runes, with
// overlap runes shared between consecutive segments. The final segment
// may be shorter than size; trailing content is never dropped. The split
// is deterministic: the same text always yields the same segments.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
