// Package chunk segments normalized document text into bounded,
// overlapping slices and assigns them stable identifiers.
package chunk

import (
	"strings"
)

// DefaultSeparators is the priority order tried during recursive
// splitting. The trailing empty string is the character-level fallback
// that guarantees termination.
var DefaultSeparators = []string{"\n\n", "\n", ". ", ", ", " ", ""}

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// Splitter performs recursive character splitting: text is split on the
// highest-priority separator present, oversized pieces are re-split with
// the remaining separators, and accepted pieces are merged greedily into
// chunks of at most ChunkSize characters with an Overlap-character tail
// carried into the next chunk.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter builds a Splitter. Non-positive size/overlap select the
// defaults; an empty separator list selects DefaultSeparators.
func NewSplitter(chunkSize, overlap int, separators []string) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, separators: separators}
}

// Split segments text into ordered chunks. Empty or whitespace-only
// input yields zero chunks, and no emitted chunk is whitespace-only.
// Every chunk is at most chunkSize+overlap characters unless a single
// atomic piece (after the character-level fallback) itself exceeds that
// bound, which cannot happen when the separator list ends with "".
// Splitting is deterministic: identical input and configuration produce
// byte-identical chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return foldWhitespace(s.split(text, s.separators))
}

// foldWhitespace reattaches whitespace-only chunks to a neighbor.
// Re-splitting an oversized piece leaves its trailing separator as a
// lone piece, which would otherwise be emitted as a chunk of its own.
// Folding keeps the zero-overlap concatenation of chunks equal to the
// input.
func foldWhitespace(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	carry := ""
	for _, c := range chunks {
		if strings.TrimSpace(c) == "" {
			if len(out) > 0 {
				out[len(out)-1] += c
			} else {
				carry += c
			}
			continue
		}
		out = append(out, carry+c)
		carry = ""
	}
	return out
}

// split recurses over the separator hierarchy. Depth is bounded by the
// number of separators.
func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			rest = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	pieces := splitKeep(text, sep)

	var final []string
	var good []string
	for _, p := range pieces {
		if len(p) <= s.chunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			// Atomic oversize unit: nothing left to split on.
			final = append(final, p)
		} else {
			final = append(final, s.split(p, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// splitKeep splits text on sep, keeping the separator attached to the
// end of the preceding piece so that concatenating pieces reconstructs
// the input exactly. The empty separator splits into single runes.
func splitKeep(text, sep string) []string {
	if sep == "" {
		runes := []rune(text)
		pieces := make([]string, len(runes))
		for i, r := range runes {
			pieces[i] = string(r)
		}
		return pieces
	}
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p == "" {
			continue
		}
		pieces = append(pieces, p)
	}
	return pieces
}

// merge greedily packs pieces into chunks of at most chunkSize
// characters, carrying up to overlap trailing characters of each chunk
// into the next. The overlap is genuinely repeated content drawn from
// the original text.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, p := range pieces {
		l := len(p)
		if total+l > s.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			for len(current) > 0 && (total > s.overlap || (total+l > s.chunkSize && total > 0)) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}
