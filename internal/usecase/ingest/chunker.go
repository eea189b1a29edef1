package ingest

import (
	"regexp"
	"strings"
)

var (
	sectionHeaders = []string{
		"FACTS", "FACT", "ISSUES", "ISSUE", "RULING", "DECISION",
		"DOCTRINE", "SYLLABUS", "DISPOSITION", "WHEREFORE", "BACKGROUND",
	}
	sectionRe = regexp.MustCompile(`(?im)^[ \t]*(` + strings.Join(sectionHeaders, "|") + `)[ \t]*:?[ \t]*$`)
)

// Chunk is one bounded slice of a decision's text, in final emission
// order.
type Chunk struct {
	SectionType *string
	Index       int
	Text        string
	TokenCount  int
}

// Chunker splits decision text at detected section headings, falling
// back to a token sliding window for oversized sections or when no
// headings are found.
type Chunker struct {
	tokenSize    int
	overlapRatio float64
}

func NewChunker(tokenSize int, overlapRatio float64) *Chunker {
	if tokenSize <= 0 {
		tokenSize = 800
	}
	if overlapRatio < 0 {
		overlapRatio = 0
	}
	if overlapRatio >= 1 {
		overlapRatio = 0.9
	}
	return &Chunker{tokenSize: tokenSize, overlapRatio: overlapRatio}
}

// Chunk emits chunks with indices 0..N-1, strictly increasing and
// gapless, regardless of which strategy produced each chunk.
func (c *Chunker) Chunk(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	emit := func(sectionType *string, chunkText string) {
		chunks = append(chunks, Chunk{
			SectionType: sectionType,
			Index:       len(chunks),
			Text:        chunkText,
			TokenCount:  TokenCount(chunkText),
		})
	}

	for _, seg := range segmentByHeadings(text) {
		tokens := TokenCount(seg.text)
		if tokens == 0 {
			continue
		}
		if float64(tokens) > float64(c.tokenSize)*1.5 {
			for _, window := range c.slidingWindows(seg.text) {
				emit(seg.sectionType, window)
			}
		} else {
			emit(seg.sectionType, seg.text)
		}
	}

	if len(chunks) == 0 {
		for _, window := range c.slidingWindows(text) {
			emit(nil, window)
		}
	}
	return chunks
}

type segment struct {
	sectionType *string
	text        string
}

// segmentByHeadings splits on uppercase heading lines (FACTS, RULING,
// ...). Text before the first heading stays unclassified.
func segmentByHeadings(text string) []segment {
	matches := sectionRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []segment{{sectionType: nil, text: text}}
	}

	var segments []segment
	if prefix := strings.TrimSpace(text[:matches[0][0]]); prefix != "" {
		segments = append(segments, segment{sectionType: nil, text: prefix})
	}
	for i, match := range matches {
		header := strings.ToLower(text[match[2]:match[3]])
		start := match[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[start:end])
		if body != "" {
			segments = append(segments, segment{sectionType: &header, text: body})
		}
	}
	if len(segments) == 0 {
		return []segment{{sectionType: nil, text: text}}
	}
	return segments
}

// slidingWindows cuts token windows of the configured width, advancing
// by width*(1-overlap). The trailing remainder is truncated, never
// padded; a remainder too short to stand alone merges into the previous
// window.
func (c *Chunker) slidingWindows(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.tokenSize {
		return []string{strings.Join(tokens, " ")}
	}

	stride := int(float64(c.tokenSize) * (1 - c.overlapRatio))
	if stride < 1 {
		stride = 1
	}
	minViable := c.tokenSize / 10
	if minViable < 1 {
		minViable = 1
	}

	type span struct{ start, end int }
	var spans []span
	for start := 0; start < len(tokens); start += stride {
		end := start + c.tokenSize
		if end > len(tokens) {
			end = len(tokens)
		}
		spans = append(spans, span{start, end})
		if end == len(tokens) {
			break
		}
	}

	// merge a runt final window into its predecessor
	if n := len(spans); n > 1 && spans[n-1].end-spans[n-1].start < minViable {
		spans[n-2].end = spans[n-1].end
		spans = spans[:n-1]
	}

	windows := make([]string, len(spans))
	for i, s := range spans {
		windows[i] = strings.Join(tokens[s.start:s.end], " ")
	}
	return windows
}

// TokenCount approximates tokens by whitespace splitting, matching the
// budget the chunk windows are measured in.
func TokenCount(text string) int {
	return len(strings.Fields(text))
}
