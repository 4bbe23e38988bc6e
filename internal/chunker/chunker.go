// Package chunker splits document text into overlapping, position-tracked
// chunks sized for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"
)

const (
	// DefaultMaxSize is the default chunk size in characters.
	DefaultMaxSize = 1000

	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 200

	// separatorLen is the length of the paragraph separator re-inserted
	// between buffered paragraphs.
	separatorLen = 2
)

// Config holds chunking parameters.
type Config struct {
	// MaxSize is the chunk size cap in characters. Must be positive.
	MaxSize int

	// Overlap is how many trailing characters of a flushed chunk seed the
	// next one. Must satisfy 0 <= Overlap < MaxSize.
	Overlap int
}

// DefaultConfig returns the standard chunking parameters.
func DefaultConfig() Config {
	return Config{MaxSize: DefaultMaxSize, Overlap: DefaultOverlap}
}

// Options carries per-call positioning state so one document's pages can be
// chunked in successive calls with globally increasing indices.
type Options struct {
	// PageNumber is the 1-based page the text belongs to, nil for
	// non-paginated input.
	PageNumber *int

	// ParagraphNumber overrides the tracked paragraph index when set.
	ParagraphNumber *int

	// BaseOffset is the caller-supplied base added to every character
	// offset (the page's start within the whole document, or 0 for
	// page-relative offsets).
	BaseOffset int

	// StartIndex is the chunk index of the first emitted chunk.
	StartIndex int
}

// Chunk is one emitted slice of text with its provenance. CharStart and
// CharEnd are half-open offsets in the coordinate system established by
// Options.BaseOffset; CharEnd-CharStart is the pre-trim buffer length, so
// Content is never longer than the span.
type Chunk struct {
	Content         string
	Index           int
	PageNumber      *int
	ParagraphNumber *int
	CharStart       int
	CharEnd         int
}

// Chunker splits text into overlapping chunks along paragraph and sentence
// boundaries.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a Chunker, validating the configuration.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("chunker: max size must be positive, got %d", cfg.MaxSize)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxSize {
		return nil, fmt.Errorf("chunker: overlap must be in [0, %d), got %d", cfg.MaxSize, cfg.Overlap)
	}
	return &Chunker{maxSize: cfg.MaxSize, overlap: cfg.Overlap}, nil
}

// Chunk splits text into ordered chunks. Empty or whitespace-only text
// yields no chunks. The same input and options always produce identical
// output.
func (c *Chunker) Chunk(text string, opts Options) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var chunks []Chunk
	buffer := ""
	bufferStart := opts.BaseOffset
	index := opts.StartIndex

	paraNum := func(idx int) *int {
		if opts.ParagraphNumber != nil {
			return opts.ParagraphNumber
		}
		n := idx
		return &n
	}

	for paraIdx, paragraph := range paragraphs {
		switch {
		case len(paragraph) > c.maxSize:
			// An oversized paragraph cannot be flushed as one unit:
			// flush the pending buffer, then window the paragraph.
			windowBase := bufferStart
			if buffer != "" {
				chunks = append(chunks, Chunk{
					Content:         strings.TrimSpace(buffer),
					Index:           index,
					PageNumber:      opts.PageNumber,
					ParagraphNumber: paraNum(paraIdx),
					CharStart:       bufferStart,
					CharEnd:         bufferStart + len(buffer),
				})
				index++
				windowBase = chunks[len(chunks)-1].CharEnd - c.overlap
			}

			windows := c.splitWindows(paragraph, index, opts.PageNumber, paraNum(paraIdx), windowBase)
			chunks = append(chunks, windows...)
			index += len(windows)

			if len(windows) > 0 {
				last := windows[len(windows)-1]
				buffer = c.overlapTail(last.Content)
				bufferStart = last.CharEnd - len(buffer)
			} else {
				buffer = ""
				bufferStart = windowBase
			}

		case buffer != "" && len(buffer)+len(paragraph)+separatorLen > c.maxSize:
			chunks = append(chunks, Chunk{
				Content:         strings.TrimSpace(buffer),
				Index:           index,
				PageNumber:      opts.PageNumber,
				ParagraphNumber: paraNum(paraIdx),
				CharStart:       bufferStart,
				CharEnd:         bufferStart + len(buffer),
			})
			index++

			tail := c.overlapTail(buffer)
			bufferStart = chunks[len(chunks)-1].CharEnd - len(tail)
			if tail != "" {
				buffer = tail + "\n\n" + paragraph
			} else {
				buffer = paragraph
			}

		default:
			if buffer != "" {
				buffer += "\n\n" + paragraph
			} else {
				buffer = paragraph
				bufferStart = opts.BaseOffset
				if len(chunks) > 0 {
					bufferStart = chunks[len(chunks)-1].CharEnd
				}
			}
		}
	}

	if strings.TrimSpace(buffer) != "" {
		chunks = append(chunks, Chunk{
			Content:         strings.TrimSpace(buffer),
			Index:           index,
			PageNumber:      opts.PageNumber,
			ParagraphNumber: paraNum(len(paragraphs) - 1),
			CharStart:       bufferStart,
			CharEnd:         bufferStart + len(buffer),
		})
	}

	return chunks
}

// overlapTail extracts the overlap seed from the end of flushed text. The
// result is always a literal suffix of the text: the search snaps to the last
// sentence-terminating period or newline when one sits past the tail's
// midpoint, avoiding a mid-sentence overlap.
func (c *Chunker) overlapTail(text string) string {
	if len(text) <= c.overlap {
		return text
	}
	tail := text[len(text)-c.overlap:]
	lastPeriod := strings.LastIndex(tail, ".")
	lastNewline := strings.LastIndex(tail, "\n")
	splitPos := lastPeriod
	if lastNewline > splitPos {
		splitPos = lastNewline
	}
	if splitPos > c.overlap/2 {
		return strings.TrimSpace(tail[splitPos+1:])
	}
	return strings.TrimSpace(tail)
}

// splitWindows cuts an oversized paragraph into fixed-size windows with
// overlap. Windows that do not reach the paragraph end prefer a period or
// newline within their final 20%, keeping sentence boundaries intact.
func (c *Chunker) splitWindows(text string, startIndex int, pageNumber, paragraphNumber *int, base int) []Chunk {
	var chunks []Chunk
	textLen := len(text)
	pos := 0
	index := startIndex

	for pos < textLen {
		end := pos + c.maxSize
		if end > textLen {
			end = textLen
		}

		if end < textLen {
			searchStart := int(float64(end) - float64(c.maxSize)*0.2)
			splitPos := -1
			if p := strings.LastIndex(text[searchStart:end], "."); p >= 0 {
				splitPos = searchStart + p
			}
			if n := strings.LastIndex(text[searchStart:end], "\n"); n >= 0 && searchStart+n > splitPos {
				splitPos = searchStart + n
			}
			if splitPos > searchStart {
				end = splitPos + 1
			}
		}

		if content := strings.TrimSpace(text[pos:end]); content != "" {
			chunks = append(chunks, Chunk{
				Content:         content,
				Index:           index,
				PageNumber:      pageNumber,
				ParagraphNumber: paragraphNumber,
				CharStart:       base + pos,
				CharEnd:         base + end,
			})
			index++
		}

		if end < textLen {
			next := end - c.overlap
			if next <= pos {
				next = end
			}
			pos = next
		} else {
			pos = end
		}
	}

	return chunks
}
