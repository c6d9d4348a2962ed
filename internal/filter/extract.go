package filter

import (
	"fmt"
	"regexp"
)

// Pattern holds the literal token sequences that delimit a registration block.
// A block is Open, a single-quoted name followed by a comma, the shortest run
// of any text, then Close.
type Pattern struct {
	Open  string
	Close string
}

// DefaultPattern matches `    mcpServer.registerTool('name', ... \n    });`.
func DefaultPattern() Pattern {
	return Pattern{Open: DefaultOpen, Close: DefaultClose}
}

// Expression returns the regular expression source for the pattern.
func (p Pattern) Expression() string {
	return regexp.QuoteMeta(p.Open) + `'([^']+)',[\s\S]*?` + regexp.QuoteMeta(p.Close)
}

// Extractor finds registration blocks in a document. It is a textual scan,
// not a parse: a closing sequence inside a string literal ends the block.
type Extractor struct {
	re *regexp.Regexp
}

// NewExtractor compiles the pattern.
func NewExtractor(p Pattern) (*Extractor, error) {
	if p.Open == "" || p.Close == "" {
		return nil, fmt.Errorf("pattern requires non-empty open and close tokens")
	}
	re, err := regexp.Compile(p.Expression())
	if err != nil {
		return nil, fmt.Errorf("failed to compile block pattern: %w", err)
	}
	return &Extractor{re: re}, nil
}

// Extract returns all non-overlapping blocks, left to right, in source order.
// A document with no matches yields an empty slice.
func (e *Extractor) Extract(doc string) []Block {
	locs := e.re.FindAllStringSubmatchIndex(doc, -1)
	blocks := make([]Block, 0, len(locs))
	for _, loc := range locs {
		blocks = append(blocks, Block{
			Name:  doc[loc[2]:loc[3]],
			Text:  doc[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return blocks
}
