package crisis

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"github.com/mindconnect/chat-service/internal/domain"
)

// DefaultPhrases is the fixed crisis phrase list. Matching is exact
// substring, case-insensitive; the list is intentionally small and is
// known to both under- and over-trigger (quotes, lyrics).
var DefaultPhrases = []string{
	"suicide",
	"kill myself",
	"want to die",
	"end my life",
	"self harm",
	"hurt myself",
	"no reason to live",
	"better off dead",
	"suicide plan",
}

type Result struct {
	Flagged bool
	Kind    domain.MessageKind
}

// Gate classifies message text with zero I/O. It is safe for
// concurrent use; the automaton is read-only after construction.
type Gate struct {
	matcher *goahocorasick.Machine
}

func NewGate(phrases []string) (*Gate, error) {
	patterns := make([][]rune, 0, len(phrases))
	for _, p := range phrases {
		if p == "" {
			continue
		}
		patterns = append(patterns, lowerRunes(p))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Gate{matcher: m}, nil
}

func (g *Gate) Classify(text string) Result {
	if text == "" {
		return Result{Kind: domain.KindText}
	}

	terms := g.matcher.MultiPatternSearch(lowerRunes(text), true)
	if len(terms) == 0 {
		return Result{Kind: domain.KindText}
	}
	return Result{Flagged: true, Kind: domain.KindCrisis}
}

func lowerRunes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}
