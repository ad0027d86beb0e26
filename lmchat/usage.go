package lmchat

import (
	"log/slog"
	"unicode/utf8"
)

// Tokenizer counts the tokens of a piece of text. Implementations may call
// out to the server's tokenizer or a local model vocabulary; counting is a
// best-effort metric and failures never affect the stream itself.
type Tokenizer interface {
	CountTokens(text string) (int, error)
}

// heuristicTokenizer estimates roughly four characters per token, the usual
// ballpark for English text under BPE vocabularies.
type heuristicTokenizer struct{}

func (heuristicTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return (utf8.RuneCountInString(text) + 3) / 4, nil
}

// countTokens runs the tokenizer, degrading to zero on failure. side labels
// the log entry ("prompt" or "completion").
func countTokens(tok Tokenizer, text, side string, log *slog.Logger) int {
	n, err := tok.CountTokens(text)
	if err != nil {
		log.Warn("token count failed", "side", side, "err", err)
		return 0
	}
	return n
}
