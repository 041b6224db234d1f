package docs

import "github.com/memdocs-io/memdocs/domain/review"

// SymbolEntry attributes one extracted symbol to its source file, as
// written in symbols.yaml.
type SymbolEntry struct {
	file   string
	symbol review.Symbol
}

// NewSymbolEntry creates a SymbolEntry.
func NewSymbolEntry(file string, symbol review.Symbol) SymbolEntry {
	return SymbolEntry{file: file, symbol: symbol}
}

// File returns the source file path.
func (s SymbolEntry) File() string { return s.file }

// Symbol returns the extracted symbol.
func (s SymbolEntry) Symbol() review.Symbol { return s.symbol }

// SymbolsFromContext flattens an extracted context into symbol entries.
func SymbolsFromContext(extracted review.ExtractedContext) []SymbolEntry {
	var entries []SymbolEntry
	for _, fc := range extracted.Files() {
		for _, sym := range fc.Symbols() {
			entries = append(entries, NewSymbolEntry(fc.Path(), sym))
		}
	}
	return entries
}
