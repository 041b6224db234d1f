package review

// Symbol is a named declaration found in a source file.
type Symbol struct {
	name      string
	kind      string
	line      int
	signature string
}

// NewSymbol creates a Symbol. Line numbers are 1-based.
func NewSymbol(name, kind string, line int, signature string) Symbol {
	if line < 1 {
		line = 1
	}
	return Symbol{
		name:      name,
		kind:      kind,
		line:      line,
		signature: signature,
	}
}

// Name returns the symbol name.
func (s Symbol) Name() string { return s.name }

// Kind returns the declaration kind (function, class, type, ...).
func (s Symbol) Kind() string { return s.kind }

// Line returns the 1-based line number of the declaration.
func (s Symbol) Line() int { return s.line }

// Signature returns the declaration line as written in the source.
func (s Symbol) Signature() string { return s.signature }

// FileContext is the extracted view of a single source file.
type FileContext struct {
	path     string
	language string
	lines    int
	symbols  []Symbol
	imports  []string
}

// NewFileContext creates a FileContext.
func NewFileContext(path, language string, lines int, symbols []Symbol, imports []string) FileContext {
	syms := make([]Symbol, len(symbols))
	copy(syms, symbols)
	imps := make([]string, len(imports))
	copy(imps, imports)

	return FileContext{
		path:     path,
		language: language,
		lines:    lines,
		symbols:  syms,
		imports:  imps,
	}
}

// Path returns the file path relative to the repository root.
func (f FileContext) Path() string { return f.path }

// Language returns the detected language name.
func (f FileContext) Language() string { return f.language }

// Lines returns the number of non-blank lines.
func (f FileContext) Lines() int { return f.lines }

// Symbols returns the declarations found in the file.
func (f FileContext) Symbols() []Symbol {
	syms := make([]Symbol, len(f.symbols))
	copy(syms, f.symbols)
	return syms
}

// Imports returns the import targets found in the file.
func (f FileContext) Imports() []string {
	imps := make([]string, len(f.imports))
	copy(imps, f.imports)
	return imps
}

// ExtractedContext is everything extraction learned about the change:
// the head diff, per-file context, and the paths that were requested.
type ExtractedContext struct {
	diff  GitDiff
	files []FileContext
	scope []string
}

// NewExtractedContext creates an ExtractedContext.
func NewExtractedContext(diff GitDiff, files []FileContext, scope []string) ExtractedContext {
	fcs := make([]FileContext, len(files))
	copy(fcs, files)
	paths := make([]string, len(scope))
	copy(paths, scope)

	return ExtractedContext{
		diff:  diff,
		files: fcs,
		scope: paths,
	}
}

// Diff returns the head commit diff.
func (e ExtractedContext) Diff() GitDiff { return e.diff }

// Files returns the per-file contexts.
func (e ExtractedContext) Files() []FileContext {
	fcs := make([]FileContext, len(e.files))
	copy(fcs, e.files)
	return fcs
}

// ScopePaths returns the paths the caller asked to review.
func (e ExtractedContext) ScopePaths() []string {
	paths := make([]string, len(e.scope))
	copy(paths, e.scope)
	return paths
}

// FilePaths returns the path of every extracted file, in extraction order.
func (e ExtractedContext) FilePaths() []string {
	paths := make([]string, 0, len(e.files))
	for _, f := range e.files {
		paths = append(paths, f.path)
	}
	return paths
}
