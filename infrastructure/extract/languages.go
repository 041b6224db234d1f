package extract

import (
	"regexp"
	"strings"
)

// codeExtensions lists the file extensions extraction considers source code
// when expanding directories.
var codeExtensions = map[string]bool{
	".py":   true,
	".ts":   true,
	".tsx":  true,
	".js":   true,
	".jsx":  true,
	".go":   true,
	".rs":   true,
	".java": true,
	".c":    true,
	".cpp":  true,
	".h":    true,
	".hpp":  true,
}

var languageByExtension = map[string]string{
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".go":   "go",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
}

// detectLanguage maps a file extension to a language name, "unknown" when
// unrecognized.
func detectLanguage(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "unknown"
	}
	if lang, ok := languageByExtension[strings.ToLower(path[i:])]; ok {
		return lang
	}
	return "unknown"
}

// symbolPattern is one row of a per-language line regex table. The first
// capture group is the symbol name.
type symbolPattern struct {
	kind string
	re   *regexp.Regexp
}

var symbolTables = map[string][]symbolPattern{
	"python": {
		{kind: "function", re: regexp.MustCompile(`^\s*def\s+(\w+)\s*\(`)},
		{kind: "class", re: regexp.MustCompile(`^\s*class\s+(\w+)`)},
	},
	"typescript": {
		{kind: "function", re: regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:function|const)\s+(\w+)`)},
		{kind: "class", re: regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`)},
		{kind: "interface", re: regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`)},
	},
	"go": {
		{kind: "function", re: regexp.MustCompile(`^func\s+(?:\([^)]+\)\s+)?(\w+)`)},
		{kind: "type", re: regexp.MustCompile(`^type\s+(\w+)`)},
	},
}

func init() {
	// JavaScript shares the TypeScript table.
	symbolTables["javascript"] = symbolTables["typescript"]
}

var importTables = map[string][]*regexp.Regexp{
	"python": {
		regexp.MustCompile(`^(?:from|import)\s+([\w.]+)`),
	},
	"typescript": {
		regexp.MustCompile(`^import\s+.*?from\s+['"](.+?)['"]`),
	},
	"go": {
		regexp.MustCompile(`^import\s+(?:\w+\s+)?"(.+)"`),
	},
}

// extractImports returns the distinct import targets found in content, in
// first-seen order.
func extractImports(content, language string) []string {
	if language == "javascript" {
		language = "typescript"
	}
	patterns, ok := importTables[language]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var imports []string
	add := func(target string) {
		if target != "" && !seen[target] {
			seen[target] = true
			imports = append(imports, target)
		}
	}

	inGoBlock := false
	for _, line := range strings.Split(content, "\n") {
		if language == "go" {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "import ("):
				inGoBlock = true
				continue
			case inGoBlock && trimmed == ")":
				inGoBlock = false
				continue
			case inGoBlock:
				if m := goBlockImport.FindStringSubmatch(trimmed); m != nil {
					add(m[1])
				}
				continue
			}
		}
		for _, re := range patterns {
			if m := re.FindStringSubmatch(line); m != nil {
				add(m[1])
			}
		}
	}

	return imports
}

var goBlockImport = regexp.MustCompile(`^(?:\w+\s+)?"(.+)"$`)
