package treesitter

import (
	"context"
	"math"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/kobzarvs/htext/internal/config"
	"github.com/kobzarvs/htext/internal/logger"
)

// Engine keeps one syntax tree per open path and answers highlight queries
// for line ranges of it.
type Engine struct {
	langs   config.Languages
	parsers map[string]*sitter.Parser
	queries map[string]*sitter.Query
	trees   map[string]*sitter.Tree
	sources map[string][]byte
	mu      sync.RWMutex
}

// HighlightSpan colours the byte columns [StartCol, EndCol) of one line.
type HighlightSpan struct {
	StartCol int
	EndCol   int
	Kind     string
}

func New(langs config.Languages) *Engine {
	return &Engine{
		langs:   langs,
		parsers: make(map[string]*sitter.Parser),
		queries: make(map[string]*sitter.Query),
		trees:   make(map[string]*sitter.Tree),
		sources: make(map[string][]byte),
	}
}

// Start compiles the highlight query of every bundled grammar. A grammar
// whose query fails to compile is parsed but never highlighted.
func (e *Engine) Start() error {
	for _, l := range []struct {
		name  string
		query string
	}{
		{"go", goHighlightQuery},
		{"yaml", yamlHighlightQuery},
		{"toml", tomlHighlightQuery},
		{"bash", bashHighlightQuery},
	} {
		lang := tsLanguageForName(l.name)
		p := sitter.NewParser()
		p.SetLanguage(lang)
		e.parsers[l.name] = p

		query, err := sitter.NewQuery([]byte(l.query), lang)
		if err != nil {
			logger.Warn("highlight query rejected", "language", l.name, "error", err)
			continue
		}
		e.queries[l.name] = query
	}
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for path, tree := range e.trees {
		tree.Close()
		delete(e.trees, path)
	}
	for _, q := range e.queries {
		q.Close()
	}
	for _, p := range e.parsers {
		p.Close()
	}
	e.queries = make(map[string]*sitter.Query)
	e.parsers = make(map[string]*sitter.Parser)
	e.sources = make(map[string][]byte)
	return nil
}

// Language returns the configured language name for path, or "".
func (e *Engine) Language(path string) string {
	if lang := e.langs.Match(path); lang != nil && tsLanguageForName(lang.Name) != nil {
		return lang.Name
	}
	return ""
}

// ParseSync parses text as the contents of path. It reports false when no
// bundled grammar handles path.
func (e *Engine) ParseSync(path, text string) bool {
	name := e.Language(path)
	if name == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	parser := e.parsers[name]
	if parser == nil {
		parser = sitter.NewParser()
		parser.SetLanguage(tsLanguageForName(name))
		e.parsers[name] = parser
	}
	source := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		logger.Warn("parse failed", "path", path, "error", err)
		return false
	}
	if old := e.trees[path]; old != nil {
		old.Close()
	}
	e.trees[path] = tree
	e.sources[path] = source
	return true
}

// Forget drops the tree kept for path.
func (e *Engine) Forget(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tree := e.trees[path]; tree != nil {
		tree.Close()
	}
	delete(e.trees, path)
	delete(e.sources, path)
}

// Highlights returns spans keyed by line for lines startLine..endLine
// inclusive, or nil when path has no parsed tree.
func (e *Engine) Highlights(path string, startLine, endLine int) map[int][]HighlightSpan {
	if startLine < 0 || endLine < startLine {
		return nil
	}
	name := e.Language(path)
	if name == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	query := e.queries[name]
	tree := e.trees[path]
	if query == nil || tree == nil {
		return nil
	}
	return queryHighlights(query, tree, e.sources[path], startLine, endLine)
}

func queryHighlights(query *sitter.Query, tree *sitter.Tree, source []byte, startLine, endLine int) map[int][]HighlightSpan {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(
		sitter.Point{Row: uint32(startLine), Column: 0},
		sitter.Point{Row: uint32(endLine + 1), Column: 0},
	)
	cursor.Exec(query, tree.RootNode())

	out := make(map[int][]HighlightSpan)
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		if source != nil {
			match = cursor.FilterPredicates(match, source)
			if match == nil {
				continue
			}
		}
		for _, capture := range match.Captures {
			kind := query.CaptureNameForId(capture.Index)
			start := capture.Node.StartPoint()
			end := capture.Node.EndPoint()
			startRow := int(start.Row)
			endRow := int(end.Row)
			for row := max(startRow, startLine); row <= min(endRow, endLine); row++ {
				startCol := 0
				endCol := int(math.MaxInt32)
				if row == startRow {
					startCol = int(start.Column)
				}
				if row == endRow {
					endCol = int(end.Column)
				}
				out[row] = append(out[row], HighlightSpan{
					StartCol: startCol,
					EndCol:   endCol,
					Kind:     kind,
				})
			}
		}
	}
	return out
}

func tsLanguageForName(name string) *sitter.Language {
	switch name {
	case "go":
		return golang.GetLanguage()
	case "yaml":
		return yaml.GetLanguage()
	case "toml":
		return toml.GetLanguage()
	case "bash":
		return bash.GetLanguage()
	default:
		return nil
	}
}

const goHighlightQuery = `
((comment) @comment)
((interpreted_string_literal) @string)
((raw_string_literal) @string)
((rune_literal) @string)
((escape_sequence) @string)
((int_literal) @number)
((float_literal) @number)
((imaginary_literal) @number)
[
  "break" "case" "chan" "const" "continue" "default" "defer" "else"
  "fallthrough" "for" "func" "go" "goto" "if" "import" "interface"
  "map" "package" "range" "return" "select" "struct" "switch"
  "type" "var"
] @keyword
((nil) @constant)
((true) @constant)
((false) @constant)
((iota) @constant)
((identifier) @type (#match? @type "^(bool|byte|rune|string|int|int8|int16|int32|int64|uint|uint8|uint16|uint32|uint64|uintptr|float32|float64|complex64|complex128|error|any|comparable)$"))
((identifier) @builtin (#match? @builtin "^(append|cap|clear|close|complex|copy|delete|imag|len|make|max|min|new|panic|print|println|real|recover)$"))
((const_spec name: (identifier) @constant))
((type_spec name: (type_identifier) @type))
((type_identifier) @type)
((package_identifier) @type)
((type_parameter_declaration (identifier) @type))
((function_declaration name: (identifier) @function))
((method_declaration name: (field_identifier) @function))
((method_elem (field_identifier) @function))
((call_expression function: (identifier) @function))
((call_expression function: (selector_expression field: (field_identifier) @function)))
((selector_expression field: (field_identifier) @field))
((field_identifier) @field)
((parameter_declaration (identifier) @parameter))
((variadic_parameter_declaration (identifier) @parameter))
((label_name) @keyword)
((blank_identifier) @variable)
((identifier) @variable)
[
  "+" "-" "*" "/" "%" "==" "!=" "<=" ">=" "<" ">" "=" ":=" "&&" "||"
  "!" "&" "|" "^" "<<" ">>" "&^" "+=" "-=" "*=" "/=" "%=" "&=" "|="
  "^=" "<<=" ">>=" "&^=" "<-" "++" "--" "..."
] @operator
[
  "." "," ";" ":" "(" ")" "[" "]" "{" "}"
] @punctuation
`

const yamlHighlightQuery = `
((comment) @comment)
((string_scalar) @string)
((double_quote_scalar) @string)
((single_quote_scalar) @string)
((integer_scalar) @number)
((float_scalar) @number)
((null_scalar) @constant)
((boolean_scalar) @constant)
((block_mapping_pair key: (_) @field))
((flow_pair key: (_) @field))
((anchor_name) @keyword)
((alias_name) @keyword)
((tag) @type)
["," ":" "-" "[" "]" "{" "}" ">" "|" "*" "&"] @punctuation
`

const tomlHighlightQuery = `
((comment) @comment)
((string) @string)
((integer) @number)
((float) @number)
((boolean) @constant)
((local_date) @string)
((local_time) @string)
((local_date_time) @string)
((offset_date_time) @string)
((bare_key) @field)
((quoted_key) @field)
((table (bare_key) @type))
((table (quoted_key) @type))
((table (dotted_key) @type))
((table_array_element (bare_key) @type))
((table_array_element (quoted_key) @type))
((table_array_element (dotted_key) @type))
["=" "." "," "[" "]" "[[" "]]" "{" "}"] @punctuation
`

const bashHighlightQuery = `
((comment) @comment)
((string) @string)
((raw_string) @string)
((heredoc_body) @string)
((number) @number)
((variable_name) @variable)
((special_variable_name) @variable)
((command_name) @function)
((function_definition name: (word) @function))
[
  "if" "then" "else" "elif" "fi" "case" "esac" "for" "while" "until"
  "do" "done" "in" "function" "select" "return" "exit" "break" "continue"
  "local" "export" "readonly" "declare" "typeset" "unset"
] @keyword
["$" "${" "}" "(" ")" "((" "))" "[" "]" "[[" "]]" "{" "}" ";" ";;" "&&" "||" "|" "&" "<" ">" ">>" "<<" "<<<"] @operator
`
