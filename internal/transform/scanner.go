package transform

import (
	"encoding/json"
	"strings"
)

// scanner performs a single pass over one module's source, copying it to the
// output while rewriting the supported ESM subset to require/exports form.
// String literals, template literals and comments are copied atomically so
// their contents are never mistaken for syntax.
type scanner struct {
	path    string
	src     string
	pos     int
	out     strings.Builder
	footer  []string
	specs   []string
	defines map[string]string
	lastSig byte
}

func newScanner(path, src string, defines map[string]string) *scanner {
	return &scanner{path: path, src: src, defines: defines}
}

func (s *scanner) run() (*Result, error) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '/' && s.peekAt(1) == '/':
			s.copyLineComment()
		case c == '/' && s.peekAt(1) == '*':
			if err := s.copyBlockComment(); err != nil {
				return nil, err
			}
		case c == '\'' || c == '"':
			if _, err := s.copyString(); err != nil {
				return nil, err
			}
		case c == '`':
			if err := s.copyTemplate(); err != nil {
				return nil, err
			}
		case c == '/' && s.regexAllowed():
			if err := s.copyRegex(); err != nil {
				return nil, err
			}
		case isIdentStart(c):
			if err := s.copyWord(); err != nil {
				return nil, err
			}
		default:
			s.out.WriteByte(c)
			if !isSpace(c) {
				s.lastSig = c
			}
			s.pos++
		}
	}

	code := s.out.String()
	if len(s.footer) > 0 {
		if !strings.HasSuffix(code, "\n") {
			code += "\n"
		}
		code += strings.Join(s.footer, "\n") + "\n"
	}
	return &Result{Code: code, Specifiers: s.specs}, nil
}

// copyWord reads one identifier and dispatches on it. Member accesses
// (`obj.import`) are never treated as keywords.
func (s *scanner) copyWord() error {
	word := s.readIdent()
	memberAccess := s.lastSig == '.'
	s.lastSig = word[len(word)-1]

	switch {
	case !memberAccess && word == "import":
		return s.lowerImport()
	case !memberAccess && word == "export":
		return s.lowerExport()
	case !memberAccess && word == "require":
		s.out.WriteString(word)
		s.copyRequireCall()
		return nil
	default:
		if repl, ok := s.defines[word]; ok && !memberAccess {
			s.out.WriteString(repl)
			return nil
		}
		s.out.WriteString(word)
		return nil
	}
}

// copyRequireCall records the specifier of a literal require("...") call and
// re-emits the argument in canonical quoting. Non-literal arguments are left
// untouched and unrecorded.
func (s *scanner) copyRequireCall() {
	mark := s.pos
	ws1 := s.takeSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != '(' {
		s.pos = mark
		return
	}
	s.pos++
	ws2 := s.takeSpace()
	if s.pos >= len(s.src) || (s.src[s.pos] != '\'' && s.src[s.pos] != '"') {
		s.pos = mark
		return
	}
	value, err := s.readStringValue()
	if err != nil {
		// Let the main loop rediscover and report the malformed literal.
		s.pos = mark
		return
	}
	s.specs = append(s.specs, value)
	s.out.WriteString(ws1)
	s.out.WriteByte('(')
	s.out.WriteString(ws2)
	s.out.WriteString(quoteJS(value))
	s.lastSig = '"'
}

// lowerImport rewrites one import declaration into require form.
func (s *scanner) lowerImport() error {
	start := s.pos
	s.skipSpace()
	if s.pos >= len(s.src) {
		return s.errAt(start, "unexpected end of file in import declaration")
	}

	switch c := s.src[s.pos]; {
	case c == '\'' || c == '"':
		// Side-effect import.
		value, err := s.readStringValue()
		if err != nil {
			return err
		}
		s.specs = append(s.specs, value)
		s.out.WriteString("require(" + quoteJS(value) + ");")
		s.lastSig = ';'
		s.consumeSemicolon()
		return nil
	case c == '(':
		return s.errAt(start, "dynamic import is not supported")
	}

	var defaultName string
	var nsName string
	var named []identPair

	if isIdentStart(s.src[s.pos]) {
		defaultName = s.readIdent()
		s.skipSpace()
		if s.pos < len(s.src) && s.src[s.pos] == ',' {
			s.pos++
			s.skipSpace()
		}
	}
	if s.pos < len(s.src) && s.src[s.pos] == '*' {
		s.pos++
		s.skipSpace()
		if s.readIdent() != "as" {
			return s.errAt(s.pos, `expected "as" after * in import declaration`)
		}
		s.skipSpace()
		nsName = s.readIdent()
		if nsName == "" {
			return s.errAt(s.pos, "expected namespace name in import declaration")
		}
		s.skipSpace()
	} else if s.pos < len(s.src) && s.src[s.pos] == '{' {
		var err error
		named, err = s.readBraceList()
		if err != nil {
			return err
		}
		s.skipSpace()
	}

	if defaultName == "" && nsName == "" && named == nil {
		return s.errAt(start, "malformed import declaration")
	}
	if s.readIdent() != "from" {
		return s.errAt(s.pos, `expected "from" in import declaration`)
	}
	s.skipSpace()
	if s.pos >= len(s.src) || (s.src[s.pos] != '\'' && s.src[s.pos] != '"') {
		return s.errAt(s.pos, "expected string specifier in import declaration")
	}
	value, err := s.readStringValue()
	if err != nil {
		return err
	}
	s.specs = append(s.specs, value)
	req := "require(" + quoteJS(value) + ")"

	// One require call per declaration so the no-cache loader evaluates the
	// dependency once per import statement, not once per binding.
	var decls []string
	switch {
	case defaultName != "" && nsName != "":
		decls = append(decls, defaultName+" = "+req, nsName+" = "+defaultName)
	case defaultName != "" && named != nil:
		decls = append(decls, defaultName+" = "+req, destructure(named)+" = "+defaultName)
	case defaultName != "":
		decls = append(decls, defaultName+" = "+req)
	case nsName != "":
		decls = append(decls, nsName+" = "+req)
	default:
		decls = append(decls, destructure(named)+" = "+req)
	}
	s.out.WriteString("const " + strings.Join(decls, ", ") + ";")
	s.lastSig = ';'
	s.consumeSemicolon()
	return nil
}

// lowerExport rewrites one export declaration into exports assignments.
func (s *scanner) lowerExport() error {
	start := s.pos
	s.skipSpace()
	if s.pos >= len(s.src) {
		return s.errAt(start, "unexpected end of file in export declaration")
	}

	if s.src[s.pos] == '{' {
		pairs, err := s.readBraceList()
		if err != nil {
			return err
		}
		mark := s.pos
		s.skipSpace()
		if s.readIdent() == "from" {
			return s.errAt(start, "re-export is not supported")
		}
		s.pos = mark
		var assigns []string
		for _, p := range pairs {
			assigns = append(assigns, "exports."+p.alias+" = "+p.name+";")
		}
		s.out.WriteString(strings.Join(assigns, " "))
		s.lastSig = ';'
		s.consumeSemicolon()
		return nil
	}
	if s.src[s.pos] == '*' {
		return s.errAt(start, "export * is not supported")
	}

	word := s.readIdent()
	switch word {
	case "default":
		s.out.WriteString("module.exports =")
		s.lastSig = '='
		return nil
	case "const", "let", "var":
		s.out.WriteString(word + " ")
		s.skipSpace()
		name := s.readIdent()
		if name == "" {
			return s.errAt(s.pos, "expected name in export declaration")
		}
		s.out.WriteString(name)
		s.lastSig = name[len(name)-1]
		s.footer = append(s.footer, "exports."+name+" = "+name+";")
		return nil
	case "async":
		s.skipSpace()
		if s.readIdent() != "function" {
			return s.errAt(start, "unsupported export declaration")
		}
		word = "function"
		s.out.WriteString("async ")
		fallthrough
	case "function", "class":
		s.out.WriteString(word + " ")
		s.skipSpace()
		name := s.readIdent()
		if name == "" {
			return s.errAt(s.pos, "expected name in export declaration")
		}
		s.out.WriteString(name)
		s.lastSig = name[len(name)-1]
		s.footer = append(s.footer, "exports."+name+" = "+name+";")
		return nil
	default:
		return s.errAt(start, "unsupported export declaration")
	}
}

// identPair is one entry of an import/export brace list: `name` or
// `name as alias`.
type identPair struct {
	name  string
	alias string
}

// readBraceList parses `{ a, b as c }` starting at the opening brace.
func (s *scanner) readBraceList() ([]identPair, error) {
	start := s.pos
	s.pos++ // '{'
	pairs := []identPair{}
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return nil, s.errAt(start, "unterminated brace list")
		}
		if s.src[s.pos] == '}' {
			s.pos++
			return pairs, nil
		}
		name := s.readIdent()
		if name == "" {
			return nil, s.errAt(s.pos, "malformed brace list")
		}
		alias := name
		s.skipSpace()
		if isIdentStart(s.peek()) {
			if s.readIdent() != "as" {
				return nil, s.errAt(s.pos, "malformed brace list")
			}
			s.skipSpace()
			alias = s.readIdent()
			if alias == "" {
				return nil, s.errAt(s.pos, "malformed brace list")
			}
			s.skipSpace()
		}
		pairs = append(pairs, identPair{name: name, alias: alias})
		if s.pos < len(s.src) && s.src[s.pos] == ',' {
			s.pos++
		}
	}
}

// destructure renders a brace list as a destructuring pattern.
func destructure(pairs []identPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.alias == p.name {
			parts = append(parts, p.name)
		} else {
			parts = append(parts, p.name+": "+p.alias)
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// regexAllowed reports whether a '/' at the current position starts a regex
// literal rather than division. A regex can only follow an operator or
// opening punctuation; after a value (identifier, number, closing bracket,
// quote) a '/' divides. A keyword like `return` is indistinguishable from an
// identifier here, so a regex right after one is copied byte by byte as if it
// were division, which only matters when it contains a quote or backtick.
func (s *scanner) regexAllowed() bool {
	switch s.lastSig {
	case 0, '=', '(', ',', ':', '[', '!', '&', '|', '?', '{', '}', ';', '+', '-', '*', '%', '<', '>', '~', '^':
		return true
	}
	return false
}

// copyRegex copies a regex literal verbatim so quotes and backticks inside
// it never open a string. A '/' inside a character class does not end the
// literal.
func (s *scanner) copyRegex() error {
	start := s.pos
	s.out.WriteByte('/')
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			if s.pos+1 >= len(s.src) {
				return s.errAt(start, "unterminated regular expression")
			}
			s.out.WriteString(s.src[s.pos : s.pos+2])
			s.pos += 2
			continue
		case c == '\n':
			return s.errAt(start, "unterminated regular expression")
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			s.out.WriteByte('/')
			s.pos++
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.out.WriteByte(s.src[s.pos])
				s.pos++
			}
			s.lastSig = '/'
			return nil
		}
		s.out.WriteByte(c)
		s.pos++
	}
	return s.errAt(start, "unterminated regular expression")
}

func (s *scanner) copyLineComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.out.WriteByte(s.src[s.pos])
		s.pos++
	}
}

func (s *scanner) copyBlockComment() error {
	start := s.pos
	s.out.WriteString("/*")
	s.pos += 2
	for s.pos+1 < len(s.src) {
		if s.src[s.pos] == '*' && s.src[s.pos+1] == '/' {
			s.out.WriteString("*/")
			s.pos += 2
			return nil
		}
		s.out.WriteByte(s.src[s.pos])
		s.pos++
	}
	return s.errAt(start, "unterminated block comment")
}

// copyString copies a quoted literal verbatim and returns its decoded value.
func (s *scanner) copyString() (string, error) {
	start := s.pos
	value, err := s.readStringValue()
	if err != nil {
		return "", err
	}
	s.out.WriteString(s.src[start:s.pos])
	s.lastSig = s.src[s.pos-1]
	return value, nil
}

// readStringValue consumes a quoted literal and returns its decoded value
// without writing anything to the output.
func (s *scanner) readStringValue() (string, error) {
	start := s.pos
	quote := s.src[s.pos]
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case quote:
			s.pos++
			return b.String(), nil
		case '\\':
			s.pos++
			if s.pos >= len(s.src) {
				return "", s.errAt(start, "unterminated string literal")
			}
			b.WriteString(decodeEscape(s.src[s.pos]))
			s.pos++
		case '\n':
			return "", s.errAt(start, "unterminated string literal")
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return "", s.errAt(start, "unterminated string literal")
}

// decodeEscape resolves a single-character escape the way a JS engine would.
// Hex and unicode escapes are not supported in specifiers.
func decodeEscape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	default:
		return string(c)
	}
}

// copyTemplate copies a template literal verbatim, tracking ${} nesting so
// braces inside interpolations do not end the literal early.
func (s *scanner) copyTemplate() error {
	start := s.pos
	s.out.WriteByte('`')
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			if s.pos+1 < len(s.src) {
				s.out.WriteString(s.src[s.pos : s.pos+2])
				s.pos += 2
				continue
			}
			return s.errAt(start, "unterminated template literal")
		case c == '`':
			s.out.WriteByte('`')
			s.pos++
			s.lastSig = '`'
			return nil
		case c == '$' && s.peekAt(1) == '{':
			if err := s.copyInterpolation(start); err != nil {
				return err
			}
		default:
			s.out.WriteByte(c)
			s.pos++
		}
	}
	return s.errAt(start, "unterminated template literal")
}

func (s *scanner) copyInterpolation(start int) error {
	s.out.WriteString("${")
	s.pos += 2
	depth := 1
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '\'', '"':
			if _, err := s.copyString(); err != nil {
				return err
			}
			continue
		case '`':
			if err := s.copyTemplate(); err != nil {
				return err
			}
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s.out.WriteByte('}')
				s.pos++
				return nil
			}
		}
		s.out.WriteByte(c)
		s.pos++
	}
	return s.errAt(start, "unterminated template literal")
}

func (s *scanner) readIdent() string {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// takeSpace consumes whitespace and returns it so the caller can re-emit it.
func (s *scanner) takeSpace() string {
	start := s.pos
	s.skipSpace()
	return s.src[start:s.pos]
}

func (s *scanner) consumeSemicolon() {
	mark := s.pos
	s.skipSpace()
	if s.pos < len(s.src) && s.src[s.pos] == ';' {
		s.pos++
		return
	}
	s.pos = mark
}

func (s *scanner) peek() byte {
	return s.peekAt(0)
}

func (s *scanner) peekAt(offset int) byte {
	if s.pos+offset < len(s.src) {
		return s.src[s.pos+offset]
	}
	return 0
}

func (s *scanner) errAt(pos int, msg string) *Error {
	return &Error{
		Path:    s.path,
		Line:    strings.Count(s.src[:pos], "\n") + 1,
		Message: msg,
	}
}

// quoteJS renders a string as a JS string literal. JSON encoding is a strict
// subset of JS string syntax, so the emitted literal evaluates back to the
// exact same value at runtime.
func quoteJS(value string) string {
	b, _ := json.Marshal(value)
	return string(b)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
