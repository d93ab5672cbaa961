package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lower(t *testing.T, src string) *Result {
	t.Helper()
	result, err := New().TransformSource("test.js", src)
	require.NoError(t, err)
	return result
}

func TestScanner_SpecifierExtraction(t *testing.T) {
	t.Run("declaration order is preserved", func(t *testing.T) {
		result := lower(t, `import a from "./a.js";
import b from "./b.js";
const x = require("./c.js");
import "./d.js";
`)
		assert.Equal(t, []string{"./a.js", "./b.js", "./c.js", "./d.js"}, result.Specifiers)
	})

	t.Run("duplicates are preserved", func(t *testing.T) {
		result := lower(t, `import a from "./dep.js";
import b from "./dep.js";
`)
		assert.Equal(t, []string{"./dep.js", "./dep.js"}, result.Specifiers)
	})

	t.Run("imports inside strings and comments are ignored", func(t *testing.T) {
		result := lower(t, `// import fake from "./comment.js"
/* import fake from "./block.js" */
const s = 'import nothing from "./string.js"';
const tpl = `+"`import nothing from \"./template.js\"`"+`;
`)
		assert.Empty(t, result.Specifiers)
	})

	t.Run("non-literal require is not recorded", func(t *testing.T) {
		result := lower(t, `const name = "./x.js"; const mod = require(name);`)
		assert.Empty(t, result.Specifiers)
	})

	t.Run("member access is not an import keyword", func(t *testing.T) {
		result := lower(t, `loader.import("./x.js"); obj.require("./y.js");`)
		assert.Empty(t, result.Specifiers)
	})
}

func TestScanner_ImportLowering(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "default import",
			src:  `import message from "./message.js";`,
			want: `const message = require("./message.js");`,
		},
		{
			name: "named imports",
			src:  `import { greet, name as alias } from "./lib.js";`,
			want: `const { greet, name: alias } = require("./lib.js");`,
		},
		{
			name: "namespace import",
			src:  `import * as lib from "./lib.js";`,
			want: `const lib = require("./lib.js");`,
		},
		{
			name: "side-effect import",
			src:  `import "./setup.js";`,
			want: `require("./setup.js");`,
		},
		{
			name: "default plus named",
			src:  `import main, { helper } from "./lib.js";`,
			want: `const main = require("./lib.js"), { helper } = main;`,
		},
		{
			name: "default plus namespace",
			src:  `import main, * as lib from "./lib.js";`,
			want: `const main = require("./lib.js"), lib = main;`,
		},
		{
			name: "single quotes",
			src:  `import a from './a.js';`,
			want: `const a = require("./a.js");`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := lower(t, tc.src)
			assert.Equal(t, tc.want, result.Code)
		})
	}
}

func TestScanner_ExportLowering(t *testing.T) {
	t.Run("export default", func(t *testing.T) {
		result := lower(t, `export default 42;`)
		assert.Equal(t, `module.exports = 42;`, result.Code)
	})

	t.Run("export const appends a footer assignment", func(t *testing.T) {
		result := lower(t, "export const answer = 42;\n")
		assert.Equal(t, "const answer = 42;\nexports.answer = answer;\n", result.Code)
	})

	t.Run("export function", func(t *testing.T) {
		result := lower(t, "export function greet() { return 1; }\n")
		assert.Contains(t, result.Code, "function greet() { return 1; }")
		assert.Contains(t, result.Code, "exports.greet = greet;")
	})

	t.Run("export async function", func(t *testing.T) {
		result := lower(t, "export async function load() {}\n")
		assert.Contains(t, result.Code, "async function load() {}")
		assert.Contains(t, result.Code, "exports.load = load;")
	})

	t.Run("export class", func(t *testing.T) {
		result := lower(t, "export class Greeter {}\n")
		assert.Contains(t, result.Code, "class Greeter {}")
		assert.Contains(t, result.Code, "exports.Greeter = Greeter;")
	})

	t.Run("export list", func(t *testing.T) {
		result := lower(t, `const a = 1; const b = 2; export { a, b as c };`)
		assert.Contains(t, result.Code, "exports.a = a; exports.c = b;")
		assert.NotContains(t, result.Code, "export {")
	})
}

func TestScanner_Defines(t *testing.T) {
	tr := New(WithDefines(map[string]string{"API_URL": `"https://api.example.com"`, "DEBUG": "false"}))

	t.Run("free identifiers are substituted", func(t *testing.T) {
		result, err := tr.TransformSource("test.js", `const url = API_URL; if (DEBUG) {}`)
		require.NoError(t, err)
		assert.Equal(t, `const url = "https://api.example.com"; if (false) {}`, result.Code)
	})

	t.Run("member access is left alone", func(t *testing.T) {
		result, err := tr.TransformSource("test.js", `config.API_URL = 1;`)
		require.NoError(t, err)
		assert.Equal(t, `config.API_URL = 1;`, result.Code)
	})

	t.Run("strings are left alone", func(t *testing.T) {
		result, err := tr.TransformSource("test.js", `const s = "API_URL";`)
		require.NoError(t, err)
		assert.Equal(t, `const s = "API_URL";`, result.Code)
	})
}

func TestScanner_RegexLiterals(t *testing.T) {
	t.Run("quote inside a regex does not open a string", func(t *testing.T) {
		result := lower(t, `const re = /"/;`)
		assert.Equal(t, `const re = /"/;`, result.Code)
	})

	t.Run("backtick inside a regex does not open a template", func(t *testing.T) {
		result := lower(t, "const re = /`/;")
		assert.Equal(t, "const re = /`/;", result.Code)
	})

	t.Run("character class and flags pass through", func(t *testing.T) {
		result := lower(t, `const re = /[/"]+\/x/gi;`)
		assert.Equal(t, `const re = /[/"]+\/x/gi;`, result.Code)
	})

	t.Run("division is not a regex", func(t *testing.T) {
		result := lower(t, `const x = a / b; const y = (c) / 2;`)
		assert.Equal(t, `const x = a / b; const y = (c) / 2;`, result.Code)
	})

	t.Run("import inside a regex is not a specifier", func(t *testing.T) {
		result := lower(t, `const re = /import "x" from "y"/;`)
		assert.Empty(t, result.Specifiers)
	})
}

func TestScanner_Errors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		message string
	}{
		{"unterminated string", "const s = 'oops\nmore", "unterminated string literal"},
		{"unterminated block comment", "/* never closed", "unterminated block comment"},
		{"unterminated template", "const t = `never closed", "unterminated template literal"},
		{"dynamic import", `import("./x.js");`, "dynamic import is not supported"},
		{"missing from", `import a "./x.js";`, `expected "from" in import declaration`},
		{"missing specifier", `import a from 42;`, "expected string specifier"},
		{"re-export", `export { a } from "./x.js";`, "re-export is not supported"},
		{"export star", `export * from "./x.js";`, "export * is not supported"},
		{"anonymous export function", `export function () {}`, "expected name in export declaration"},
		{"unterminated regex", `const re = /abc`, "unterminated regular expression"},
		{"newline inside regex", "const re = /ab\ncd/;", "unterminated regular expression"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().TransformSource("broken.js", tc.src)
			require.Error(t, err)
			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, "broken.js", terr.Path)
			assert.Contains(t, terr.Message, tc.message)
		})
	}

	t.Run("line numbers point at the offending statement", func(t *testing.T) {
		_, err := New().TransformSource("broken.js", "const ok = 1;\nconst also = 2;\nconst s = 'oops\n")
		var terr *Error
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, 3, terr.Line)
	})
}

func TestScanner_RequireCanonicalQuoting(t *testing.T) {
	result := lower(t, `const m = require('./weird "name".js');`)
	require.Equal(t, []string{`./weird "name".js`}, result.Specifiers)
	assert.Equal(t, `const m = require("./weird \"name\".js");`, result.Code)
}
