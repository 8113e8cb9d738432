package lang

import (
	"regexp"

	"github.com/skillforge/extraction-engine/internal/domain"
)

// signature describes the detectable fingerprint of one language: keywords,
// structural patterns and block-structure characteristics. The detector and
// validator both dispatch through this table, so adding a language never
// touches call sites.
type signature struct {
	lang            domain.Language
	keywords        map[string]struct{}
	patterns        []*regexp.Regexp
	caseInsensitive bool
	indentSensitive bool
	usesBraces      bool
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// defaultSignatures returns the built-in language signature table.
func defaultSignatures() []signature {
	return []signature{
		{
			lang: domain.LangGo,
			keywords: keywordSet(
				"func", "package", "import", "type", "struct", "interface",
				"chan", "defer", "range", "var", "const", "nil", "err", "go",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`:=`),
				regexp.MustCompile(`\bfunc (\(\w+ \*?\w+\) )?\w+\(`),
				regexp.MustCompile(`\bfmt\.\w+\(`),
				regexp.MustCompile(`if err != nil`),
				regexp.MustCompile(`^package \w+$`),
			},
			usesBraces: true,
		},
		{
			lang: domain.LangPython,
			keywords: keywordSet(
				"def", "class", "import", "from", "return", "self", "None",
				"True", "False", "elif", "lambda", "yield", "with", "pass", "raise",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`^\s*def \w+\(.*\)\s*:`),
				regexp.MustCompile(`^\s*class \w+.*:`),
				regexp.MustCompile(`^from \w[\w.]* import `),
				regexp.MustCompile(`^\s*@\w+`),
				regexp.MustCompile(`\bprint\(`),
			},
			indentSensitive: true,
		},
		{
			lang: domain.LangJavaScript,
			keywords: keywordSet(
				"function", "const", "let", "var", "return", "async", "await",
				"console", "this", "new", "typeof", "null", "undefined", "export",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`=>`),
				regexp.MustCompile(`\bconsole\.(log|error|warn)\(`),
				regexp.MustCompile(`\bfunction\s*\w*\s*\(`),
				regexp.MustCompile(`^\s*(const|let|var) \w+\s*=`),
				regexp.MustCompile(`require\(['"]`),
			},
			usesBraces: true,
		},
		{
			lang: domain.LangJava,
			keywords: keywordSet(
				"public", "private", "protected", "static", "void", "class",
				"new", "return", "extends", "implements", "final", "import", "throws",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bpublic (static )?[\w<>\[\]]+ \w+\(`),
				regexp.MustCompile(`System\.out\.print`),
				regexp.MustCompile(`^import [\w.]+;`),
				regexp.MustCompile(`@Override`),
			},
			usesBraces: true,
		},
		{
			lang: domain.LangC,
			keywords: keywordSet(
				"int", "char", "void", "return", "struct", "printf", "sizeof",
				"const", "static", "unsigned", "malloc", "free", "include",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`^#include\s*[<"]`),
				regexp.MustCompile(`^#define\s+\w+`),
				regexp.MustCompile(`\bprintf\(`),
				regexp.MustCompile(`\bint main\s*\(`),
			},
			usesBraces: true,
		},
		{
			lang: domain.LangRust,
			keywords: keywordSet(
				"fn", "let", "mut", "impl", "pub", "struct", "enum", "match",
				"use", "trait", "Some", "None", "Ok", "Err", "mod",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bfn \w+\s*(<[^>]*>)?\(`),
				regexp.MustCompile(`\blet mut \w+`),
				regexp.MustCompile(`\w+::\w+`),
				regexp.MustCompile(`->\s*[\w&<]`),
				regexp.MustCompile(`println!\(`),
			},
			usesBraces: true,
		},
		{
			lang: domain.LangRuby,
			keywords: keywordSet(
				"def", "end", "module", "class", "require", "puts", "nil",
				"unless", "elsif", "attr_accessor", "do", "yield",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`^\s*def \w+[!?]?`),
				regexp.MustCompile(`^\s*end\s*$`),
				regexp.MustCompile(`^require ['"]`),
				regexp.MustCompile(`\bputs `),
				regexp.MustCompile(`\.each do \|`),
			},
		},
		{
			lang: domain.LangSQL,
			keywords: keywordSet(
				"select", "from", "where", "insert", "update", "delete",
				"join", "group", "order", "create", "table", "values", "into",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)^\s*SELECT\b.*\bFROM\b`),
				regexp.MustCompile(`(?i)^\s*INSERT INTO\b`),
				regexp.MustCompile(`(?i)^\s*CREATE TABLE\b`),
				regexp.MustCompile(`(?i)\bWHERE\b.*=`),
			},
			caseInsensitive: true,
		},
		{
			lang: domain.LangShell,
			keywords: keywordSet(
				"echo", "fi", "then", "done", "export", "grep", "sudo",
				"esac", "elif", "local", "shift", "exec",
			),
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`^#!/bin/(ba|z|da)?sh`),
				regexp.MustCompile(`\$\{?\w+\}?`),
				regexp.MustCompile(`^\s*(if|for|while)\b.*;\s*(then|do)\b`),
				regexp.MustCompile(`\|\s*\w+`),
			},
		},
	}
}
