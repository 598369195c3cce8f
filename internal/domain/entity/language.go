package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Language is a target language for generated code.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageSQL        Language = "sql"
	LanguageHTMLCSS    Language = "html_css"
)

var ErrUnknownLanguage = errors.New("unknown language")

// Languages returns every supported language in a stable order.
func Languages() []Language {
	return []Language{LanguagePython, LanguageJavaScript, LanguageSQL, LanguageHTMLCSS}
}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages() {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: python, javascript, sql, html_css)", ErrUnknownLanguage, s)
}

func (l Language) DisplayName() string {
	switch l {
	case LanguagePython:
		return "Python"
	case LanguageJavaScript:
		return "JavaScript"
	case LanguageSQL:
		return "SQL"
	case LanguageHTMLCSS:
		return "HTML/CSS"
	}
	return string(l)
}

// FileExtension is used when generated code is written to disk.
func (l Language) FileExtension() string {
	switch l {
	case LanguagePython:
		return "py"
	case LanguageJavaScript:
		return "js"
	case LanguageSQL:
		return "sql"
	case LanguageHTMLCSS:
		return "html"
	}
	return "txt"
}
