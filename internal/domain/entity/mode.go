package entity

import "strings"

// Mode selects the kind of artifact the prompt asks for.
type Mode string

const (
	ModeFunction Mode = "function"
	ModeClass    Mode = "class"
	ModeAPI      Mode = "api"
	ModeTest     Mode = "test"
	ModeSQL      Mode = "sql"
)

// ParseMode never fails: unknown modes fall back to ModeFunction and ok is false.
func ParseMode(s string) (mode Mode, ok bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeFunction, ModeClass, ModeAPI, ModeTest, ModeSQL:
		return m, true
	}
	return ModeFunction, false
}
