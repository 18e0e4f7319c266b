package compress

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is the stream format wrapped around each frame payload.
type Format int

const (
	None Format = iota
	Deflate
	Zlib
	Gzip
	Zstd
)

var formatNames = map[Format]string{
	None:    "none",
	Deflate: "deflate",
	Zlib:    "zlib",
	Gzip:    "gzip",
	Zstd:    "zstd",
}

func ParseFormat(s string) (Format, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for f, name := range formatNames {
		if s == name {
			return f, nil
		}
	}
	if s == "zstandard" {
		return Zstd, nil
	}
	return 0, fmt.Errorf("'%s' isn't a valid compression format (none, deflate, zlib, gzip, zstd)", s)
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "compression-format" }

type levelKind uint8

const (
	levelUnset levelKind = iota
	levelFast
	levelDefault
	levelBest
	levelCustom
)

// Level is an optional compression level. The zero value is unset and
// resolves to Fast.
type Level struct {
	kind levelKind
	n    int
}

var (
	LevelFast    = Level{kind: levelFast}
	LevelDefault = Level{kind: levelDefault}
	LevelBest    = Level{kind: levelBest}
)

// Custom selects the codec's n-th level, 0 to 9.
func Custom(n int) Level {
	return Level{kind: levelCustom, n: n}
}

// Resolve returns l, or Fast when l is unset.
func (l Level) Resolve() Level {
	if l.kind == levelUnset {
		return LevelFast
	}
	return l
}

// ParseLevel accepts fast, default, best or an integer.
func ParseLevel(s string) (Level, error) {
	switch s = strings.TrimSpace(strings.ToLower(s)); s {
	case "":
		return Level{}, nil
	case "fast", "fastest":
		return LevelFast, nil
	case "default":
		return LevelDefault, nil
	case "best":
		return LevelBest, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Level{}, fmt.Errorf("'%s' isn't a valid compression level (fast, default, best or 0-9)", s)
	}
	return Custom(n), nil
}

func (l Level) String() string {
	switch l.kind {
	case levelUnset:
		return ""
	case levelFast:
		return "fast"
	case levelDefault:
		return "default"
	case levelBest:
		return "best"
	}
	return strconv.Itoa(l.n)
}

// Set implements pflag.Value.
func (l *Level) Set(s string) error {
	v, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Type implements pflag.Value.
func (l *Level) Type() string { return "compression-level" }
