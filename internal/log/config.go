package log

import (
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs one JSON object per line
	FormatJSON Format = iota
	// FormatText outputs logfmt-style key=value lines
	FormatText
)

func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses a string into a Format. Unknown values fall back to JSON.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console", "logfmt":
		return FormatText
	default:
		return FormatJSON
	}
}

// Config holds configuration for the logger
type Config struct {
	Level     Level
	Format    Format
	Output    io.Writer
	AddSource bool

	// ServiceName and ServiceVersion are attached to every record.
	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs at INFO in JSON to stderr, leaving stdout for command
// output.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         os.Stderr,
		ServiceName:    "projectflow",
		ServiceVersion: "dev",
	}
}

// DevelopmentConfig logs at DEBUG in text format with source locations.
func DevelopmentConfig() Config {
	c := DefaultConfig()
	c.Level = LevelDebug
	c.Format = FormatText
	c.AddSource = true
	return c
}

// FromStrings builds a Config from the string form used in config files and
// flags.
func FromStrings(level, format, version string) Config {
	c := DefaultConfig()
	c.Level = ParseLevel(level)
	c.Format = ParseFormat(format)
	if version != "" {
		c.ServiceVersion = version
	}
	return c
}
