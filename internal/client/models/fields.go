package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Setter assigns a textual value to one field of T.
type Setter[T any] func(v *T, value string) error

// Fields maps dotted field paths to setters. It backs the CLI set command,
// which needs to assign zero values (false, empty strings) that a partial
// merge would skip.
type Fields[T any] map[string]Setter[T]

// Set assigns value to the field at path.
func (f Fields[T]) Set(v *T, path, value string) error {
	set, ok := f[strings.ToLower(path)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	if err := set(v, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Names returns the known paths, sorted.
func (f Fields[T]) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseAssignment splits "field=value".
func ParseAssignment(s string) (field, value string, err error) {
	field, value, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", "", ErrIncorrectAssignment
	}
	return field, strings.TrimSpace(value), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrIncorrectFieldValue, s)
	}
	return f, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrIncorrectFieldValue, s)
	}
	return n, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrIncorrectFieldValue, s)
	}
	return b, nil
}

// parseList splits a comma separated list, dropping empty elements.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
