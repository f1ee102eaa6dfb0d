package goout

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var integerLiteral = regexp.MustCompile(`^-?[0-9]+$`)

// slugAccessor reads one candidate field of a raw event. ok is false when the field
// is absent, null, empty or of a type that cannot name an event.
type slugAccessor func(event map[string]any) (value string, ok bool)

// slugAccessors are tried in order; the first usable value decides the slug
var slugAccessors = []slugAccessor{
	textField("Url"),
	textField("url"),
	textField("slug"),
	textField("Slug"),
	textField("_id"),
	textField("id"),
}

func textField(key string) slugAccessor {
	return func(event map[string]any) (string, bool) {
		raw, exists := event[key]
		if !exists || raw == nil {
			return "", false
		}

		var text string
		switch v := raw.(type) {
		case string:
			text = v
		case float64:
			text = formatTruncated(v)
		case json.Number:
			if integerLiteral.MatchString(string(v)) {
				text = string(v)
			} else if f, err := v.Float64(); err == nil {
				text = formatTruncated(f)
			} else {
				return "", false
			}
		case int:
			text = strconv.Itoa(v)
		case int64:
			text = strconv.FormatInt(v, 10)
		default:
			return "", false
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return "", false
		}
		return text, true
	}
}

// formatTruncated renders the integer part of f without overflow
func formatTruncated(f float64) string {
	t := math.Trunc(f)
	if t == 0 {
		t = 0
	}
	return strconv.FormatFloat(t, 'f', 0, 64)
}

// ExtractSlug derives the event slug from a raw API event.
//
// Values that are event URLs (their path contains /event/) yield the last path
// segment. Any other value is used as-is after trimming leading slashes; if it still
// contains a slash, its last segment is used.
func ExtractSlug(event map[string]any) (string, bool) {
	for _, access := range slugAccessors {
		text, ok := access(event)
		if !ok {
			continue
		}

		if strings.Contains(text, "/") {
			if parsed, err := url.Parse(text); err == nil && strings.Contains(parsed.Path, "/event/") {
				return cleanSlug(lastSegment(parsed.Path))
			}
		}
		return cleanSlug(text)
	}
	return "", false
}

func cleanSlug(slug string) (string, bool) {
	slug = strings.TrimLeft(strings.TrimSpace(slug), "/")
	if strings.Contains(slug, "/") {
		slug = lastSegment(slug)
	}
	return slug, slug != ""
}

func lastSegment(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
