package staticfile

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/goliatone/go-blog/internal/posts"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate accepts native YAML/TOML timestamps and the string layouts above.
// Results are normalised to UTC.
func parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return parseDate(*v)
	case toml.LocalDate:
		return v.AsTime(time.UTC), true
	case toml.LocalDateTime:
		return v.AsTime(time.UTC), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// scalarString renders scalar values as strings. Lists and maps are rejected.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case fmt.Stringer:
		return strings.TrimSpace(v.String()), true
	}
	return "", false
}

// optionalString returns nil for absent or blank values.
func optionalString(value any) *string {
	str, ok := scalarString(value)
	if !ok || str == "" {
		return nil
	}
	return &str
}

// stringList promotes scalars to one element lists and drops blank entries.
func stringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := scalarString(item); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	if str, ok := scalarString(value); ok && str != "" {
		return []string{str}
	}
	return []string{}
}

// parseAuthors reads "Byline <email>" strings, bare emails or maps carrying
// name/byline and email keys.
func parseAuthors(value any) ([]posts.ParsedPostAuthor, error) {
	var entries []any
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		entries = v
	case []string:
		for _, item := range v {
			entries = append(entries, item)
		}
	default:
		entries = []any{v}
	}

	out := make([]posts.ParsedPostAuthor, 0, len(entries))
	for _, entry := range entries {
		author, err := parseAuthor(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, author)
	}
	return out, nil
}

func parseAuthor(entry any) (posts.ParsedPostAuthor, error) {
	switch v := entry.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if addr, err := mail.ParseAddress(trimmed); err == nil {
			return posts.ParsedPostAuthor{Byline: strings.TrimSpace(addr.Name), Email: addr.Address}, nil
		}
		return posts.ParsedPostAuthor{}, fmt.Errorf("author %q has no email", trimmed)
	case map[string]any:
		email, _ := scalarString(v["email"])
		byline, _ := scalarString(v["byline"])
		if byline == "" {
			byline, _ = scalarString(v["name"])
		}
		if email == "" {
			return posts.ParsedPostAuthor{}, fmt.Errorf("author %q has no email", byline)
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return posts.ParsedPostAuthor{}, fmt.Errorf("author email %q is invalid", email)
		}
		return posts.ParsedPostAuthor{Byline: byline, Email: email}, nil
	}
	return posts.ParsedPostAuthor{}, fmt.Errorf("author entry of type %T is not supported", entry)
}

// ParseAuthorList reads configured "Byline <email>" entries, such as the
// default authors applied to posts without an author.
func ParseAuthorList(values []string) ([]posts.ParsedPostAuthor, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return parseAuthors(values)
}
