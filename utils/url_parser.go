package utils

import (
	"net/url"
	"strings"
)

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// unescapePercent decodes %XX sequences and leaves everything else,
// including '+', untouched. Malformed sequences pass through as-is.
func unescapePercent(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			buf.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 3
			continue
		}
		buf.WriteByte(s[i])
		i++
	}
	return buf.String()
}

// splitPair cuts the query at the first ampersand that is not escaped
// with a backslash.
func splitPair(query string) (pair, rest string) {
	for i := 0; i < len(query); i++ {
		if query[i] == '&' && (i == 0 || query[i-1] != '\\') {
			return query[:i], query[i+1:]
		}
	}
	return query, ""
}

// ParseQuery is a url.ParseQuery variant that keeps backslash-escaped
// ampersands inside values, so a GeoJSON geometry survives splitting.
// Keys are lowercased. The geometry value gets percent decoding only,
// since '+' is data inside a JSON document.
func ParseQuery(query string) (url.Values, error) {
	values := make(url.Values)
	var firstErr error
	for len(query) > 0 {
		var pair string
		pair, query = splitPair(query)
		if len(pair) == 0 {
			continue
		}

		key := pair
		value := ""
		if i := strings.Index(pair, "="); i >= 0 {
			key, value = pair[:i], pair[i+1:]
			value = strings.Replace(value, `\&`, "&", -1)
		}

		key, err := url.QueryUnescape(key)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		key = strings.ToLower(key)

		if key == "geometry" {
			value = unescapePercent(value)
		} else {
			value, err = url.QueryUnescape(value)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}

		values[key] = append(values[key], value)
	}
	return values, firstErr
}
