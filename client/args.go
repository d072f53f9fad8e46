package client

import (
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
)

// Args is an insertion-ordered map of request arguments. Re-setting a key
// keeps its original position.
type Args struct {
	keys []string
	vals map[string]string
}

func newArgs() *Args {
	return &Args{vals: make(map[string]string)}
}

// Set stores value under key in its canonical string form.
func (a *Args) Set(key string, value any) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = argString(value)
}

// Get returns the value stored under key.
func (a *Args) Get(key string) (string, bool) {
	v, ok := a.vals[key]
	return v, ok
}

// Len returns the number of arguments.
func (a *Args) Len() int { return len(a.keys) }

// All iterates the arguments in insertion order.
func (a *Args) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range a.keys {
			if !yield(k, a.vals[k]) {
				return
			}
		}
	}
}

// Encode returns the arguments as percent-encoded key=value pairs joined
// by '&'.
func (a *Args) Encode() string {
	var sb strings.Builder
	for k, v := range a.All() {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v))
	}
	return sb.String()
}

func argString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// appendQuery folds query into rawURL, reusing an existing '?'. A fragment
// stays at the end.
func appendQuery(rawURL, query string) string {
	if query == "" {
		return rawURL
	}

	base, frag, hasFrag := strings.Cut(rawURL, "#")
	switch {
	case !strings.Contains(base, "?"):
		base += "?" + query
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		base += query
	default:
		base += "&" + query
	}

	if hasFrag {
		return base + "#" + frag
	}
	return base
}
