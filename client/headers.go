package client

import (
	"encoding/base64"
	"net/http"
	"slices"
	"strings"
	"unicode"
)

const (
	defaultAccept        = "application/json,text/plain,text/html,*/*"
	defaultAcceptCharset = "UTF-8,*"
)

// Property-style names of the well-known headers. HeaderName maps each one
// to its wire name.
const (
	propUserAgent     = "userAgent"
	propAccept        = "accept"
	propAcceptCharset = "acceptCharset"
	propAuthorization = "authorization"
	propContentType   = "contentType"
	propConnection    = "connection"
)

// HeaderName converts a lowerCamelCase property name into HTTP header casing.
// The first letter is capitalized and every later upper-case letter starts a
// new dash-separated word: "userAgent" becomes "User-Agent", "accept" becomes
// "Accept".
func HeaderName(prop string) string {
	var sb strings.Builder
	sb.Grow(len(prop) + 4)

	for i, r := range prop {
		switch {
		case i == 0:
			sb.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			sb.WriteByte('-')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// Headers is the single-valued header set of a Request. Names are stored in
// canonical form, so lookups ignore case. Setting a header to the empty
// string removes it.
type Headers struct {
	h http.Header
}

func newHeaders(userAgent string) *Headers {
	h := &Headers{h: make(http.Header)}
	h.SetUserAgent(userAgent)
	h.SetAccept(defaultAccept)
	h.SetAcceptCharset(defaultAcceptCharset)
	h.SetConnection("close")
	return h
}

// Get returns the value of name, or "" if it is not set.
func (h *Headers) Get(name string) string {
	return h.h.Get(name)
}

// Set replaces name with value, or removes it when value is empty.
func (h *Headers) Set(name, value string) {
	if value == "" {
		h.h.Del(name)
		return
	}
	h.h.Set(name, value)
}

// Remove deletes name.
func (h *Headers) Remove(name string) {
	h.h.Del(name)
}

// SetAll sets every entry of kv.
func (h *Headers) SetAll(kv map[string]string) {
	for k, v := range kv {
		h.Set(k, v)
	}
}

// Prop reads a header by its property-style name.
func (h *Headers) Prop(prop string) string {
	return h.Get(HeaderName(prop))
}

// SetProp writes a header by its property-style name.
func (h *Headers) SetProp(prop, value string) {
	h.Set(HeaderName(prop), value)
}

func (h *Headers) UserAgent() string         { return h.Prop(propUserAgent) }
func (h *Headers) SetUserAgent(v string)     { h.SetProp(propUserAgent, v) }
func (h *Headers) Accept() string            { return h.Prop(propAccept) }
func (h *Headers) SetAccept(v string)        { h.SetProp(propAccept, v) }
func (h *Headers) AcceptCharset() string     { return h.Prop(propAcceptCharset) }
func (h *Headers) SetAcceptCharset(v string) { h.SetProp(propAcceptCharset, v) }
func (h *Headers) Authorization() string     { return h.Prop(propAuthorization) }
func (h *Headers) SetAuthorization(v string) { h.SetProp(propAuthorization, v) }
func (h *Headers) ContentType() string       { return h.Prop(propContentType) }
func (h *Headers) SetContentType(v string)   { h.SetProp(propContentType, v) }
func (h *Headers) Connection() string        { return h.Prop(propConnection) }
func (h *Headers) SetConnection(v string)    { h.SetProp(propConnection, v) }

// SetBasicAuth sets a Basic Authorization header.
func (h *Headers) SetBasicAuth(user, password string) {
	h.SetAuthorization("Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password)))
}

// SetBearer sets a Bearer Authorization header.
func (h *Headers) SetBearer(token string) {
	if token == "" {
		h.SetAuthorization("")
		return
	}
	h.SetAuthorization("Bearer " + token)
}

// Len returns the number of headers.
func (h *Headers) Len() int { return len(h.h) }

// Names returns the header names in sorted order.
func (h *Headers) Names() []string {
	names := make([]string, 0, len(h.h))
	for k := range h.h {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Clone returns the headers as an http.Header.
func (h *Headers) Clone() http.Header {
	return h.h.Clone()
}
