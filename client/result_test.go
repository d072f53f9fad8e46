package client

import "testing"

func TestParseCharset(t *testing.T) {
	testCases := []struct {
		ct  string
		exp string
	}{
		{ct: "text/html; charset=GBK", exp: "GBK"},
		{ct: "text/html; charset=gbk", exp: "GBK"},
		{ct: "text/html; CHARSET=utf-8; foo=bar", exp: "UTF-8"},
		{ct: `text/plain; charset="iso-8859-1"`, exp: "ISO-8859-1"},
		{ct: "application/json", exp: ""},
		{ct: "", exp: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.ct, func(t *testing.T) {
			if got := parseCharset(tc.ct); got != tc.exp {
				t.Errorf("parseCharset(%q) = %q, want %q", tc.ct, got, tc.exp)
			}
		})
	}
}

func TestBufferHint(t *testing.T) {
	for declared, exp := range map[int64]int{
		-1:                defaultBufferHint,
		0:                 defaultBufferHint,
		10:                10,
		maxBufferHint + 1: maxBufferHint,
	} {
		if got := bufferHint(declared); got != exp {
			t.Errorf("bufferHint(%d) = %d, want %d", declared, got, exp)
		}
	}
}
