package framing

import (
	"bufio"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scanAll(input string, split bufio.SplitFunc, bsize int) ([]string, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, bsize), 1024)
	scanner.Split(split)
	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	return got, scanner.Err()
}

func TestSplitEOM(t *testing.T) {
	for _, tc := range []struct {
		input  string
		want   []string
		hasErr bool
	}{
		{input: ""},
		{input: "]]>]]>", want: []string{""}},
		{input: "foo]]>]]>", want: []string{"foo"}},
		{input: "foo]]>]]>bar]]>]]>bazoopa]]>]]>", want: []string{"foo", "bar", "bazoopa"}},
		{input: "]]>]]foo]]>]]>", want: []string{"]]>]]foo"}},
		{input: "foo>]]>bar]]>]]>", want: []string{"foo>]]>bar"}},
		{input: "bar]]]]]>]]>", want: []string{"bar]]]"}},
		{input: "<a/>]]>]]>\n<b/>]]>]]>\n", want: []string{"<a/>", "\n<b/>"}},
		{
			input: "012345789012345789012345789012345789012345789012345789012345789]]>]]>012345789]]>]]>",
			want:  []string{"012345789012345789012345789012345789012345789012345789012345789", "012345789"},
		},
		{input: "foo", hasErr: true},
		{input: "a]]>]]>b]]>]]>c", want: []string{"a", "b"}, hasErr: true},
		{input: "foo]]>]]", hasErr: true},
	} {
		for bsize := 16; bsize < 65; bsize += 7 {
			t.Run(fmt.Sprintf("%q/%d", tc.input, bsize), func(t *testing.T) {
				a := assert.New(t)
				got, err := scanAll(tc.input, splitEOM, bsize)
				a.Equal(tc.want, got)
				if tc.hasErr {
					a.Error(err)
				} else {
					a.NoError(err)
				}
			})
		}
	}
}

func TestSplitChunked(t *testing.T) {
	for _, tc := range []struct {
		input  string
		want   []string
		hasErr bool
	}{
		// empty input needs no end-of-chunks
		{input: ""},
		{input: "\n#1\na\n##\n", want: []string{"a"}},
		{input: "\n#1\na\n#1\nb\n#1\nc\n##\n", want: []string{"abc"}},
		{input: "\n#3\nfoo\n#4\nfood\n##\n\n#2\nab\n##\n", want: []string{"foofood", "ab"}},
		{input: "\n#4\nabc\n\n#4\ndef\n\n##\n", want: []string{"abc\ndef\n"}},
		{input: "\n#6\n]]>]]>\n##\n", want: []string{"]]>]]>"}},

		{input: "\n##\n", hasErr: true},
		{input: "foo]]>]]>bar]]>]]>baz", hasErr: true},
		{input: "\n#03\nfoo\n##\n", hasErr: true},
		{input: "\n#92147483648\nffffffff...", hasErr: true},
		{input: "\n#4294967296\nf", hasErr: true},
		{input: "\n#9\n012", hasErr: true},
		{input: "\n#\na\n##\n", hasErr: true},
		{input: "\n#1a\na\n##\n", hasErr: true},
		{input: "\n#1\na\n##", hasErr: true},
		{input: "\n#1\na\n#\n ", hasErr: true},
		{input: "\n#1\na\n#", hasErr: true},
		{input: "\n#1\na\n##\n ", want: []string{"a"}, hasErr: true},
		{input: "\n#9\n0123456789\n##\n", hasErr: true},
	} {
		for bsize := 16; bsize < 49; bsize += 5 {
			t.Run(fmt.Sprintf("%q/%d", tc.input, bsize), func(t *testing.T) {
				a := assert.New(t)
				got, err := scanAll(tc.input, splitChunked, bsize)
				a.Equal(tc.want, got)
				if tc.hasErr {
					a.Error(err)
				} else {
					a.NoError(err)
				}
			})
		}
	}
}

func TestAppendChunked(t *testing.T) {
	for _, tc := range []struct {
		msg  string
		size int
		want string
	}{
		{msg: "<rpc/>", size: 100, want: "\n#6\n<rpc/>\n##\n"},
		{msg: "<rpc/>", size: 4, want: "\n#4\n<rpc\n#2\n/>\n##\n"},
		{msg: "abc", size: 1, want: "\n#1\na\n#1\nb\n#1\nc\n##\n"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			a := assert.New(t)
			out := appendChunked(nil, []byte(tc.msg), tc.size)
			a.Equal(tc.want, string(out))
			got, err := scanAll(string(out), splitChunked, 16)
			a.NoError(err)
			a.Equal([]string{tc.msg}, got)
		})
	}
}
