package handler

import (
	"encoding/json"
	"testing"
)

func TestIsJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`{"school":"東大","department":"理一"}`, true},
		{`{}`, true},
		{`  {"a":1}`, true},
		{`null`, false},
		{`[]`, false},
		{`["a"]`, false},
		{`"text"`, false},
		{`42`, false},
		{`true`, false},
		{``, false},
		{`   `, false},
		{`{broken`, false},
	}
	for _, c := range cases {
		if got := isJSONObject(json.RawMessage(c.in)); got != c.want {
			t.Fatalf("isJSONObject(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
