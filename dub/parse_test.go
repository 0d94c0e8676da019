package dub

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	type test struct {
		input string
		want  Command
	}
	tests := []test{
		{
			input: "set a '1 C",
			want: Command{
				Name: Identifier("set"),
				Args: []Node{
					Identifier("a"),
					Selector{matchers: []matcher{listMatch{1}}},
					Identifier("C"),
				},
			},
		},
		{
			input: "clear b '*",
			want: Command{
				Name: Identifier("clear"),
				Args: []Node{
					Identifier("b"),
					Selector{matchers: []matcher{matchAll}},
				},
			},
		},
		{
			input: "set a '1,3,5:7/2 D",
			want: Command{
				Name: Identifier("set"),
				Args: []Node{
					Identifier("a"),
					Selector{
						matchers: []matcher{listMatch{1, 3}, rangeMatch{start: 5, end: 7}},
						stride:   2,
					},
					Identifier("D"),
				},
			},
		},
		{
			input: "tempo 96.5",
			want: Command{
				Name: Identifier("tempo"),
				Args: []Node{Float(96.5)},
			},
		},
		{
			input: "level omunazi 70",
			want: Command{
				Name: Identifier("level"),
				Args: []Node{Identifier("omunazi"), Int(70)},
			},
		},
		{
			input: `save "patterns/my tune.yaml"`,
			want: Command{
				Name: Identifier("save"),
				Args: []Node{String("patterns/my tune.yaml")},
			},
		},
		{
			input: `title ""`,
			want: Command{
				Name: Identifier("title"),
				Args: []Node{String("")},
			},
		},
		{
			input: "play",
			want:  Command{Name: Identifier("play")},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		got, err := Parse(test.input)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("\nwant: %+v\ngot:  %+v", test.want, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"12 play",
		"set a '",
		"set a '1:",
		"set a '1:x",
		"set a '1,",
		"set a '*/0",
		"set a '*/",
		"set a ':2",
	} {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}
