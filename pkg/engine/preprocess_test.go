package engine

import "testing"

func TestPreprocessSource(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"keyword", "(f :width 10)", `(f "__kw_width" 10)`},
		{"kebab keyword", "(f :vertex-stride 12)", `(f "__kw_vertex-stride" 12)`},
		{"kebab call", "(rt-create-blas x)", "(rt_create_blas x)"},
		{"minus untouched", "(- 5 3)", "(- 5 3)"},
		{"negative literal", "(list -1 2)", "(list -1 2)"},
		{"string protected", `(print "a :kw b-c")`, `(print "a :kw b-c")`},
		{"backtick protected", "(print `x-y :z`)", "(print `x-y :z`)"},
		{"comment", "(f) ; note\n(g)", "(f) // note\n(g)"},
		{"assignment operator", "(x := 3)", "(x := 3)"},
		{"escaped quote", `(print "a \" b-c")`, `(print "a \" b-c")`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := preprocessSource(tc.in); got != tc.want {
				t.Errorf("preprocessSource(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
