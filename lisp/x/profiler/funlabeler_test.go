package profiler

import (
	"testing"

	"github.com/luthersystems/kiln/lisp"
	"github.com/stretchr/testify/assert"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{"no doc", "", ""},
		{"no tag", "Adds two numbers.", ""},
		{"tag", "@trace{ Add-It }", "Add-It"},
		{"tag after text", "Adds things.\n@trace{ add }", "add"},
		{"mutator", "@trace{ user-add! }", "user-add!"},
		{"predicate", "@trace { user-exists? }", "user-exists?"},
		{"inner spaces", "@trace{Add  It}", "Add_It"},
		{"underscores and tabs", "@trace{ a_\t_b }", "a_b"},
		{"non-graphic", "@trace{ café-label }", "caf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanLabel(tc.doc), "cleanLabel(%q)", tc.doc)
		})
	}
}

func TestDocFunLabeler(t *testing.T) {
	circle := &lisp.Type{Name: "Circle"}
	fn := &lisp.Lambda{Name: "area", Kind: lisp.FunctionKind, Doc: "@trace{ Area }"}
	assert.Equal(t, "Area", docFunLabeler(nil, fn))

	method := &lisp.Lambda{
		Name: "area",
		Kind: lisp.MethodKind,
		Doc:  "@trace{ Area }",
		Specializers: []*lisp.Specializer{
			{Type: circle},
			nil,
			{Eql: 0, IsEql: true},
		},
	}
	assert.Equal(t, "Area[Circle,Object,=0]", docFunLabeler(nil, method))

	method.Doc = "Computes the area."
	assert.Equal(t, "", docFunLabeler(nil, method))
}
