// Copyright © 2018 The ELPS authors

package libbase64

import (
	"encoding/base64"

	"github.com/luthersystems/kiln/lisp"
	"github.com/luthersystems/kiln/lisp/lisplib/internal/libutil"
)

// DefaultPackageName is the package name used by LoadPackage.
const DefaultPackageName = "base64"

// LoadPackage adds the base64 package to rt
func LoadPackage(rt *lisp.Runtime) error {
	return libutil.Define(rt, DefaultPackageName, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("encode",
		`Returns the standard base64 encoding of str.`,
		func(str string) string { return base64.StdEncoding.EncodeToString([]byte(str)) }),
	libutil.FunctionDoc("decode",
		`Decodes standard base64 text.  Invalid input raises an
		argument-error.`,
		builtinDecode),
	libutil.FunctionDoc("url-encode",
		`Returns the URL safe base64 encoding of str.`,
		func(str string) string { return base64.URLEncoding.EncodeToString([]byte(str)) }),
}

func builtinDecode(t *lisp.Thread, text string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", t.Errorf(nil, lisp.CondArgumentError, "%v", err)
	}
	return string(b), nil
}
