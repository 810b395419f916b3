package spec

import (
	"reflect"
	"strings"
)

// QualifiedName names t by its full import path, e.g.
// "github.com/acme/app/model.User" or "*github.com/acme/app/model.User".
// Unnamed types fall back to reflect's spelling.
func QualifiedName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	var prefix strings.Builder
	for t.Name() == "" && t.Kind() == reflect.Pointer {
		prefix.WriteByte('*')
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return prefix.String() + t.String()
	}
	return prefix.String() + t.PkgPath() + "." + t.Name()
}

// ShortName names t the way Go source in its own package would, e.g. "model.User".
func ShortName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
