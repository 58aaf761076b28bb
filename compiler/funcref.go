package compiler

import (
	"fmt"
	"go/token"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

var closurePart = regexp.MustCompile(`^(func[0-9]+|[0-9]+)$`)

// funcName is a function name as reported by the runtime, split into its
// package path and the rest: "F", "T.M", "(*T).M" or a closure path.
type funcName struct {
	pkg  string
	name string
}

func parseFuncName(full string) (funcName, bool) {
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return funcName{}, false
	}
	dot += slash + 1
	pkg := strings.ReplaceAll(full[:dot], "%2e", ".")
	return funcName{pkg: pkg, name: full[dot+1:]}, true
}

func (n funcName) closure() bool {
	if strings.HasPrefix(n.name, "glob.") {
		return true
	}
	for _, part := range strings.Split(n.name, ".") {
		if closurePart.MatchString(part) {
			return true
		}
	}
	return false
}

// funcRef renders fn as an expression: a qualified function or method
// expression, or a package level variable holding a re-embedded closure.
func (s *session) funcRef(fn reflect.Value) (string, error) {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return "", fmt.Errorf("%w: no runtime information for %s", ErrUnsupportedFunc, fn.Type())
	}
	full := rf.Name()

	n, ok := parseFuncName(full)
	switch {
	case !ok:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFunc, full)
	case strings.HasSuffix(n.name, "-fm"):
		return "", fmt.Errorf("%w: %s is a method value, register a method expression or a function", ErrUnsupportedFunc, full)
	case strings.Contains(n.name, "["):
		return "", fmt.Errorf("%w: %s is a generic instantiation", ErrUnsupportedFunc, full)
	case n.closure():
		return s.closure(fn, full, n.pkg)
	}

	q, err := s.pkgs.qualifier(n.pkg)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedFunc, full, err)
	}

	// Method expressions: (*T).M and T.M
	if strings.HasPrefix(n.name, "(*") {
		end := strings.Index(n.name, ")")
		typ, method := n.name[2:end], strings.TrimPrefix(n.name[end+1:], ".")
		if err := s.exported(n.pkg, full, typ, method); err != nil {
			return "", err
		}
		return "(*" + q + typ + ")." + method, nil
	}
	if typ, method, ok := strings.Cut(n.name, "."); ok {
		if err := s.exported(n.pkg, full, typ, method); err != nil {
			return "", err
		}
		return q + typ + "." + method, nil
	}

	if err := s.exported(n.pkg, full, n.name); err != nil {
		return "", err
	}
	return q + n.name, nil
}

func (s *session) exported(pkg, full string, names ...string) error {
	if pkg == s.cfg.PackagePath {
		return nil
	}
	for _, name := range names {
		if !token.IsExported(name) {
			return fmt.Errorf("%w: %s is not exported", ErrUnsupportedFunc, full)
		}
	}
	return nil
}
