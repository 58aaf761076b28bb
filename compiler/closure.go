package compiler

import (
	"errors"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"reflect"
	"strconv"

	"github.com/junioryono/keel/internal/reflection"
)

// closureDecl is a re-embedded closure, declared as a package level variable
// of the generated file.
type closureDecl struct {
	name string
	text string
}

// closureSource is the text of a function literal and the imports of its
// declaring file that the text references, by local name.
type closureSource struct {
	text    string
	imports map[string]string
}

type lexeme struct {
	pos token.Pos
	tok token.Token
	lit string
}

func (s *session) closure(fn reflect.Value, full, pkg string) (string, error) {
	if name, ok := s.closures[fn.Pointer()]; ok {
		return name, nil
	}

	file, line := reflection.FuncFileLine(fn)
	fail := func(err error) (string, error) {
		return "", ClosureError{Func: full, File: file, Line: line, Cause: err}
	}

	if pkg != s.cfg.PackagePath {
		return fail(fmt.Errorf("declared in %s, outside the generated package %s", pkg, s.cfg.PackagePath))
	}
	if file == "" {
		return fail(errors.New("source position is unknown"))
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return fail(err)
	}
	cs, err := extractClosure(file, src, line)
	if err != nil {
		return fail(err)
	}
	for name, path := range cs.imports {
		if err := s.pkgs.addNamed(name, path); err != nil {
			return fail(err)
		}
	}

	name := s.unexported + "Func" + strconv.Itoa(len(s.closureDecls))
	s.closureDecls = append(s.closureDecls, closureDecl{name: name, text: cs.text})
	s.closures[fn.Pointer()] = name
	return name, nil
}

// extractClosure returns the function literal starting on line of src. The
// first func token on that line that begins an expression is taken; the
// literal ends at the brace closing its body.
func extractClosure(filename string, src []byte, line int) (closureSource, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(filename, -1, len(src))

	var (
		sc      scanner.Scanner
		scanErr error
		lexemes []lexeme
	)
	sc.Init(file, src, func(pos token.Position, msg string) {
		if scanErr == nil {
			scanErr = fmt.Errorf("%s: %s", pos, msg)
		}
	}, 0)
	for {
		pos, tok, lit := sc.Scan()
		if tok == token.EOF {
			break
		}
		lexemes = append(lexemes, lexeme{pos: pos, tok: tok, lit: lit})
	}
	if scanErr != nil {
		return closureSource{}, scanErr
	}

	start := literalStart(file, lexemes, line)
	if start < 0 {
		return closureSource{}, fmt.Errorf("no function literal starts on line %d", line)
	}

	body := -1
	parens := 0
	for i := start + 1; i < len(lexemes) && body < 0; i++ {
		switch lexemes[i].tok {
		case token.LPAREN, token.LBRACK:
			parens++
		case token.RPAREN, token.RBRACK:
			parens--
		case token.STRUCT, token.INTERFACE:
			end, err := matchBrace(lexemes, i+1)
			if err != nil {
				return closureSource{}, err
			}
			i = end
		case token.LBRACE:
			if parens == 0 {
				body = i
			}
		}
	}
	if body < 0 {
		return closureSource{}, errors.New("function body not found")
	}
	end, err := matchBrace(lexemes, body)
	if err != nil {
		return closureSource{}, err
	}

	imports, err := usedImports(filename, src, lexemes[start:end+1])
	if err != nil {
		return closureSource{}, err
	}
	from, to := file.Offset(lexemes[start].pos), file.Offset(lexemes[end].pos)+1
	return closureSource{text: string(src[from:to]), imports: imports}, nil
}

// literalStart finds the func token on line that starts a function literal:
// one inside a block, or one following an operator at the top level.
func literalStart(file *token.File, lexemes []lexeme, line int) int {
	depth := 0
	for i, l := range lexemes {
		switch l.tok {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		case token.FUNC:
			if file.Line(l.pos) != line || i+1 == len(lexemes) || lexemes[i+1].tok != token.LPAREN {
				continue
			}
			if depth > 0 || (i > 0 && lexemes[i-1].tok != token.SEMICOLON) {
				return i
			}
		}
	}
	return -1
}

// matchBrace returns the index of the brace closing the one at open.
func matchBrace(lexemes []lexeme, open int) (int, error) {
	if open >= len(lexemes) || lexemes[open].tok != token.LBRACE {
		return 0, errors.New("expected {")
	}
	depth := 0
	for i := open; i < len(lexemes); i++ {
		switch lexemes[i].tok {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errors.New("closing brace not found")
}

// usedImports returns the imports of the file that the lexemes select from.
func usedImports(filename string, src []byte, lexemes []lexeme) (map[string]string, error) {
	selected := make(map[string]bool)
	for i := 0; i+1 < len(lexemes); i++ {
		if lexemes[i].tok == token.IDENT && lexemes[i+1].tok == token.PERIOD {
			selected[lexemes[i].lit] = true
		}
	}

	f, err := parser.ParseFile(token.NewFileSet(), filename, src, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	used := make(map[string]string)
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, err
		}
		name := packageName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		if selected[name] {
			used[name] = path
		}
	}
	return used, nil
}
