// Command sqllint checks that every SQL constant carries a unique
// `--sql <uuid>` audit marker, the format infra.SQLRunner requires.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	statementPattern = regexp.MustCompile(`(?i)^\s*(--sql\b|select\b|insert\b|update\b|delete\b|with\b|create\b|listen\b)`)
	markerPattern    = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type finding struct {
	pos     token.Position
	name    string
	message string
}

func (f finding) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", f.pos.Filename, f.pos.Line, f.message, f.name)
}

type query struct {
	pos    token.Position
	name   string
	marker string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	files, err := goFiles(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	findings, err := lint(files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if len(findings) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker problems")
		for _, f := range findings {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
		os.Exit(1)
	}
}

func goFiles(targets []string) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".go" {
				files = append(files, target)
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// lint reports constants whose SQL lacks a valid marker and markers shared
// by more than one constant.
func lint(files []string) ([]finding, error) {
	var (
		findings []finding
		seen     = map[string]query{}
	)
	fset := token.NewFileSet()
	for _, path := range files {
		queries, bad, err := inspectFile(fset, path)
		if err != nil {
			return nil, err
		}
		findings = append(findings, bad...)
		for _, q := range queries {
			if first, dup := seen[q.marker]; dup {
				findings = append(findings, finding{
					pos:     q.pos,
					name:    q.name,
					message: fmt.Sprintf("marker %s already used by %s", q.marker, first.name),
				})
				continue
			}
			seen[q.marker] = q
		}
	}
	return findings, nil
}

func inspectFile(fset *token.FileSet, path string) ([]query, []finding, error) {
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, nil, err
	}
	var (
		queries  []query
		findings []finding
	)
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !statementPattern.MatchString(raw) {
				continue
			}
			name := "_"
			if i < len(spec.Names) {
				name = spec.Names[i].Name
			}
			pos := fset.Position(lit.Pos())
			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				findings = append(findings, finding{pos: pos, name: name, message: "missing or invalid --sql <uuid> marker"})
				continue
			}
			queries = append(queries, query{pos: pos, name: name, marker: m[1]})
		}
		return true
	})
	return queries, findings, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if v == "" {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
