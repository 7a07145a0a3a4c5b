// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analysis

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
	"github.com/awslabs/ar-go-lockpath/analysis/lang"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// PkgLoadMode is the default loading mode in the analyses. We load all possible information.
const PkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedExportFile |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

// LoadedProgram represents a loaded program.
type LoadedProgram struct {
	// Program is the SSA version of the program.
	Program *ssa.Program
	// Packages is the list of the initial packages of the program.
	Packages []*packages.Package
	// Directives is a map from the position of a function to the directive in its doc comment.
	Directives Directives
}

// LoadProgram loads a program on platform "platform" using the buildmode provided and the args.
// To understand how to specify the args, look at the documentation of packages.Load.
func LoadProgram(config *packages.Config,
	platform string,
	buildmode ssa.BuilderMode,
	args []string) (LoadedProgram, error) {

	if config == nil {
		config = &packages.Config{
			Mode:  PkgLoadMode,
			Tests: false,
			Fset:  token.NewFileSet(),
		}
	}

	if platform != "" {
		config.Env = append(os.Environ(), fmt.Sprintf("GOOS=%s", platform))
	}

	// load, parse and type check the given packages
	initialPackages, err := packages.Load(config, args...)
	if err != nil {
		return LoadedProgram{}, fmt.Errorf("failed to load packages: %w", err)
	}

	if len(initialPackages) == 0 {
		return LoadedProgram{}, fmt.Errorf("no packages")
	}

	if packages.PrintErrors(initialPackages) > 0 {
		return LoadedProgram{}, fmt.Errorf("errors found, exiting")
	}

	// Construct SSA for all the packages we have loaded
	program, ssaPackages := ssautil.AllPackages(initialPackages, buildmode)

	for i, p := range ssaPackages {
		if p == nil {
			return LoadedProgram{}, fmt.Errorf("cannot build SSA for package %s", initialPackages[i])
		}
	}

	// Build SSA for entire program
	program.Build()

	var files []*ast.File
	for _, pkg := range initialPackages {
		files = append(files, pkg.Syntax...)
	}
	directives := findDirectives(files, program.Fset)

	return LoadedProgram{Program: program, Packages: initialPackages, Directives: directives}, nil
}

// Module lowers the functions of the program selected by the package filter of cfg. When no filter is set, the
// functions of the initial packages are selected. Functions annotated with an ignore directive are skipped.
func (lp LoadedProgram) Module(cfg *config.Config) *ir.Module {
	match := cfg.MatchPkgFilter
	if cfg.PkgFilter == "" {
		initial := map[string]bool{}
		for _, pkg := range lp.Packages {
			initial[pkg.PkgPath] = true
		}
		match = func(path string) bool { return initial[path] }
	}
	inPackage := lang.PackageFilter(match)
	m := lang.LowerProgram(lp.Program, func(f *ssa.Function) bool {
		if !inPackage(f) {
			return false
		}
		d, ok := lp.Directives[NewDirectivePos(lp.Program.Fset.Position(f.Pos()))]
		return !ok || d.Kind != DirectiveIgnore
	})
	if len(lp.Packages) > 0 {
		m.Name = lp.Packages[0].PkgPath
	}
	return m
}

// IsProgramFile returns true if filename is a program in the YAML format.
func IsProgramFile(filename string) bool {
	ext := filepath.Ext(filename)
	return ext == ".yaml" || ext == ".yml"
}

// LoadModule loads the module designated by args. A single YAML file is read in the program format of
// [ir.ParseModule]; anything else is loaded as Go packages using the build tags provided.
func LoadModule(cfg *config.Config, buildTags string, args []string) (*ir.Module, error) {
	if len(args) == 1 && IsProgramFile(args[0]) {
		return ir.LoadModule(args[0])
	}
	pcfg := &packages.Config{
		Mode:  PkgLoadMode,
		Tests: false,
		Fset:  token.NewFileSet(),
	}
	if buildTags != "" {
		pcfg.BuildFlags = []string{"-tags=" + buildTags}
	}
	lp, err := LoadProgram(pcfg, "", ssa.InstantiateGenerics, args)
	if err != nil {
		return nil, err
	}
	return lp.Module(cfg), nil
}

// Directives represents a map of directive position to directive.
type Directives map[DirectivePos]Directive

// Directive represents an instruction to the analyses in the source code being analyzed.
// It is a comment in the form: `//lockpath:x`, where x is a valid DirectiveKind.
type Directive struct {
	Kind    DirectiveKind
	Comment *ast.Comment
}

// DirectivePos represents the position of a directive's target within a program.
type DirectivePos struct {
	Filename string
	Line     int
}

// NewDirectivePos creates a DirectivePos from a token.Position.
func NewDirectivePos(pos token.Position) DirectivePos {
	return DirectivePos{
		Filename: pos.Filename,
		Line:     pos.Line,
	}
}

// DirectiveKind represents the kind of directive.
type DirectiveKind string

const (
	// DirectiveIgnore represents a directive to skip a function.
	DirectiveIgnore DirectiveKind = "ignore"
)

// NewDirective returns the directive for c and true if c is a valid
// directive comment.
func NewDirective(c *ast.Comment) (Directive, bool) {
	_, after, found := strings.Cut(c.Text, "lockpath:")
	if !found {
		return Directive{}, false
	}

	switch k := DirectiveKind(strings.TrimSpace(after)); k {
	case DirectiveIgnore:
		return Directive{Kind: k, Comment: c}, true
	default:
		return Directive{}, false
	}
}

// findDirectives returns the directives in the doc comments of the function declarations of files, indexed by the
// position of the function names.
func findDirectives(files []*ast.File, fset *token.FileSet) Directives {
	res := make(Directives)
	for _, file := range files {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Doc == nil {
				continue
			}
			for _, c := range fd.Doc.List {
				d, ok := NewDirective(c)
				if !ok {
					continue
				}
				pos := fset.Position(fd.Name.Pos())
				if pos.IsValid() {
					res[NewDirectivePos(pos)] = d
				}
			}
		}
	}
	return res
}
