// Package exitchecker reports process exits that skip deferred cleanup in
// package main. os.Exit is never allowed there; log.Fatal and friends only
// directly in func main, where nothing is deferred yet.
package exitchecker

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

var Analyzer = &analysis.Analyzer{
	Name:     "exitcheck",
	Doc:      "checks for os.Exit in package main and log.Fatal outside func main",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var fatalCalls = map[string]bool{
	"Fatal":   true,
	"Fatalf":  true,
	"Fatalln": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		//nolint: nilnil // no result
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	nodeFilter := []ast.Node{(*ast.FuncDecl)(nil)}

	insp.Preorder(nodeFilter, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		if fn.Body == nil {
			return
		}
		inMain := fn.Recv == nil && fn.Name.Name == "main"

		ast.Inspect(fn.Body, func(node ast.Node) bool {
			call, ok := node.(*ast.CallExpr)
			if !ok {
				return true
			}
			callee, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
			if !ok || callee.Pkg() == nil {
				return true
			}
			if sig, ok := callee.Type().(*types.Signature); !ok || sig.Recv() != nil {
				return true
			}

			switch pkg := callee.Pkg().Path(); {
			case pkg == "os" && callee.Name() == "Exit":
				pass.Reportf(call.Pos(), "calling os.Exit in package main")
			case pkg == "log" && fatalCalls[callee.Name()] && !inMain:
				pass.Reportf(call.Pos(), "calling log.%s outside func main, return an error instead", callee.Name())
			}
			return true
		})
	})

	//nolint: nilnil // no result
	return nil, nil
}
