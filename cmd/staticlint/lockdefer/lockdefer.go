// Package lockdefer содержит анализатор, требующий освобождать мьютекс через defer
// сразу после захвата.
package lockdefer

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

// Analyzer проверяет, что за вызовом Lock или RLock мьютекса из пакета sync
// следует defer с парным Unlock или RUnlock того же мьютекса.
var Analyzer = &analysis.Analyzer{
	Name: "lockdefer",
	Doc:  "требует defer Unlock сразу после Lock для мьютексов из пакета sync",
	Run:  run,
}

// pairs сопоставляет метод захвата с методом освобождения
var pairs = map[string]string{
	"Lock":  "Unlock",
	"RLock": "RUnlock",
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(node ast.Node) bool {
			block, ok := node.(*ast.BlockStmt)
			if !ok {
				return true
			}
			checkBlock(pass, block.List)
			return true
		})
	}
	return nil, nil
}

func checkBlock(pass *analysis.Pass, stmts []ast.Stmt) {
	for i, stmt := range stmts {
		exprStmt, ok := stmt.(*ast.ExprStmt)
		if !ok {
			continue
		}
		call, ok := exprStmt.X.(*ast.CallExpr)
		if !ok {
			continue
		}
		receiver, method, ok := syncMethod(pass, call)
		if !ok {
			continue
		}
		unlock, ok := pairs[method]
		if !ok {
			continue
		}

		if i+1 < len(stmts) && isDeferredUnlock(pass, stmts[i+1], receiver, unlock) {
			continue
		}
		pass.Reportf(call.Pos(), "%s.%s() должен сопровождаться defer %s.%s()", receiver, method, receiver, unlock)
	}
}

// syncMethod возвращает текст получателя и имя метода, если вызов относится к типу из пакета sync
func syncMethod(pass *analysis.Pass, call *ast.CallExpr) (string, string, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}
	fn, ok := pass.TypesInfo.ObjectOf(sel.Sel).(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "sync" {
		return "", "", false
	}
	return types.ExprString(sel.X), sel.Sel.Name, true
}

func isDeferredUnlock(pass *analysis.Pass, stmt ast.Stmt, receiver, unlock string) bool {
	deferStmt, ok := stmt.(*ast.DeferStmt)
	if !ok {
		return false
	}
	gotReceiver, method, ok := syncMethod(pass, deferStmt.Call)
	return ok && gotReceiver == receiver && method == unlock
}
