package manifest

import (
	"context"
	"fmt"
	"log/slog"

	"go.starlark.net/syntax"
)

// traceStatements logs one line per top-level statement of a parsed manifest.
// Only useful at debug level, so it bails out early otherwise.
func traceStatements(logger *slog.Logger, f *syntax.File) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, stmt := range f.Stmts {
		logger.Debug("manifest statement", "file", f.Path, "stmt", describeStmt(stmt))
	}
}

// describeStmt gives a short label for a statement, like `call^"script"@3:1`.
func describeStmt(stmt syntax.Stmt) string {
	switch stmt2 := stmt.(type) {
	case *syntax.AssignStmt:
		return fmt.Sprintf("assign^%q@%s", exprName(stmt2.LHS), stmtPos(stmt))
	case *syntax.DefStmt:
		return fmt.Sprintf("def^%q@%s", stmt2.Name.Name, stmtPos(stmt))
	case *syntax.ExprStmt:
		if call, ok := stmt2.X.(*syntax.CallExpr); ok {
			return fmt.Sprintf("call^%q@%s", exprName(call.Fn), stmtPos(stmt))
		}
		return "expr@" + stmtPos(stmt)
	case *syntax.ForStmt:
		return "for@" + stmtPos(stmt)
	case *syntax.WhileStmt:
		return "while@" + stmtPos(stmt)
	case *syntax.IfStmt:
		return "if@" + stmtPos(stmt)
	case *syntax.LoadStmt:
		return fmt.Sprintf("load^%q@%s", stmt2.ModuleName(), stmtPos(stmt))
	case *syntax.BranchStmt:
		return "branch@" + stmtPos(stmt)
	case *syntax.ReturnStmt:
		return "return@" + stmtPos(stmt)
	default:
		return fmt.Sprintf("?%T@%s", stmt, stmtPos(stmt))
	}
}

func stmtPos(stmt syntax.Stmt) string {
	start, _ := stmt.Span()
	return fmt.Sprintf("%d:%d", start.Line, start.Col)
}

// exprName renders the dotted/indexed name on the left of an assignment or call.
// It recurses, so it also sees the literals inside index expressions.
func exprName(expr syntax.Expr) string {
	switch x := expr.(type) {
	case *syntax.Ident:
		return x.Name
	case *syntax.DotExpr:
		return exprName(x.X) + "." + x.Name.Name
	case *syntax.IndexExpr:
		return exprName(x.X) + "[" + exprName(x.Y) + "]"
	case *syntax.Literal:
		return x.Raw
	case *syntax.TupleExpr:
		return fmt.Sprintf("tuple(%d)", len(x.List))
	default:
		return fmt.Sprintf("?%T", expr)
	}
}
