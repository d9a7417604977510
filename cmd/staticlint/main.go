// Команда staticlint запускает набор статических анализаторов для кода сервиса.
//
// В набор входят:
//
//   - проходы golang.org/x/tools/go/analysis/passes: nilness, shadow, unreachable,
//     printf, assign, atomic, bools, buildtag, copylocks, lostcancel;
//   - все проверки класса SA из honnef.co/go/tools/staticcheck;
//   - отдельные проверки других классов staticcheck, перечисленные в extraChecks;
//   - errcheck из github.com/kisielk/errcheck;
//   - lockdefer: за Lock/RLock мьютекса из sync должен сразу следовать defer Unlock/RUnlock.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"strings"

	"github.com/kisielk/errcheck/errcheck"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/tempizhere/linkward/cmd/staticlint/lockdefer"
)

// extraChecks - проверки вне класса SA, которые включены в набор
var extraChecks = map[string]bool{
	"S1000":  true, // select с единственным case
	"S1002":  true, // сравнение bool с константой
	"ST1000": true, // комментарий пакета
	"ST1005": true, // оформление строк ошибок
}

func main() {
	multichecker.Main(analyzers()...)
}

// analyzers собирает полный список анализаторов
func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		nilness.Analyzer,
		shadow.Analyzer,
		unreachable.Analyzer,
		printf.Analyzer,
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		copylock.Analyzer,
		lostcancel.Analyzer,
	}

	list = append(list, selectChecks(staticcheck.Analyzers, func(name string) bool {
		return strings.HasPrefix(name, "SA")
	})...)
	list = append(list, selectChecks(simple.Analyzers, func(name string) bool { return extraChecks[name] })...)
	list = append(list, selectChecks(stylecheck.Analyzers, func(name string) bool { return extraChecks[name] })...)

	return append(list, errcheck.Analyzer, lockdefer.Analyzer)
}

func selectChecks(checks []*lint.Analyzer, keep func(name string) bool) []*analysis.Analyzer {
	var selected []*analysis.Analyzer
	for _, check := range checks {
		if keep(check.Analyzer.Name) {
			selected = append(selected, check.Analyzer)
		}
	}
	return selected
}
