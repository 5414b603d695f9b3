package benchmark

import (
	"testing"

	"github.com/samber/do/v2"
	"go.uber.org/dig"
)

// fx resolves only while the app is built, so it has no entry here.

func BenchmarkResolve_Process_Do(b *testing.B) {
	injector := do.New()
	provideLauncherDo(injector, stage{})
	_ = do.MustInvoke[*Process](injector)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = do.MustInvoke[*Process](injector)
	}
}

func BenchmarkResolve_Process_Dig(b *testing.B) {
	c := dig.New()
	provideLauncherDig(c)
	_ = c.Invoke(func(*Process) {})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.Invoke(func(*Process) {})
	}
}
