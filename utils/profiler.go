package utils

import (
	"github.com/Luismorlan/eventmux/utils/flag"
	. "github.com/Luismorlan/eventmux/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// StartProfiler starts the Datadog profiler, only CPU and heap profiles are
// collected to keep overhead low.
func StartProfiler() error {
	if err := profiler.Start(
		profiler.WithService(*flag.ServiceName),
		profiler.WithEnv(datadogEnv()),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	); err != nil {
		return err
	}
	Log.Info("profiler initialized")
	return nil
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	// Datadog profiler
	profiler.Stop()
}
