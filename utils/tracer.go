package utils

import (
	"github.com/Luismorlan/eventmux/utils/flag"
	. "github.com/Luismorlan/eventmux/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func datadogEnv() string {
	if IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for the current service.
func StartTracer() {
	tracer.Start(
		tracer.WithService(*flag.ServiceName),
		tracer.WithEnv(datadogEnv()),
	)

	Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	// Datadog tracer
	tracer.Stop()
}
