package utils

import (
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/xianrendesu-max/threts/utils/dotenv"
	"github.com/xianrendesu-max/threts/utils/flag"
	Logger "github.com/xianrendesu-max/threts/utils/log"
)

// StartTracer starts the datadog tracer. Called once from main after
// flags are parsed.
func StartTracer() {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(flag.ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
