package utils

import (
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"github.com/xianrendesu-max/threts/utils/dotenv"
	"github.com/xianrendesu-max/threts/utils/flag"
	Logger "github.com/xianrendesu-max/threts/utils/log"
)

// StartProfiler starts the datadog continuous profiler. Called once from
// main after flags are parsed.
func StartProfiler() {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	if err := profiler.Start(
		profiler.WithService(flag.ServiceName),
		profiler.WithEnv(env),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			// The profiles below are disabled by
			// default to keep overhead low, but
			// can be enabled as needed.
			// profiler.BlockProfile,
			// profiler.MutexProfile,
			// profiler.GoroutineProfile,
		),
	); err != nil {
		Logger.Log.Fatal(err)
	}
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
