package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// TestLogLevelEnvName overrides the level logs are emitted at in tests
const TestLogLevelEnvName = "TEST_LOG_LEVEL"

// Tests log at trace level, but output is discarded unless the test binary
// runs verbosely
func init() {
	level, err := logrus.ParseLevel(os.Getenv(TestLogLevelEnvName))
	if err != nil {
		level = logrus.TraceLevel
	}
	logrus.SetLevel(level)

	if !isVerbose(os.Args) {
		logrus.StandardLogger().SetOutput(io.Discard)
	}
}

func DisableLogging() (reset func()) {
	originalLogOutput := logrus.StandardLogger().Out
	logrus.StandardLogger().SetOutput(io.Discard)
	return func() {
		logrus.StandardLogger().SetOutput(originalLogOutput)
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "-test.v" || arg == "-test.v=true" {
			return true
		}
	}
	return false
}
