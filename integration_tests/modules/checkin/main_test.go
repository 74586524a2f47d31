//go:build integration

package checkinintegrationtests

import (
	"log"
	"os"
	"testing"

	"github.com/Black-And-White-Club/tourney-desk/integration_tests/testutils"
)

var testEnv *testutils.TestEnvironment

func TestMain(m *testing.M) {
	env, err := testutils.NewTestEnvironment(testutils.Options{Postgres: true})
	if err != nil {
		log.Fatalf("Failed to set up test environment: %v", err)
	}
	testEnv = env

	code := m.Run()
	env.Cleanup()
	os.Exit(code)
}
