package main

import "testing"

func TestRootHelpListsCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--help"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"start", "stop", "restart", "status", "queue", "run-once", "check-now", "health", "logs", "test-notify", "config"} {
		requireContains(t, out, name)
	}
}

func TestRootVersion(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--version"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, cliVersion)
}
