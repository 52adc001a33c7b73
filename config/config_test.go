package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV", "value")
	if got := getEnv("TEST_GET_ENV", "default"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("TEST_GET_ENV_UNSET", "default"); got != "default" {
		t.Errorf("getEnv = %q, want default", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "5")
	if got := getEnvAsInt("TEST_INT", 1); got != 5 {
		t.Errorf("getEnvAsInt = %d, want 5", got)
	}

	t.Setenv("TEST_INT_BAD", "not a number")
	if got := getEnvAsInt("TEST_INT_BAD", 3); got != 3 {
		t.Errorf("getEnvAsInt on invalid value = %d, want default 3", got)
	}

	if got := getEnvAsInt("TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("getEnvAsInt unset = %d, want default 7", got)
	}
}
