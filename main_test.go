package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	return body, nil
}

func TestClassifyCommand(t *testing.T) {
	body, err := execute(t, "classify", "--score", "68", "--unit", "percent")
	require.NoError(t, err)
	assert.Equal(t, "Moderate", body["label"])
	assert.Equal(t, "warn", body["severity_tier"])
	assert.InDelta(t, 0.68, body["fraction"], 1e-9)

	body, err = execute(t, "classify", "--score", "0.7", "--unit", "fraction")
	require.NoError(t, err)
	assert.Equal(t, "High", body["label"])

	_, err = execute(t, "classify", "--score", "0.7", "--unit", "ratio")
	assert.Error(t, err)
}

func TestRouteCommand(t *testing.T) {
	body, err := execute(t, "route", "--path", "/clinician/alerts", "--role", "parent")
	require.NoError(t, err)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "forbidden", body["reason"])
	assert.Equal(t, "/parent/dashboard", body["redirect"])
	assert.Equal(t, "/parent/dashboard", body["landing"])

	body, err = execute(t, "route", "--path", "/clinician", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, true, body["allowed"])
	assert.Equal(t, "/clinician/dashboard", body["path"])

	body, err = execute(t, "route", "--path", "/parent/screening", "--role", "")
	require.NoError(t, err)
	assert.Equal(t, "/login", body["redirect"])
	assert.Equal(t, "/login", body["landing"])

	_, err = execute(t, "route", "--path", "/parent/screening", "--role", "Parent")
	assert.Error(t, err)
}
