// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package envutil reads typed defaults from COCKROACH_ environment variables.
package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const envPrefix = "COCKROACH_"

func checkVarName(name string) {
	if !strings.HasPrefix(name, envPrefix) {
		panic(errors.AssertionFailedf("environment variable %s must start with %s", name, envPrefix))
	}
	if strings.ToUpper(name) != name {
		panic(errors.AssertionFailedf("environment variable %s must be upper case", name))
	}
}

func getEnv(name string) (string, bool) {
	checkVarName(name)
	return os.LookupEnv(name)
}

// EnvString returns the value set by the specified environment variable and
// whether it was set.
func EnvString(name string) (string, bool) {
	return getEnv(name)
}

// EnvOrDefaultBool returns the value set by the specified environment
// variable, if any, otherwise the specified default value.
func EnvOrDefaultBool(name string, value bool) bool {
	if str, ok := getEnv(name); ok {
		v, err := strconv.ParseBool(str)
		if err != nil {
			panic(errors.Wrapf(err, "error parsing %s", name))
		}
		return v
	}
	return value
}

// EnvOrDefaultInt returns the value set by the specified environment
// variable, if any, otherwise the specified default value.
func EnvOrDefaultInt(name string, value int) int {
	if str, ok := getEnv(name); ok {
		v, err := strconv.ParseInt(str, 0, 0)
		if err != nil {
			panic(errors.Wrapf(err, "error parsing %s", name))
		}
		return int(v)
	}
	return value
}

// EnvOrDefaultDuration returns the value set by the specified environment
// variable, if any, otherwise the specified default value.
func EnvOrDefaultDuration(name string, value time.Duration) time.Duration {
	if str, ok := getEnv(name); ok {
		v, err := time.ParseDuration(str)
		if err != nil {
			panic(errors.Wrapf(err, "error parsing %s", name))
		}
		return v
	}
	return value
}
