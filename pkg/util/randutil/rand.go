// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package randutil provides seeded random number generators for tests. A
// failing seed can be pinned by exporting COCKROACH_RANDOM_SEED.
package randutil

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
)

// randomSeedEnv names the environment variable that, when set, pins the seed
// used by NewTestRand and NewPseudoRand.
const randomSeedEnv = "COCKROACH_RANDOM_SEED"

// NewTestRand returns an instance of math/rand.Rand seeded from a random
// seed, along with the seed itself so that a failing run can be reproduced.
func NewTestRand() (*rand.Rand, int64) {
	return NewPseudoRand()
}

// NewPseudoRand returns an instance of math/rand.Rand seeded from the
// environment-pinned seed if present, or the current time, and returns the
// seed value.
func NewPseudoRand() (*rand.Rand, int64) {
	seed := SeedForTests()
	return rand.New(rand.NewSource(seed)), seed
}

// SeedForTests returns the seed to use for tests: the value of
// COCKROACH_RANDOM_SEED if set, or a time-derived seed otherwise.
func SeedForTests() int64 {
	if str, ok := os.LookupEnv(randomSeedEnv); ok {
		seed, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			panic(fmt.Sprintf("invalid %s: %s", randomSeedEnv, str))
		}
		return seed
	}
	return time.Now().UnixNano()
}

// RandBytes returns a byte slice of the given length with random data.
func RandBytes(rng *rand.Rand, size int) []byte {
	if size <= 0 {
		return nil
	}
	arr := make([]byte, size)
	for i := range arr {
		arr[i] = byte(rng.Intn(256))
	}
	return arr
}

// RandIntInRange returns a value in [min, max).
func RandIntInRange(rng *rand.Rand, min int, max int) int {
	return min + rng.Intn(max-min)
}
