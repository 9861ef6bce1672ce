//go:build !nohadoop

package main

// Build with -tags nohadoop to leave the Hadoop capabilities out.
import _ "enginehost/internal/hadoop"
