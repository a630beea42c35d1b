// Package benchmark holds performance benchmarks for the request hot paths:
// token signing, password hashing, the user cache and rate limiting.
//
// Run with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare runs with benchstat old.txt new.txt.
package benchmark
