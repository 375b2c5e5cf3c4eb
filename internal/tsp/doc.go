// Package tsp implements stochastic hill climbing for the symmetric
// Traveling Salesman Problem.
//
// A DistanceModel holds the immutable distance matrix. A Tour is an owned,
// closed visiting sequence together with its cached length. RandomTour seeds
// a search, a Mutator proposes neighbors by segment reversal or pairwise
// swap, and a HillClimber walks the mutation chain for a fixed iteration
// budget while keeping the shortest tour it has seen.
//
// All randomness flows through a RandomSource. CryptoSource is the default;
// SeededSource gives reproducible runs.
package tsp
