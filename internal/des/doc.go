// Package des estimates the number of distinct items in a single-pass stream
// using the sampling algorithm from "Distinct Elements in Streams: An Algorithm
// for the (Text) Book" by Chakraborty, Vinodchandran and Meel.
//
// The estimator keeps a bounded set of witnesses. Every observed item is first
// removed from the set and then re-inserted with the current retention
// probability p. When the set reaches the threshold, each witness is kept with
// probability 1/2 and p is halved. The estimate is |set| / p.
//
// The threshold bounds memory and is either fixed or sized from the declared
// stream length and the (epsilon, delta) accuracy targets:
//
//	threshold = ceil((12 / epsilon^2) * ln(8 * n / delta))
//
// Runs are reproducible: every Estimator owns its PRNG, seeded from an explicit
// seed or from a caller supplied entropy reader, and the witness set iterates
// in a deterministic order.
package des
