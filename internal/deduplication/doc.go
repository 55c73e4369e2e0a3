// Package deduplication selects sets of quiz questions in which no two
// questions are near-duplicates of each other.
//
// # Overview
//
// Question banks grow by accretion: the same question gets re-entered with
// different punctuation, a reworded stem, or a shuffled set of choices. When
// a practice set or exam is drawn from such a bank, near-duplicates waste
// slots and leak answers. This package detects them with a fixed, rule-based
// similarity check and builds selections around it.
//
// # Architecture
//
// The package has two layers:
//
//  1. Similarity engine (Compare, TextSimilarity, ChoiceSimilarity): decides
//     whether two questions are duplicates under a threshold
//  2. Sampler (Sampler.Sample): filters a pool, shuffles it, and greedily
//     accepts candidates that are not duplicates of anything already accepted
//
// Audit reuses the engine to list every duplicate pair in a bank.
//
// # Comparison Rules
//
// Compare applies these rules in order and stops at the first match:
//   - Same id: duplicate, score 1.0
//   - Identical stem text: duplicate, score 1.0
//   - Stem similarity (lower-cased, trimmed, edit distance over runes)
//     at or above the threshold: duplicate, score = similarity
//   - Choice similarity (when enabled): sorted choice texts paired by
//     position, at least ChoiceMatchRatio of pairs similar at
//     ChoiceMatchThreshold: duplicate, score = ChoiceDuplicateScore
//
// Anything else is not a duplicate and carries no score.
//
// # Threshold Relaxation
//
// A strict threshold can make a request unsatisfiable when the filtered pool
// is dense with related questions. When a pass comes back short the sampler
// lowers the threshold by RelaxationStep (rounded to one decimal) and starts
// a fresh pass, as long as the threshold is still above RelaxationFloor and
// fewer than MaxAttempts passes have run. Each step is logged at WARN level
// and recorded in SampleResult.Relaxations. The sampler never fails because
// of a shortfall; callers decide whether a short result is an error.
//
// # Configuration
//
// Defaults:
//   - SimilarityThreshold: 0.8
//   - CheckChoices: true
//   - RelaxationStep: 0.1
//   - RelaxationFloor: 0.5
//   - MaxAttempts: 10
//
// See ConfigFromEnv for the QUIZDEDUP_* environment overrides.
//
// # Usage
//
//	sampler, err := deduplication.NewSampler(deduplication.DefaultConfig(),
//	    deduplication.WithRand(rand.New(rand.NewSource(42))))
//	if err != nil {
//	    return err
//	}
//
//	result, err := sampler.Sample(pool, types.SamplingRequest{
//	    Count:  10,
//	    Domain: types.DomainPtr(types.DomainSecurity),
//	    Lang:   "en",
//	})
//	if err != nil {
//	    return err
//	}
//	if result.Shortfall() > 0 {
//	    log.Printf("only %d of %d questions available", len(result.Questions), result.Requested)
//	}
//
// # Determinism
//
// Comparison is deterministic and symmetric. Sampling order depends only on
// the injected random source, so a fixed seed reproduces a selection.
//
// # Concurrency
//
// A Sampler owns its random source and is not safe for concurrent use.
// Compare, TextSimilarity and ChoiceSimilarity are pure functions.
package deduplication
