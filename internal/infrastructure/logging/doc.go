// Package logging provides structured logging using uber/zap.
//
// Production mode emits JSON for machine parsing; development mode emits
// colored console output. WithChallenge/WithRun attach the identifiers
// every secure-core log line should carry, so audit trails and zap
// output can be correlated.
package logging
