// Package validation rejects unacceptable uploads before any image
// processing begins.
//
// A batch is checked once as a whole: too many files fails the batch with a
// single error, otherwise every file is checked for MIME type and size and all
// failures are reported together in a *Rejection.
package validation
