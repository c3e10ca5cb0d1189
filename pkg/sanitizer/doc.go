// Package sanitizer provides input normalization for catalog and
// reservation data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Lab names: whitespace-collapsed and upper-cased, matching the roster
//     source where room names are compared case-insensitively
//   - Software names: lowercase, whitespace-collapsed
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
