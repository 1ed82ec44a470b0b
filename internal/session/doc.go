// Package session holds the mutable state of one comparison: the reference
// and mine photos, the last suggestion and the sliders currently in effect.
//
// # Lifecycle
//
//  1. LoadReference and LoadMine decode nothing themselves; they take photos
//     produced by the imaging package, keep the full-resolution copy, build a
//     downscaled working copy and measure it.
//  2. Analyze maps the two measurements to a suggestion and makes it current.
//  3. SetAdjustments, ResetToSuggested and ResetAdjustments edit the sliders.
//  4. Preview renders the sliders over the working copy; Export renders them
//     over the full-resolution copy.
//
// Renders always start from the untouched snapshot, so repeated previews never
// accumulate adjustments.
//
// # Thread Safety
//
// A Session is safe for concurrent use. Snapshots are immutable once stored;
// the pixel work of Preview and Export runs outside the lock.
package session
