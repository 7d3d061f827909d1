// Package helper runs the code formatters over the files changed by a pull
// request and reports the result on the pull request.
//
// Each formatter either finds nothing, in which case a previous status
// comment is flipped to the success template, or produces a diff. A diff is
// posted in a tagged comment (upserted so reruns edit the same comment) or,
// in apply mode, applied to the head branch, committed and pushed. The
// tagged comment is the only state carried between runs.
package helper
