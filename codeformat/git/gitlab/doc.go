// Package gitlab implements git.ReviewProvider on top of GitLab merge
// request notes. A provider is bound to one merge request, since notes are
// addressed through the merge request that holds them.
package gitlab
