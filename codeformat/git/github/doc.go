// Package github implements git.ReviewProvider on top of the GitHub REST
// API (cloud or enterprise). Configure with a Config holding the repository
// owner, name, and access token. Requests go through an oauth2 token
// transport, an ETag cache, and a secondary rate limit guard.
package github
