// Package services holds the client's deploy driver: it publishes package
// metadata through the index API, then uploads the archive straight to the
// blob store with the credential the server returned.
package services
