package common

const (
	// ArchiveContentType is the media type of every package archive, both in
	// the signed upload credential and in the client's PUT request.
	ArchiveContentType = "application/zip"

	// ArchiveACLHeader and ArchiveACL grant public read on uploaded archives.
	ArchiveACLHeader = "x-amz-acl"
	ArchiveACL       = "public-read"

	// ArchiveExtension is appended to a package name to form its object key.
	ArchiveExtension = ".zip"

	// DefaultLicense is applied by the client when module.json names none.
	DefaultLicense = "GNU GPL v3"
)

// ArchiveObjectKey returns the blob store key of a package's archive.
func ArchiveObjectKey(packageName string) string {
	return packageName + ArchiveExtension
}
