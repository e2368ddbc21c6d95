// Package storage provides an abstraction layer for the object storage
// service that run reports are exported to.
//
// It wraps the MinIO Go client with a narrow interface (bucket checks, upload,
// download, listing) so that report export and the serve command can be tested
// against mocks (see core/storage/mocks). Both AWS S3 and self-hosted MinIO
// endpoints are supported.
package storage
