// Package mocks provides gomock implementations of the job service ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	blobs := mocks.NewMockBlobStore(ctrl)
//	blobs.EXPECT().Put(gomock.Any(), gomock.Any()).Return("/uploads/p.jpg", nil)
package mocks

// BlobStore: Put
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=blob_store_mock.go delivery-service/internal/jobs BlobStore

// Directory: Resolve
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go delivery-service/internal/jobs Directory
