package interfaces

import "context"

// IndexStore manages documents in a remote vector store collection
type IndexStore interface {
	// ResolveCollection finds a collection by exact name, creating it when
	// absent, and returns its ID
	ResolveCollection(ctx context.Context, name string) (string, error)

	// UploadDocument uploads document content and returns the remote file ID
	UploadDocument(ctx context.Context, filename string, content []byte) (string, error)

	// AttachDocument attaches an uploaded file to a collection
	AttachDocument(ctx context.Context, collectionID, fileID string) error

	// DetachDocument removes a file from a collection without deleting it
	DetachDocument(ctx context.Context, collectionID, fileID string) error

	// DeleteDocument permanently deletes an uploaded file
	DeleteDocument(ctx context.Context, fileID string) error
}
