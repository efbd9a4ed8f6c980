package openai

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/interfaces"
)

// Store adapts the OpenAI client to the index store contract. Collections map
// to vector stores; documents map to uploaded files attached to them.
type Store struct {
	client *Client
	logger arbor.ILogger
}

var _ interfaces.IndexStore = (*Store)(nil)

// NewStore creates an index store backed by the OpenAI API.
func NewStore(client *Client, logger arbor.ILogger) *Store {
	return &Store{
		client: client,
		logger: logger,
	}
}

// ResolveCollection finds the vector store with the exact given name, creating
// it when absent, and returns its ID.
func (s *Store) ResolveCollection(ctx context.Context, name string) (string, error) {
	store, err := s.client.FindVectorStoreByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to find vector store %q: %w", name, err)
	}

	if store != nil {
		s.logger.Debug().
			Str("name", name).
			Str("vector_store_id", store.ID).
			Msg("Resolved existing vector store")
		return store.ID, nil
	}

	created, err := s.client.CreateVectorStore(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to create vector store %q: %w", name, err)
	}

	s.logger.Info().
		Str("name", name).
		Str("vector_store_id", created.ID).
		Msg("Created vector store")

	return created.ID, nil
}

// UploadDocument uploads document content and returns the remote file ID.
func (s *Store) UploadDocument(ctx context.Context, filename string, content []byte) (string, error) {
	file, err := s.client.UploadFile(ctx, filename, content)
	if err != nil {
		return "", fmt.Errorf("failed to upload document %s: %w", filename, err)
	}

	s.logger.Debug().
		Str("filename", filename).
		Str("file_id", file.ID).
		Int("bytes", len(content)).
		Msg("Uploaded document")

	return file.ID, nil
}

// AttachDocument attaches an uploaded file to a collection.
func (s *Store) AttachDocument(ctx context.Context, collectionID, fileID string) error {
	if _, err := s.client.CreateVectorStoreFile(ctx, collectionID, fileID); err != nil {
		return fmt.Errorf("failed to attach document %s: %w", fileID, err)
	}
	return nil
}

// DetachDocument removes a file from a collection without deleting it.
func (s *Store) DetachDocument(ctx context.Context, collectionID, fileID string) error {
	if err := s.client.DeleteVectorStoreFile(ctx, collectionID, fileID); err != nil {
		return fmt.Errorf("failed to detach document %s: %w", fileID, err)
	}
	return nil
}

// DeleteDocument permanently deletes an uploaded file.
func (s *Store) DeleteDocument(ctx context.Context, fileID string) error {
	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", fileID, err)
	}
	return nil
}
