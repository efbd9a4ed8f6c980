package openai

// VectorStore is a vector store as returned by the API.
type VectorStore struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// VectorStoreList is one page of the vector store listing.
type VectorStoreList struct {
	Object  string         `json:"object"`
	Data    []*VectorStore `json:"data"`
	FirstID string         `json:"first_id"`
	LastID  string         `json:"last_id"`
	HasMore bool           `json:"has_more"`
}

// File is an uploaded file as returned by the Files API.
type File struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Bytes     int64  `json:"bytes"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	CreatedAt int64  `json:"created_at"`
}

// VectorStoreFile is a file attachment within a vector store.
type VectorStoreFile struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	VectorStoreID string `json:"vector_store_id"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"created_at"`
}

// Deleted is the API acknowledgement of a delete operation.
type Deleted struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// errorResponse is the error envelope returned by the API.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
