package docstore

import "context"

// Lifecycle folders a report moves through.
const (
	FolderNew        = "New"
	FolderInProgress = "InProgress"
	FolderDone       = "Done"
)

// File is a document in the store.
type File struct {
	ID   string
	Name string
}

// Store is the document store the lifecycle controller drives reports
// through. Reports are uploaded to the New folder by a human; results
// artifacts are uploaded next to the source.
type Store interface {
	ListFolder(ctx context.Context, folder string) ([]File, error)
	Move(ctx context.Context, fileID, targetFolder string) error
	Download(ctx context.Context, fileID, localPath string) error
	Upload(ctx context.Context, localPath string) error
}
