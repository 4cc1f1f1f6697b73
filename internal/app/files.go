package app

import (
	"context"
	"fmt"
	"path"

	"github.com/hylla/studioflow/internal/domain"
)

// AttachFileToTask uploads reference material to the blob store and records
// the file against the task. Archived tasks reject attachments.
func (s *Service) AttachFileToTask(ctx context.Context, taskID, name string, data []byte) (domain.FileRef, error) {
	if s.files == nil {
		return domain.FileRef{}, fmt.Errorf("file store is not configured")
	}
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.FileRef{}, err
	}
	if task.IsArchived() {
		return domain.FileRef{}, fmt.Errorf("task %q is archived: %w", taskID, ErrInvalidTransition)
	}
	if name == "" {
		return domain.FileRef{}, domain.ErrInvalidName
	}

	storagePath := path.Join("tasks", task.ID, name)
	url, err := s.files.Upload(ctx, storagePath, data)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("upload %q: %w", storagePath, err)
	}
	ref := domain.FileRef{
		ID:        s.idGen(),
		TaskID:    task.ID,
		Name:      name,
		Path:      url,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.PutFileRef(ctx, ref); err != nil {
		return domain.FileRef{}, err
	}
	return ref, nil
}

// RemoveFile deletes the blob and its record.
func (s *Service) RemoveFile(ctx context.Context, fileID string) error {
	ref, err := s.repo.GetFileRef(ctx, fileID)
	if err != nil {
		return err
	}
	if s.files != nil {
		if err := s.files.Delete(ctx, ref.Path); err != nil {
			return fmt.Errorf("delete blob %q: %w", ref.Path, err)
		}
	}
	return s.repo.DeleteFileRef(ctx, fileID)
}
