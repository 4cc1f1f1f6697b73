package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hylla/studioflow/internal/domain"
)

// archiveFolderName is the per-project folder archived task files move into.
const archiveFolderName = "Archive"

// postedPostsFolderName is the per-client intermediate folder for archived
// social posts.
const postedPostsFolderName = "Posted Posts"

// archiveWrites collects the folder and file-relocation writes one archive
// operation must commit alongside its status stamps.
type archiveWrites struct {
	folders []domain.Folder
	files   []domain.FileRef
}

func (w *archiveWrites) apply(tx BatchTx) error {
	for _, folder := range w.folders {
		if err := tx.PutFolder(folder); err != nil {
			return err
		}
	}
	for _, file := range w.files {
		if err := tx.PutFileRef(file); err != nil {
			return err
		}
	}
	return nil
}

// lookupOrCreateFolder finds a folder by (parent, name) or synthesizes a new
// one recorded in writes. Lookup-or-create is query-then-create against the
// store; a concurrent duplicate is the documented accepted race.
func (s *Service) lookupOrCreateFolder(ctx context.Context, parentID, name, projectID, clientID string, writes *archiveWrites) (domain.Folder, error) {
	for _, folder := range writes.folders {
		if folder.ParentID == parentID && folder.Name == name {
			return folder, nil
		}
	}
	folder, err := s.repo.FindFolder(ctx, parentID, name)
	if err == nil {
		return folder, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Folder{}, err
	}
	folder = domain.Folder{
		ID:        s.idGen(),
		Name:      name,
		ParentID:  parentID,
		ProjectID: projectID,
		ClientID:  clientID,
		CreatedAt: s.clock().UTC(),
	}
	writes.folders = append(writes.folders, folder)
	return folder, nil
}

// collectTaskArchiveWrites relocates a task's files into a task-specific
// subfolder under the project-level archive folder.
func (s *Service) collectTaskArchiveWrites(ctx context.Context, task domain.Task, writes *archiveWrites) error {
	archiveFolder, err := s.lookupOrCreateFolder(ctx, task.ProjectID, archiveFolderName, task.ProjectID, "", writes)
	if err != nil {
		return err
	}
	taskFolder := domain.Folder{
		ID:        s.idGen(),
		Name:      task.Title,
		ParentID:  archiveFolder.ID,
		ProjectID: task.ProjectID,
		CreatedAt: s.clock().UTC(),
	}
	writes.folders = append(writes.folders, taskFolder)

	files, err := s.repo.ListFileRefsByTask(ctx, task.ID)
	if err != nil {
		return err
	}
	for _, file := range files {
		file.FolderID = taskFolder.ID
		writes.files = append(writes.files, file)
	}
	return nil
}

// ArchiveTask stamps the task archived and relocates its files, one atomic
// batch covering the stamp, folder creation, and every file move.
func (s *Service) ArchiveTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.IsArchived() {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, ErrAlreadyArchived)
	}

	writes := &archiveWrites{}
	if err := s.collectTaskArchiveWrites(ctx, task, writes); err != nil {
		return domain.Task{}, err
	}
	task.Archive(s.clock())

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := writes.apply(tx); err != nil {
			return err
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// RestoreTask clears the task's archive stamps. Files stay where the
// archive pass moved them; only the visibility stamps reverse.
func (s *Service) RestoreTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.IsArchived() {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, ErrNotArchived)
	}
	task.Restore(s.clock())
	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ArchiveSocialPost archives a post, relocating its files under the owning
// client's "Posted Posts" folder with a post-specific subfolder.
func (s *Service) ArchiveSocialPost(ctx context.Context, postID, actorID string) (domain.SocialPost, error) {
	post, err := s.repo.GetSocialPost(ctx, postID)
	if err != nil {
		return domain.SocialPost{}, err
	}
	if post.ArchivedAt != nil {
		return domain.SocialPost{}, fmt.Errorf("social post %q: %w", postID, ErrAlreadyArchived)
	}

	writes := &archiveWrites{}
	postedFolder, err := s.lookupOrCreateFolder(ctx, post.ClientID, postedPostsFolderName, "", post.ClientID, writes)
	if err != nil {
		return domain.SocialPost{}, err
	}
	postFolder := domain.Folder{
		ID:        s.idGen(),
		Name:      post.Title,
		ParentID:  postedFolder.ID,
		ClientID:  post.ClientID,
		CreatedAt: s.clock().UTC(),
	}
	writes.folders = append(writes.folders, postFolder)

	files, err := s.repo.ListFileRefsByPost(ctx, post.ID)
	if err != nil {
		return domain.SocialPost{}, err
	}
	for _, file := range files {
		file.FolderID = postFolder.ID
		writes.files = append(writes.files, file)
	}

	post.Archive(s.clock())
	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := writes.apply(tx); err != nil {
			return err
		}
		return tx.PutSocialPost(post)
	})
	if err != nil {
		return domain.SocialPost{}, err
	}
	return post, nil
}
