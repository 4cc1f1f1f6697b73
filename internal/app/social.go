package app

import (
	"github.com/hylla/studioflow/internal/domain"
)

// socialHandover creates the downstream social post for a task when the
// handover guard passes: the task requires one and none is linked yet. The
// caller must persist the returned post and the mutated task in the same
// batch: the socialPostId stamp riding the status advance is what keeps a
// retried advance from minting a duplicate. The guard is the presence check
// itself; the store has no create-once primitive, so a narrow double-submit
// race window remains and is accepted.
func (s *Service) socialHandover(task *domain.Task) (*domain.SocialPost, error) {
	if !task.RequiresSocialPost || task.SocialPostID != "" {
		return nil, nil
	}
	post, err := domain.NewSocialPostFromTask(s.idGen(), *task, s.clock())
	if err != nil {
		return nil, err
	}
	if err := task.LinkSocialPost(post.ID); err != nil {
		return nil, err
	}
	return &post, nil
}
