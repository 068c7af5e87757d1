package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ripple/internal/media"
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"
)

// PostService handles post creation, listing, like toggling and comments.
// Post media uploads run under the configured failure policy; the default
// BestEffort policy logs a failed upload and creates the post without that
// media field.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	uploader    media.Uploader
	policy      media.FailurePolicy
}

type CreatePostInput struct {
	AuthorID  uint
	Content   string
	ImageData string
	VideoData string
}

type AddCommentInput struct {
	PostID   uint
	AuthorID uint
	Content  string
}

// ToggleLikeResult reports the state after a like toggle.
type ToggleLikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	uploader media.Uploader,
	policy media.FailurePolicy,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		uploader:    uploader,
		policy:      policy,
	}
}

// CreatePost validates content before any persistence or upload attempt, then
// relays media and persists the post. Media fields are set at creation only.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewInvalidContentError("Content is required for creating a post")
	}

	post := &models.Post{
		Content: content,
		UserID:  in.AuthorID,
	}

	if in.ImageData != "" {
		url, err := s.relay(ctx, in.ImageData, media.KindImage, media.PostImageTimeout)
		if err != nil {
			return nil, err
		}
		post.ImageURL = url
	}

	if in.VideoData != "" {
		url, err := s.relay(ctx, in.VideoData, media.KindVideo, media.PostVideoTimeout)
		if err != nil {
			return nil, err
		}
		post.VideoURL = url
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Reload so the response carries the populated author and counts.
	return s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
}

// relay uploads one payload under the service's failure policy. Under
// BestEffort a failure is logged and an empty URL returned; under Strict it
// aborts the operation.
func (s *PostService) relay(ctx context.Context, payload string, kind media.Kind, timeout time.Duration) (string, error) {
	uploadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url, err := s.uploader.Upload(uploadCtx, payload, kind, media.FolderPosts)
	if err == nil {
		return url, nil
	}
	if s.policy == media.Strict {
		return "", models.NewMediaUploadFailedError(err)
	}
	middleware.Logger.WarnContext(ctx, "post media upload failed, continuing without it",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return "", nil
}

func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, currentUserID)
}

// ListPosts returns the feed newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset, currentUserID)
}

// ListPostsByAuthor returns one author's posts newest first.
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, authorID, limit, offset, currentUserID)
}

// ToggleLike flips the caller's like on the post: liked becomes unliked and
// vice versa. Each call changes state; the operation is not idempotent.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*ToggleLikeResult, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return nil, err
	}

	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if liked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
	} else {
		if err := s.postRepo.Like(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	count, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &ToggleLikeResult{Liked: !liked, LikesCount: count}, nil
}

// AddComment appends a comment to the post. Comments are never edited or
// removed afterwards.
func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewInvalidContentError("Comment content is required")
	}

	if _, err := s.postRepo.GetByID(ctx, in.PostID, in.AuthorID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.AuthorID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Reload so the response carries the populated author.
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns a post's comments oldest first.
func (s *PostService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPostID(ctx, postID)
}
