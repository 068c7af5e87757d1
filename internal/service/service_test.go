package service

import (
	"context"
	"errors"
	"testing"

	"ripple/internal/media"
	"ripple/internal/models"
	"ripple/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Func-field stubs keep each test's behavior local to the test body.

type stubUserRepo struct {
	getByID    func(ctx context.Context, id uint) (*models.User, error)
	getByEmail func(ctx context.Context, email string) (*models.User, error)
	create     func(ctx context.Context, user *models.User) error
	update     func(ctx context.Context, user *models.User) error
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByID(ctx, id)
}
func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmail(ctx, email)
}
func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	return s.create(ctx, user)
}
func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	return s.update(ctx, user)
}

type stubPostRepo struct {
	create      func(ctx context.Context, post *models.Post) error
	getByID     func(ctx context.Context, id, currentUserID uint) (*models.Post, error)
	getByUserID func(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	list        func(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error)
	isLiked     func(ctx context.Context, userID, postID uint) (bool, error)
	like        func(ctx context.Context, userID, postID uint) error
	unlike      func(ctx context.Context, userID, postID uint) error
	countLikes  func(ctx context.Context, postID uint) (int, error)
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.Post) error {
	return s.create(ctx, post)
}
func (s *stubPostRepo) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByID(ctx, id, currentUserID)
}
func (s *stubPostRepo) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserID(ctx, userID, limit, offset, currentUserID)
}
func (s *stubPostRepo) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.list(ctx, limit, offset, currentUserID)
}
func (s *stubPostRepo) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLiked(ctx, userID, postID)
}
func (s *stubPostRepo) Like(ctx context.Context, userID, postID uint) error {
	return s.like(ctx, userID, postID)
}
func (s *stubPostRepo) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlike(ctx, userID, postID)
}
func (s *stubPostRepo) CountLikes(ctx context.Context, postID uint) (int, error) {
	return s.countLikes(ctx, postID)
}

type stubCommentRepo struct {
	create       func(ctx context.Context, comment *models.Comment) error
	getByID      func(ctx context.Context, id uint) (*models.Comment, error)
	listByPostID func(ctx context.Context, postID uint) ([]*models.Comment, error)
}

func (s *stubCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return s.create(ctx, comment)
}
func (s *stubCommentRepo) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByID(ctx, id)
}
func (s *stubCommentRepo) ListByPostID(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostID(ctx, postID)
}

type stubUploader struct {
	upload func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error)
}

func (s *stubUploader) Upload(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
	return s.upload(ctx, rawPayload, kind, folder)
}

func testIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer("service-test-secret-32-chars-long!!!")
	require.NoError(t, err)
	return issuer
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues verifiable token", func(t *testing.T) {
		var created *models.User
		repo := &stubUserRepo{
			getByEmail: func(ctx context.Context, email string) (*models.User, error) {
				return nil, nil
			},
			create: func(ctx context.Context, user *models.User) error {
				user.ID = 11
				created = user
				return nil
			},
		}
		issuer := testIssuer(t)
		svc := NewAuthService(repo, issuer, bcrypt.MinCost)

		user, tokenString, err := svc.Register(ctx, RegisterInput{
			Name:     "  Alice  ",
			Email:    "Alice@Example.COM",
			Password: "hunter22",
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email, "email must be normalized lowercase")
		assert.NotEqual(t, "hunter22", created.Password, "password must be stored hashed")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("hunter22")))

		userID, err := issuer.Verify(tokenString)
		require.NoError(t, err)
		assert.Equal(t, uint(11), userID)
	})

	t.Run("missing fields", func(t *testing.T) {
		repo := &stubUserRepo{}
		svc := NewAuthService(repo, testIssuer(t), bcrypt.MinCost)

		for _, in := range []RegisterInput{
			{Name: "", Email: "a@b.c", Password: "pw"},
			{Name: "A", Email: "", Password: "pw"},
			{Name: "A", Email: "a@b.c", Password: ""},
			{Name: "   ", Email: "a@b.c", Password: "pw"},
		} {
			_, _, err := svc.Register(ctx, in)
			assertAppErrorCode(t, err, models.CodeInvalidContent)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := &stubUserRepo{
			getByEmail: func(ctx context.Context, email string) (*models.User, error) {
				return &models.User{ID: 1, Email: email}, nil
			},
		}
		svc := NewAuthService(repo, testIssuer(t), bcrypt.MinCost)

		_, _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "taken@example.com", Password: "pw"})
		assertAppErrorCode(t, err, models.CodeEmailTaken)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubUserRepo{
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			if email == "known@example.com" {
				return &models.User{ID: 5, Email: email, Password: string(hashed)}, nil
			}
			return nil, nil
		},
	}
	issuer := testIssuer(t)
	svc := NewAuthService(repo, issuer, bcrypt.MinCost)

	t.Run("success", func(t *testing.T) {
		user, tokenString, err := svc.Login(ctx, "known@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, uint(5), user.ID)

		userID, err := issuer.Verify(tokenString)
		require.NoError(t, err)
		assert.Equal(t, uint(5), userID)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever")
		_, _, errWrong := svc.Login(ctx, "known@example.com", "wrong-password")

		assertAppErrorCode(t, errUnknown, models.CodeInvalidCredentials)
		assertAppErrorCode(t, errWrong, models.CodeInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	newRepo := func(saved **models.User) *stubUserRepo {
		return &stubUserRepo{
			getByID: func(ctx context.Context, id uint) (*models.User, error) {
				return &models.User{ID: id, Name: "Alice", Bio: "old bio", Avatar: "old.png"}, nil
			},
			update: func(ctx context.Context, user *models.User) error {
				*saved = user
				return nil
			},
		}
	}

	t.Run("bio only", func(t *testing.T) {
		var saved *models.User
		svc := NewUserService(newRepo(&saved), &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				t.Fatal("uploader must not be called without avatar data")
				return "", nil
			},
		})

		user, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Bio: "new bio"})
		require.NoError(t, err)
		assert.Equal(t, "new bio", user.Bio)
		assert.Equal(t, "old.png", user.Avatar)
		require.NotNil(t, saved)
	})

	t.Run("bio too long", func(t *testing.T) {
		var saved *models.User
		svc := NewUserService(newRepo(&saved), &stubUploader{})

		long := make([]byte, 501)
		for i := range long {
			long[i] = 'x'
		}
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Bio: string(long)})
		assertAppErrorCode(t, err, models.CodeInvalidContent)
		assert.Nil(t, saved, "nothing may persist on validation failure")
	})

	t.Run("avatar upload success", func(t *testing.T) {
		var saved *models.User
		var gotFolder string
		var gotKind media.Kind
		svc := NewUserService(newRepo(&saved), &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				gotFolder = folder
				gotKind = kind
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline, "avatar uploads must carry a deadline")
				return "https://cdn.example/new.png", nil
			},
		})

		user, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, AvatarData: "data:image/png;base64,aGk="})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/new.png", user.Avatar)
		assert.Equal(t, media.FolderProfiles, gotFolder)
		assert.Equal(t, media.KindImage, gotKind)
	})

	t.Run("avatar upload failure is strict", func(t *testing.T) {
		var saved *models.User
		svc := NewUserService(newRepo(&saved), &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				return "", errors.New("relay down")
			},
		})

		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Bio: "new bio", AvatarData: "data:image/png;base64,aGk="})
		assertAppErrorCode(t, err, models.CodeMediaUploadFailed)
		assert.Nil(t, saved, "a failed avatar relay must persist nothing, including the bio")
	})
}

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()

	newPostRepo := func(created **models.Post) *stubPostRepo {
		return &stubPostRepo{
			create: func(ctx context.Context, post *models.Post) error {
				post.ID = 21
				*created = post
				return nil
			},
			getByID: func(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
				return *created, nil
			},
		}
	}

	t.Run("empty content fails before any side effect", func(t *testing.T) {
		uploaderCalled := false
		repo := &stubPostRepo{
			create: func(ctx context.Context, post *models.Post) error {
				t.Fatal("create must not be reached")
				return nil
			},
		}
		svc := NewPostService(repo, &stubCommentRepo{}, &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				uploaderCalled = true
				return "", nil
			},
		}, media.BestEffort)

		_, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID:  1,
			Content:   "   ",
			ImageData: "data:image/png;base64,aGk=",
		})
		assertAppErrorCode(t, err, models.CodeInvalidContent)
		assert.False(t, uploaderCalled)
	})

	t.Run("image and video relayed to posts folder", func(t *testing.T) {
		var created *models.Post
		uploads := map[media.Kind]string{}
		svc := NewPostService(newPostRepo(&created), &stubCommentRepo{}, &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				assert.Equal(t, media.FolderPosts, folder)
				uploads[kind] = rawPayload
				if kind == media.KindImage {
					return "https://cdn.example/img.png", nil
				}
				return "https://cdn.example/clip.mp4", nil
			},
		}, media.BestEffort)

		post, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID:  1,
			Content:   "hello world",
			ImageData: "data:image/png;base64,aGk=",
			VideoData: "data:video/mp4;base64,aGk=",
		})
		require.NoError(t, err)
		assert.Len(t, uploads, 2)
		assert.Equal(t, "https://cdn.example/img.png", post.ImageURL)
		assert.Equal(t, "https://cdn.example/clip.mp4", post.VideoURL)
	})

	t.Run("best-effort policy keeps the post on relay failure", func(t *testing.T) {
		var created *models.Post
		svc := NewPostService(newPostRepo(&created), &stubCommentRepo{}, &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				return "", errors.New("relay down")
			},
		}, media.BestEffort)

		post, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID:  1,
			Content:   "text survives",
			ImageData: "data:image/png;base64,aGk=",
		})
		require.NoError(t, err)
		assert.Empty(t, post.ImageURL)
		assert.Equal(t, "text survives", post.Content)
	})

	t.Run("strict policy aborts on relay failure", func(t *testing.T) {
		repo := &stubPostRepo{
			create: func(ctx context.Context, post *models.Post) error {
				t.Fatal("create must not be reached under the strict policy")
				return nil
			},
		}
		svc := NewPostService(repo, &stubCommentRepo{}, &stubUploader{
			upload: func(ctx context.Context, rawPayload string, kind media.Kind, folder string) (string, error) {
				return "", errors.New("relay down")
			},
		}, media.Strict)

		_, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID:  1,
			Content:   "hello",
			ImageData: "data:image/png;base64,aGk=",
		})
		assertAppErrorCode(t, err, models.CodeMediaUploadFailed)
	})

	t.Run("content is trimmed", func(t *testing.T) {
		var created *models.Post
		svc := NewPostService(newPostRepo(&created), &stubCommentRepo{}, &stubUploader{}, media.BestEffort)

		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: 1, Content: "  padded  "})
		require.NoError(t, err)
		assert.Equal(t, "padded", created.Content)
	})
}

func TestPostService_ToggleLike(t *testing.T) {
	ctx := context.Background()

	// In-memory like state so toggling twice restores the original state.
	liked := false
	repo := &stubPostRepo{
		getByID: func(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
			if id != 7 {
				return nil, models.NewNotFoundError("Post", id)
			}
			return &models.Post{ID: 7}, nil
		},
		isLiked: func(ctx context.Context, userID, postID uint) (bool, error) {
			return liked, nil
		},
		like: func(ctx context.Context, userID, postID uint) error {
			liked = true
			return nil
		},
		unlike: func(ctx context.Context, userID, postID uint) error {
			liked = false
			return nil
		},
		countLikes: func(ctx context.Context, postID uint) (int, error) {
			if liked {
				return 1, nil
			}
			return 0, nil
		},
	}
	svc := NewPostService(repo, &stubCommentRepo{}, &stubUploader{}, media.BestEffort)

	first, err := svc.ToggleLike(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, 1, first.LikesCount)

	second, err := svc.ToggleLike(ctx, 7, 1)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, 0, second.LikesCount)

	_, err = svc.ToggleLike(ctx, 9999, 1)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestPostService_AddComment(t *testing.T) {
	ctx := context.Background()

	postRepo := &stubPostRepo{
		getByID: func(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
			if id != 7 {
				return nil, models.NewNotFoundError("Post", id)
			}
			return &models.Post{ID: 7}, nil
		},
	}

	t.Run("success reloads with author", func(t *testing.T) {
		commentRepo := &stubCommentRepo{
			create: func(ctx context.Context, comment *models.Comment) error {
				comment.ID = 31
				return nil
			},
			getByID: func(ctx context.Context, id uint) (*models.Comment, error) {
				return &models.Comment{ID: id, Content: "hi", User: models.User{Name: "Alice"}}, nil
			},
		}
		svc := NewPostService(postRepo, commentRepo, &stubUploader{}, media.BestEffort)

		comment, err := svc.AddComment(ctx, AddCommentInput{PostID: 7, AuthorID: 1, Content: "hi"})
		require.NoError(t, err)
		assert.Equal(t, uint(31), comment.ID)
		assert.Equal(t, "Alice", comment.User.Name)
	})

	t.Run("empty content", func(t *testing.T) {
		svc := NewPostService(postRepo, &stubCommentRepo{}, &stubUploader{}, media.BestEffort)
		_, err := svc.AddComment(ctx, AddCommentInput{PostID: 7, AuthorID: 1, Content: "   "})
		assertAppErrorCode(t, err, models.CodeInvalidContent)
	})

	t.Run("missing post", func(t *testing.T) {
		svc := NewPostService(postRepo, &stubCommentRepo{}, &stubUploader{}, media.BestEffort)
		_, err := svc.AddComment(ctx, AddCommentInput{PostID: 9999, AuthorID: 1, Content: "hi"})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})
}
