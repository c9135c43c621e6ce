package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
)

//nolint:gochecknoglobals // read only lookup
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileUpdateAvatarInput struct {
	File io.Reader
	// ContentType is sniffed from the file head, not taken from the client.
	ContentType string
}

// avatarStore locates uploaded avatars. Objects live under
// avatars/<user id>/ and are served from BaseURL.
type avatarStore struct {
	Bucket  string
	BaseURL string
	MaxSize int64
}

func (s *Usecase) avatarStore() avatarStore {
	return avatarStore{
		Bucket:  strings.TrimSpace(s.cfg.GetString("modules.identity.avatar_bucket")),
		BaseURL: strings.TrimRight(strings.TrimSpace(s.cfg.GetString("modules.identity.avatar_base_url")), "/"),
		MaxSize: s.cfg.GetInt64("modules.identity.avatar_max_size_bytes"),
	}
}

func avatarPrefix(userID int64) string {
	return "avatars/" + strconv.FormatInt(userID, 10) + "/"
}

// key returns the object key behind an avatar URL. Generated avatars are not
// ours to delete.
func (a avatarStore) key(avatarURL string) (string, bool) {
	if a.BaseURL == "" {
		return "", false
	}
	return strings.CutPrefix(avatarURL, a.BaseURL+"/")
}

// removeUploaded deletes the stored object of a previous avatar. Failures
// only leave an orphan object behind, so they are logged.
func (s *Usecase) removeUploaded(ctx context.Context, store avatarStore, user *entity.User) {
	key, ok := store.key(user.AvatarURL)
	if !ok {
		return
	}
	if err := s.storage.Delete(ctx, store.Bucket, key); err != nil {
		slog.WarnContext(ctx, "failed to delete previous avatar object", "user_id", user.ID, "key", key, "error", err)
	}
}

func (s *Usecase) ProfileUpdateAvatar(ctx context.Context, in ProfileUpdateAvatarInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdateAvatar")
	defer span.End()

	if in.File == nil {
		return goerror.NewInvalidInput(nil, "avatar", "avatar file is required")
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return goerror.NewInvalidInput(nil, "avatar", "unsupported avatar image type")
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	store := s.avatarStore()

	// one byte past the limit tells an oversized file from one that fits
	body, err := io.ReadAll(io.LimitReader(in.File, store.MaxSize+1))
	if err != nil {
		slog.WarnContext(ctx, "failed to read avatar upload", "user_id", user.ID, "error", err)
		return goerror.NewInvalidFormat("Invalid avatar file")
	}
	if int64(len(body)) > store.MaxSize {
		return goerror.NewInvalidInput(nil, "avatar", "avatar exceeds max size")
	}

	key := avatarPrefix(user.ID) + s.uuid.Generate() + ext
	if _, err := s.storage.Put(ctx, store.Bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: contentType,
		Metadata:    map[string]string{"user_id": strconv.FormatInt(user.ID, 10)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload user avatar", "user_id", user.ID, "key", key, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserAvatar(ctx, user.ID, store.BaseURL+"/"+key); err != nil {
		slog.ErrorContext(ctx, "failed to update user avatar", "user_id", user.ID, "error", err)
		if dErr := s.storage.Delete(ctx, store.Bucket, key); dErr != nil {
			slog.WarnContext(ctx, "failed to delete unreferenced avatar object", "key", key, "error", dErr)
		}
		return goerror.NewServer(err)
	}

	s.removeUploaded(ctx, store, user)
	return nil
}
