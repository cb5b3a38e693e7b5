package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"playaway/internal/apperr"
	"playaway/internal/config"
	"playaway/internal/ids"
	"playaway/internal/media/sniffer"
	"playaway/internal/media/svg"
	"playaway/internal/models"
	"playaway/internal/repository"
	"playaway/internal/security"
	"playaway/internal/storage"
)

type ClubService struct {
	clubs *repository.ClubRepository
	store *storage.ObjectStore
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewClubService(clubs *repository.ClubRepository, store *storage.ObjectStore, cfg *config.AppConfig, log zerolog.Logger) *ClubService {
	return &ClubService{
		clubs: clubs,
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

type CreateClubInput struct {
	Name    string
	County  string
	Country string
}

// Create registers a club and makes the creator its first admin.
func (s *ClubService) Create(ctx context.Context, creatorID string, input CreateClubInput) (models.Club, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.Club{}, apperr.New(apperr.KindValidation, "club name is required")
	}

	club := models.Club{
		ID:      ids.New(),
		Name:    input.Name,
		County:  strings.TrimSpace(input.County),
		Country: strings.TrimSpace(input.Country),
	}

	if err := s.clubs.Create(ctx, club); err != nil {
		return models.Club{}, err
	}

	if err := s.clubs.AddMember(ctx, models.ClubMember{
		ClubID:    club.ID,
		AccountID: creatorID,
		IsAdmin:   true,
	}); err != nil {
		return models.Club{}, err
	}

	return s.clubs.GetByID(ctx, club.ID)
}

// UploadCrest validates, sanitizes and stores a club crest image, then
// points the club record at it.
func (s *ClubService) UploadCrest(ctx context.Context, clubID string, actor models.Account, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.New(apperr.KindValidation, "empty file")
	}

	if err := s.authorize(ctx, clubID, actor); err != nil {
		return "", err
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	result, err := sniffer.DetectHead(head)
	if err != nil {
		return "", apperr.New(apperr.KindValidation, "unsupported image type")
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return "", apperr.Wrap(apperr.KindValidation, "invalid svg", err)
		}
		data = clean
	}

	bucket := s.cfg.Storage.BucketCrests
	objectKey := path.Join(time.Now().UTC().Format("2006/01/02"), fmt.Sprintf("%s.%s", clubID, result.Type))
	signature := security.SignResource(s.cfg.Security.ResourceSecret, clubID, objectKey)

	_, err = s.store.Client().PutObject(ctx, bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: result.MIME,
		UserMetadata: map[string]string{
			"x-playaway-signature": string(signature),
		},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "store crest failed", err)
	}

	crestURL := s.store.PublicURL(bucket, objectKey)
	if err := s.clubs.UpdateCrest(ctx, clubID, crestURL); err != nil {
		if errors.Is(err, repository.ErrClubNotFound) {
			return "", apperr.New(apperr.KindNotFound, "club not found")
		}
		return "", err
	}

	return crestURL, nil
}

func (s *ClubService) authorize(ctx context.Context, clubID string, actor models.Account) error {
	if actor.Role == models.AccountRoleSuperAdmin {
		return nil
	}
	isAdmin, err := s.clubs.IsAdmin(ctx, clubID, actor.ID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperr.New(apperr.KindForbidden, "club admin role required")
	}
	return nil
}
