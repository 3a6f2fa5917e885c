package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

const (
	maxGalleryDescription = 500
	fallbackMimeType      = "application/octet-stream"
)

// GalleryUpload is one photo filed under a stage. An empty Stage files it
// under the ficha's current stage.
type GalleryUpload struct {
	Stage       domainwf.StageKey
	Description string
	Name        string
	Content     []byte
}

// GalleryService manages the per-stage photo gallery of a ficha
type GalleryService interface {
	List(ctx context.Context, fichaID int64, stage domainwf.StageKey) ([]entity.StageImage, error)
	Upload(ctx context.Context, actor entity.Actor, fichaID int64, upload GalleryUpload) (*entity.StageImage, error)
	// Open returns the image record with its stored content
	Open(ctx context.Context, fichaID, imageID int64) (*entity.StageImage, []byte, error)
	Delete(ctx context.Context, fichaID, imageID int64) error
}

type galleryServiceImpl struct {
	catalog     *domainwf.Catalog
	fichaRepo   port.FichaRepository
	galleryRepo port.StageImageRepository
	images      port.ImageStorage
	logger      Logger
	now         func() time.Time
}

// NewGalleryService creates a new GalleryService
func NewGalleryService(
	catalog *domainwf.Catalog,
	fichaRepo port.FichaRepository,
	galleryRepo port.StageImageRepository,
	images port.ImageStorage,
	logger Logger,
) GalleryService {
	return &galleryServiceImpl{
		catalog:     catalog,
		fichaRepo:   fichaRepo,
		galleryRepo: galleryRepo,
		images:      images,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns the ficha's gallery newest first, narrowed to stage when set
func (s *galleryServiceImpl) List(ctx context.Context, fichaID int64, stage domainwf.StageKey) ([]entity.StageImage, error) {
	if stage != "" && !s.catalog.Contains(stage) {
		return nil, domainwf.NewValidationError("stage", fmt.Sprintf("unknown stage %q", stage))
	}
	if _, err := s.load(ctx, fichaID); err != nil {
		return nil, classify(s.logger, "list_gallery", err, "ficha_id", fichaID)
	}

	images, err := s.galleryRepo.ListForFicha(ctx, fichaID, stage)
	if err != nil {
		return nil, classify(s.logger, "list_gallery", err, "ficha_id", fichaID)
	}
	return images, nil
}

// Upload stores the file and records it. The stored file is removed again
// when the record cannot be written.
func (s *galleryServiceImpl) Upload(ctx context.Context, actor entity.Actor, fichaID int64, upload GalleryUpload) (*entity.StageImage, error) {
	if s.images == nil {
		return nil, domainwf.StorageError("upload_gallery", errors.New("image storage is not configured"))
	}
	if len(upload.Content) == 0 {
		return nil, domainwf.NewValidationError("image", "image is required")
	}
	description := strings.TrimSpace(upload.Description)
	if len(description) > maxGalleryDescription {
		return nil, domainwf.NewValidationError("description",
			fmt.Sprintf("description exceeds %d characters", maxGalleryDescription))
	}

	f, err := s.load(ctx, fichaID)
	if err != nil {
		return nil, classify(s.logger, "upload_gallery", err, "ficha_id", fichaID)
	}
	stage := upload.Stage
	if stage == "" {
		stage = f.CurrentStage
	}
	if !s.catalog.Contains(stage) {
		return nil, domainwf.NewValidationError("stage", fmt.Sprintf("unknown stage %q", stage))
	}

	path, err := s.images.Save(ctx, fichaID, upload.Name, upload.Content)
	if err != nil {
		return nil, classify(s.logger, "upload_gallery", err, "ficha_id", fichaID, "name", upload.Name)
	}

	img := &entity.StageImage{
		FichaID:      fichaID,
		UploadedBy:   actor.UserID,
		Stage:        stage,
		Path:         path,
		OriginalName: upload.Name,
		MimeType:     mimeTypeOf(upload.Name),
		Size:         int64(len(upload.Content)),
		Description:  description,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.galleryRepo.Create(ctx, img); err != nil {
		if delErr := s.images.Delete(ctx, path); delErr != nil {
			s.logger.Error("Failed to remove orphan image", "ficha_id", fichaID, "path", path, "error", delErr)
		}
		return nil, classify(s.logger, "upload_gallery", err, "ficha_id", fichaID)
	}

	s.logger.Info("Gallery image stored", "ficha_id", fichaID, "image_id", img.ID, "stage", stage, "uploaded_by", actor.UserID)
	return img, nil
}

// Open loads a gallery image of the ficha and reads its content
func (s *galleryServiceImpl) Open(ctx context.Context, fichaID, imageID int64) (*entity.StageImage, []byte, error) {
	if s.images == nil {
		return nil, nil, domainwf.StorageError("open_gallery", errors.New("image storage is not configured"))
	}
	img, err := s.get(ctx, fichaID, imageID)
	if err != nil {
		return nil, nil, classify(s.logger, "open_gallery", err, "ficha_id", fichaID, "image_id", imageID)
	}

	content, err := s.images.Read(ctx, img.Path)
	if err != nil {
		return nil, nil, classify(s.logger, "open_gallery", err, "ficha_id", fichaID, "path", img.Path)
	}
	return img, content, nil
}

// Delete removes the record first, then the stored file
func (s *galleryServiceImpl) Delete(ctx context.Context, fichaID, imageID int64) error {
	img, err := s.get(ctx, fichaID, imageID)
	if err != nil {
		return classify(s.logger, "delete_gallery", err, "ficha_id", fichaID, "image_id", imageID)
	}
	if err := s.galleryRepo.Delete(ctx, img.ID); err != nil {
		return classify(s.logger, "delete_gallery", err, "ficha_id", fichaID, "image_id", imageID)
	}

	if s.images != nil {
		if err := s.images.Delete(ctx, img.Path); err != nil {
			s.logger.Error("Failed to delete gallery file", "ficha_id", fichaID, "path", img.Path, "error", err)
		}
	}
	s.logger.Info("Gallery image deleted", "ficha_id", fichaID, "image_id", imageID)
	return nil
}

// get returns the image only when it belongs to the ficha
func (s *galleryServiceImpl) get(ctx context.Context, fichaID, imageID int64) (*entity.StageImage, error) {
	img, err := s.galleryRepo.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img == nil || img.FichaID != fichaID {
		return nil, fmt.Errorf("%w: image %d of ficha %d", domainwf.ErrNotFound, imageID, fichaID)
	}
	return img, nil
}

func (s *galleryServiceImpl) load(ctx context.Context, id int64) (*entity.Ficha, error) {
	f, err := s.fichaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: ficha %d", domainwf.ErrNotFound, id)
	}
	return f, nil
}

func mimeTypeOf(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return fallbackMimeType
}
