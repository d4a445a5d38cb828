package datasets

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bore13/Ai-data-chat/internal/application"
	domain "github.com/bore13/Ai-data-chat/internal/domain/dataset"
	"github.com/bore13/Ai-data-chat/internal/infra/ingest"
)

// Service implements dataset upload, listing and deletion.
// Archive is optional; when set the original file is kept next to the records.
type Service struct {
	Repo    domain.Repository
	Archive domain.Archive
	Clock   application.Clock
	Log     *zap.Logger
}

type UploadCommand struct {
	OwnerID  string
	Name     string
	Filename string
	Data     []byte
}

func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*domain.Dataset, error) {
	records, err := ingest.Parse(cmd.Filename, cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidUpload, cmd.Filename, err)
	}
	if len(records) == 0 {
		return nil, domain.ErrEmpty
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		base := filepath.Base(cmd.Filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	d := &domain.Dataset{
		ID:        domain.ID(uuid.NewString()),
		OwnerID:   cmd.OwnerID,
		Name:      name,
		Records:   records,
		CreatedAt: s.Clock.Now(),
	}

	if s.Archive != nil {
		format, _ := ingest.DetectFormat(cmd.Filename)
		key := path.Join(cmd.OwnerID, string(d.ID), filepath.Base(cmd.Filename))
		if _, err := s.Archive.Put(ctx, key, cmd.Data, format.ContentType()); err != nil {
			s.log().Warn("archive upload failed", zap.String("key", key), zap.Error(err))
		} else {
			d.ArchiveKey = key
		}
	}

	if err := s.Repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save dataset: %w", err)
	}
	s.log().Info("dataset uploaded",
		zap.String("owner", d.OwnerID),
		zap.String("dataset", string(d.ID)),
		zap.Int("records", len(d.Records)),
	)
	return d, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]domain.Summary, error) {
	list, err := s.Repo.ListByOwner(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]domain.Summary, 0, len(list))
	for _, d := range list {
		out = append(out, d.Summary())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, owner string, id domain.ID) (*domain.Dataset, error) {
	return s.Repo.Get(ctx, owner, id)
}

// Delete removes the dataset and, best effort, its archived original.
func (s *Service) Delete(ctx context.Context, owner string, id domain.ID) error {
	d, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if s.Archive != nil && d.ArchiveKey != "" {
		if err := s.Archive.Remove(ctx, d.ArchiveKey); err != nil {
			s.log().Warn("archive remove failed", zap.String("key", d.ArchiveKey), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
