package drive

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// IngestService streams one Drive export into the sales repository and
// invalidates every cached forecast model the file touched, so the next
// forecast for those products refits on the new data.
type IngestService struct {
	driveService *Service
	repo         repository.SalesRepository
	models       *forecast.ModelCache
}

func NewIngestService(driveService *Service, repo repository.SalesRepository, models *forecast.ModelCache) *IngestService {
	return &IngestService{
		driveService: driveService,
		repo:         repo,
		models:       models,
	}
}

func (s *IngestService) IngestFile(ctx context.Context, fileID string) error {
	pr, pw := io.Pipe()
	go func() {
		err := s.driveService.DownloadFile(fileID, pw)
		pw.CloseWithError(err)
	}()

	records, err := ingest.ReadSalesCSV(pr)
	if err != nil {
		return fmt.Errorf("failed to parse sales export: %w", err)
	}

	if err := s.repo.UpsertRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to store sales records: %w", err)
	}

	seen := make(map[string]struct{})
	for _, r := range records {
		key := forecast.Key(r.Brand, r.Model)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if s.models != nil {
			s.models.Invalidate(key)
		}
	}

	log.Info().
		Str("file_id", fileID).
		Int("records", len(records)).
		Int("selectors", len(seen)).
		Msg("ingested sales export")

	return nil
}

// IngestRecords stores pre-parsed records, applying the same model
// invalidation as a file ingest. Used by the local file pull path.
func (s *IngestService) IngestRecords(ctx context.Context, records []domain.SalesRecord) error {
	if err := s.repo.UpsertRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to store sales records: %w", err)
	}
	for _, r := range records {
		if s.models != nil {
			s.models.Invalidate(forecast.Key(r.Brand, r.Model))
		}
	}
	return nil
}

// IngestFolder downloads every CSV and XLSX export in a Drive folder and
// loads them. Files that fail to parse are skipped and logged so one bad
// export does not block the rest of the folder.
func (s *IngestService) IngestFolder(ctx context.Context, folderID, downloadDir string) (int, error) {
	downloader := NewDownloader(s.driveService)
	paths, err := downloader.DownloadFolderCSV(ctx, DownloadOptions{
		FolderID:    folderID,
		DownloadDir: downloadDir,
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return total, fmt.Errorf("failed to open downloaded file %s: %w", path, err)
		}
		records, err := ingest.ReadSalesCSV(file)
		file.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping unparseable sales export")
			continue
		}
		if err := s.IngestRecords(ctx, records); err != nil {
			return total, err
		}
		total += len(records)
	}

	log.Info().
		Str("folder_id", folderID).
		Int("files", len(paths)).
		Int("records", total).
		Msg("ingested sales folder")

	return total, nil
}
