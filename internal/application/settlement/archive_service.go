package settlement

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectStorage stores exported archive documents offsite
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

var (
	ErrExportUnavailable = shared.NewDomainError("EXPORT_UNAVAILABLE", "Archive export storage is not configured")
	ErrExportPending     = shared.NewDomainError("EXPORT_PENDING", "Archive has not been exported yet")
)

// ArchiveObjectKey is where the export of one archive is stored
func ArchiveObjectKey(prefix string, tenantID uuid.UUID, period mess.Period) string {
	return path.Join(prefix, tenantID.String(), period.String()+".json")
}

// ArchiveService reads settlement archives
type ArchiveService struct {
	archiveRepo mess.ArchiveRepository
	storage     ObjectStorage
	prefix      string
	linkTTL     time.Duration
	places      int32
	logger      *zap.Logger
}

// NewArchiveService creates a new archive service. storage may be nil when
// archives are not exported.
func NewArchiveService(
	archiveRepo mess.ArchiveRepository,
	storage ObjectStorage,
	prefix string,
	linkTTL time.Duration,
	displayPlaces int32,
	logger *zap.Logger,
) *ArchiveService {
	return &ArchiveService{
		archiveRepo: archiveRepo,
		storage:     storage,
		prefix:      prefix,
		linkTTL:     linkTTL,
		places:      displayPlaces,
		logger:      logger,
	}
}

// ListArchives lists the archives of a mess, newest first
func (s *ArchiveService) ListArchives(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[ArchiveSummary], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "period"
		filter.OrderDir = "desc"
	}
	archives, total, err := s.archiveRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ArchiveSummary, 0, len(archives))
	for i := range archives {
		items = append(items, ToArchiveSummary(&archives[i], s.places))
	}
	page := shared.NewPaginated(items, total, max(filter.Page, 1), filter.Limit())
	return &page, nil
}

// GetArchive returns the archive of one period
func (s *ArchiveService) GetArchive(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*ArchiveResponse, error) {
	a, err := s.archiveRepo.FindByPeriod(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	resp := ToArchiveResponse(a, s.places)
	return &resp, nil
}

// GetMemberHistory returns one member's archived lines, newest first
func (s *ArchiveService) GetMemberHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]MemberHistoryEntry, error) {
	lines, err := s.archiveRepo.FindMemberHistory(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	out := make([]MemberHistoryEntry, 0, len(lines))
	for _, l := range lines {
		out = append(out, MemberHistoryEntry{
			Period:   l.Period,
			MealRate: round(l.MealRate, s.places),
			Line:     toMemberLine(l.Line, s.places),
		})
	}
	return out, nil
}

// ExportLink returns a download link of the exported archive document
func (s *ArchiveService) ExportLink(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*ExportLink, error) {
	if s.storage == nil {
		return nil, ErrExportUnavailable
	}
	if _, err := s.archiveRepo.FindByPeriod(ctx, tenantID, period); err != nil {
		return nil, err
	}

	key := ArchiveObjectKey(s.prefix, tenantID, period)
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrExportPending
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.linkTTL)
	if err != nil {
		s.logger.Error("failed to sign archive download", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &ExportLink{URL: url, ExpiresAt: expiresAt}, nil
}
