package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cekilis/secret-santa-api/internal/dto"
	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
	"github.com/cekilis/secret-santa-api/pkg/export"
	"github.com/cekilis/secret-santa-api/pkg/storage"
)

type exportDrawStore interface {
	FindByID(ctx context.Context, id string) (*models.Draw, error)
	ListParticipants(ctx context.Context, drawID string) ([]models.Participant, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) error
	Read(filename string) ([]byte, error)
}

// ExportService renders a draw's participant roster to CSV or PDF and hands
// out signed download links. Only the roster is ever exported; the stored
// giver/receiver pairs stay private to the participants' emails.
type ExportService struct {
	repo   exportDrawStore
	files  exportFileStore
	signer *storage.Signer
	logger *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(repo exportDrawStore, files exportFileStore, signer *storage.Signer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, files: files, signer: signer, logger: logger}
}

// CreateRosterExport renders the roster of an owned draw and returns a
// signed, time-limited download link.
func (s *ExportService) CreateRosterExport(ctx context.Context, userID, drawID string, format export.Format) (*dto.ExportResponse, error) {
	if format != export.FormatCSV && format != export.FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	draw, err := s.findOwned(ctx, userID, drawID)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, drawID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}

	data, err := export.Render(format, rosterTable(draw, participants))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	filename := fmt.Sprintf("%s/roster-%d.%s", drawID, time.Now().UTC().Unix(), format)
	if err := s.files.Save(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store roster export")
	}

	token, expiresAt, err := s.signer.Generate(drawID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("roster export created",
		zap.String("draw_id", drawID),
		zap.String("format", string(format)),
		zap.Int("participants", len(participants)))

	return &dto.ExportResponse{
		DownloadToken: token,
		Format:        string(format),
		ExpiresAt:     expiresAt.UTC(),
	}, nil
}

// Download resolves a signed token back to the stored file.
func (s *ExportService) Download(token string) ([]byte, string, error) {
	_, path, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	data, err := s.files.Read(path)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}

	format := export.FormatCSV
	if len(path) > 4 && path[len(path)-4:] == ".pdf" {
		format = export.FormatPDF
	}
	return data, format.ContentType(), nil
}

func (s *ExportService) findOwned(ctx context.Context, userID, drawID string) (*models.Draw, error) {
	draw, err := s.repo.FindByID(ctx, drawID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrDrawNotFound, "")
	}
	if draw.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrDrawNotFound, "")
	}
	return draw, nil
}

func rosterTable(draw *models.Draw, participants []models.Participant) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("Participant Roster - Draw %s", draw.ID),
		Columns: []string{"First Name", "Last Name", "Email", "Phone", "Address"},
	}
	for _, p := range participants {
		table.Rows = append(table.Rows, []string{
			p.FirstName,
			p.LastName,
			p.Email,
			stringValue(p.Phone),
			stringValue(p.Address),
		})
	}
	return table
}
