package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/mapper"
	"github.com/mestero/estimate-api/internal/render"
	"github.com/mestero/estimate-api/internal/repository"
	"github.com/mestero/estimate-api/internal/storage"
)

// ActService stamps out immutable completion certificates from the live
// estimate. Lines are copied by value at creation time and never
// recomputed from the tree afterwards.
type ActService struct {
	actRepo     *repository.ActRepository
	projectRepo *repository.ProjectRepository
	viewRepo    *repository.ViewRepository
	renderer    render.Renderer
	storage     storage.Storage
	logger      *zap.Logger
}

func NewActService(
	actRepo *repository.ActRepository,
	projectRepo *repository.ProjectRepository,
	viewRepo *repository.ViewRepository,
	renderer render.Renderer,
	store storage.Storage,
	logger *zap.Logger,
) *ActService {
	return &ActService{
		actRepo:     actRepo,
		projectRepo: projectRepo,
		viewRepo:    viewRepo,
		renderer:    renderer,
		storage:     store,
		logger:      logger,
	}
}

// Create builds the act lines from the live tree, renders the document
// artifact, and then records the act. The artifact comes first: when
// the act row cannot be written the artifact is still delivered and the
// write failure is only logged.
func (s *ActService) Create(ctx context.Context, projectID uuid.UUID, req *domain.CreateActRequest) (*domain.ActCreateResultDTO, error) {
	if !req.SelectionMode.IsValid() {
		return nil, fmt.Errorf("%w: invalid selection mode %q", ErrInvalidInput, req.SelectionMode)
	}

	project, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	viewOK := false
	for i := range project.Views {
		if project.Views[i].ID == req.ViewID {
			viewOK = true
			break
		}
	}
	if !viewOK {
		return nil, ErrViewMismatch
	}

	lines, total, err := s.buildLines(project, req)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}

	artifact, err := s.renderer.RenderAct(ctx, actDocument(req, lines, total))
	if err != nil {
		s.logger.Error("Act rendering failed",
			zap.String("project_id", projectID.String()),
			zap.String("number", req.Number),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	filename := fmt.Sprintf("acts/%s/act-%s-%d.pdf", projectID, req.Number, time.Now().Unix())
	artifactPath, _, err := s.storage.Upload(ctx, filename, "application/pdf", bytes.NewReader(artifact))
	if err != nil {
		s.logger.Error("Act artifact upload failed",
			zap.String("project_id", projectID.String()),
			zap.String("number", req.Number),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	viewID := req.ViewID
	act := &domain.Act{
		ProjectID:     projectID,
		ViewID:        &viewID,
		Number:        req.Number,
		ActDate:       req.ActDate,
		Contractor:    req.Contractor,
		Customer:      req.Customer,
		SelectionMode: req.SelectionMode,
		TotalAmount:   total,
		ArtifactPath:  artifactPath,
		Items:         lines,
	}

	if err := s.actRepo.Create(ctx, act); err != nil {
		// Artifact delivery wins over record keeping. The caller gets
		// the document either way.
		s.logger.Error("Act record write failed, artifact delivered anyway",
			zap.String("project_id", projectID.String()),
			zap.String("number", req.Number),
			zap.String("artifact_path", artifactPath),
			zap.Error(err))
		return &domain.ActCreateResultDTO{
			ArtifactPath: artifactPath,
			Recorded:     false,
		}, nil
	}

	s.logger.Info("Act created",
		zap.String("project_id", projectID.String()),
		zap.String("act_id", act.ID.String()),
		zap.String("number", act.Number),
		zap.Float64("total", total))

	dto := mapper.ToActDTO(act)
	return &domain.ActCreateResultDTO{
		Act:          &dto,
		ArtifactPath: artifactPath,
		Recorded:     true,
	}, nil
}

// buildLines resolves the selection into by-value act lines. In section
// mode every selected section contributes its visible items plus one
// synthetic subtotal line, the latter only when the subtotal is above
// zero. The grand total sums item lines only; subtotal lines summarize.
func (s *ActService) buildLines(project *domain.Project, req *domain.CreateActRequest) ([]domain.ActItem, float64, error) {
	var lines []domain.ActItem
	var total float64
	sortOrder := 0

	switch req.SelectionMode {
	case domain.ActSelectionBySection:
		if len(req.SectionIDs) == 0 {
			return nil, 0, ErrEmptySelection
		}
		selected := make(map[uuid.UUID]bool, len(req.SectionIDs))
		for _, id := range req.SectionIDs {
			selected[id] = true
		}
		for i := range project.Sections {
			section := &project.Sections[i]
			if !selected[section.ID] {
				continue
			}
			delete(selected, section.ID)
			var subtotal float64
			for j := range section.Items {
				item := &section.Items[j]
				if !IsItemVisible(item, req.ViewID) {
					continue
				}
				line := itemLine(item, req.ViewID, sortOrder)
				subtotal += line.Total
				total += line.Total
				lines = append(lines, line)
				sortOrder++
			}
			if subtotal > 0 {
				sectionID := section.ID
				lines = append(lines, domain.ActItem{
					LineType:        domain.ActLineSectionSubtotal,
					SourceSectionID: &sectionID,
					Name:            section.Name,
					Total:           subtotal,
					SortOrder:       sortOrder,
				})
				sortOrder++
			}
		}
		if len(selected) > 0 {
			return nil, 0, ErrSectionNotFound
		}

	case domain.ActSelectionByItem:
		if len(req.ItemIDs) == 0 {
			return nil, 0, ErrEmptySelection
		}
		itemsByID := make(map[uuid.UUID]*domain.Item)
		for i := range project.Sections {
			for j := range project.Sections[i].Items {
				item := &project.Sections[i].Items[j]
				itemsByID[item.ID] = item
			}
		}
		seen := make(map[uuid.UUID]bool, len(req.ItemIDs))
		for _, id := range req.ItemIDs {
			if seen[id] {
				return nil, 0, ErrInvalidInput
			}
			seen[id] = true
			item, ok := itemsByID[id]
			if !ok {
				return nil, 0, ErrItemNotFound
			}
			line := itemLine(item, req.ViewID, sortOrder)
			total += line.Total
			lines = append(lines, line)
			sortOrder++
		}
	}

	return lines, total, nil
}

func itemLine(item *domain.Item, viewID uuid.UUID, sortOrder int) domain.ActItem {
	itemID := item.ID
	sectionID := item.SectionID
	return domain.ActItem{
		LineType:        domain.ActLineItem,
		SourceItemID:    &itemID,
		SourceSectionID: &sectionID,
		Name:            item.Name,
		Unit:            item.Unit,
		Quantity:        item.Quantity,
		Price:           ResolvePrice(item, viewID),
		Total:           ResolveTotal(item, viewID),
		SortOrder:       sortOrder,
	}
}

func actDocument(req *domain.CreateActRequest, lines []domain.ActItem, total float64) render.ActDocument {
	doc := render.ActDocument{
		Number:     req.Number,
		Date:       req.ActDate.UTC().Format("2006-01-02"),
		Contractor: req.Contractor,
		Customer:   req.Customer,
		Total:      total,
		Lines:      make([]render.ActLine, 0, len(lines)),
	}
	for i := range lines {
		doc.Lines = append(doc.Lines, render.ActLine{
			Name:     lines[i].Name,
			Unit:     lines[i].Unit,
			Quantity: lines[i].Quantity,
			Price:    lines[i].Price,
			Total:    lines[i].Total,
			Subtotal: lines[i].LineType == domain.ActLineSectionSubtotal,
		})
	}
	return doc
}

func (s *ActService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ActDTO, error) {
	act, err := s.actRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActNotFound
		}
		return nil, fmt.Errorf("failed to get act: %w", err)
	}
	dto := mapper.ToActDTO(act)
	return &dto, nil
}

func (s *ActService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ActDTO, error) {
	acts, err := s.actRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list acts: %w", err)
	}
	dtos := make([]domain.ActDTO, 0, len(acts))
	for i := range acts {
		dtos = append(dtos, mapper.ToActDTO(&acts[i]))
	}
	return dtos, nil
}

// Delete removes an act and, through it, the act's contribution to item
// usage. Item locks derive from the payment ledger, so deleting an act
// never unlocks anything.
func (s *ActService) Delete(ctx context.Context, id uuid.UUID) error {
	act, err := s.actRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActNotFound
		}
		return fmt.Errorf("failed to get act: %w", err)
	}

	if err := s.actRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete act: %w", err)
	}

	s.logger.Info("Act deleted",
		zap.String("project_id", act.ProjectID.String()),
		zap.String("act_id", id.String()))
	return nil
}

// UsedItems folds over the project's acts and reports, per item, which
// acts have included it. A read-time derivation used as a soft warning
// surface, never as a lock.
func (s *ActService) UsedItems(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID][]domain.ActUsage, error) {
	acts, err := s.actRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list acts: %w", err)
	}

	used := make(map[uuid.UUID][]domain.ActUsage)
	for i := range acts {
		act := &acts[i]
		for j := range act.Items {
			line := &act.Items[j]
			if line.LineType != domain.ActLineItem || line.SourceItemID == nil {
				continue
			}
			used[*line.SourceItemID] = append(used[*line.SourceItemID], domain.ActUsage{
				ActID:   act.ID,
				Number:  act.Number,
				ActDate: act.ActDate,
			})
		}
	}
	return used, nil
}
