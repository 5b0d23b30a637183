package mapper

import (
	"time"

	"github.com/google/uuid"

	"github.com/mestero/estimate-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func ToProjectDTO(p *domain.Project) domain.ProjectDTO {
	return domain.ProjectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

// ToProjectWithTreeDTO shapes the full estimate tree. Per-view values on
// items and sections fall back to price 0 and visible true when no setting
// row exists for a view.
func ToProjectWithTreeDTO(p *domain.Project, statuses map[uuid.UUID]domain.ItemStatus) domain.ProjectWithTreeDTO {
	dto := domain.ProjectWithTreeDTO{
		ProjectDTO: ToProjectDTO(p),
		Views:      make([]domain.ViewDTO, 0, len(p.Views)),
		Sections:   make([]domain.SectionDTO, 0, len(p.Sections)),
	}
	for i := range p.Views {
		dto.Views = append(dto.Views, ToViewDTO(&p.Views[i]))
	}
	for i := range p.Sections {
		dto.Sections = append(dto.Sections, ToSectionDTO(&p.Sections[i], p.Views, statuses))
	}
	return dto
}

func ToViewDTO(v *domain.View) domain.ViewDTO {
	return domain.ViewDTO{
		ID:             v.ID,
		ProjectID:      v.ProjectID,
		Name:           v.Name,
		AccessToken:    v.AccessToken,
		SortOrder:      v.SortOrder,
		IsCustomerView: v.IsCustomerView,
		HasPassword:    v.HasPassword(),
		CreatedAt:      formatTime(v.CreatedAt),
		UpdatedAt:      formatTime(v.UpdatedAt),
	}
}

func ToSectionDTO(s *domain.Section, views []domain.View, statuses map[uuid.UUID]domain.ItemStatus) domain.SectionDTO {
	visible := make(map[uuid.UUID]bool, len(views))
	subtotals := make(map[uuid.UUID]float64, len(views))
	for i := range views {
		viewID := views[i].ID
		visible[viewID] = sectionVisible(s, viewID)
	}

	items := make([]domain.ItemDTO, 0, len(s.Items))
	for i := range s.Items {
		items = append(items, ToItemDTO(&s.Items[i], views, statuses))
	}

	for i := range views {
		viewID := views[i].ID
		if !visible[viewID] {
			subtotals[viewID] = 0
			continue
		}
		var sum float64
		for j := range items {
			setting := items[j].Settings[viewID]
			if setting.Visible {
				sum += setting.Total
			}
		}
		subtotals[viewID] = sum
	}

	return domain.SectionDTO{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Name:      s.Name,
		SortOrder: s.SortOrder,
		Visible:   visible,
		Subtotals: subtotals,
		Items:     items,
	}
}

func ToItemDTO(item *domain.Item, views []domain.View, statuses map[uuid.UUID]domain.ItemStatus) domain.ItemDTO {
	settings := make(map[uuid.UUID]domain.ItemViewValueDTO, len(views))
	for i := range views {
		viewID := views[i].ID
		value := domain.ItemViewValueDTO{Price: 0, Total: 0, Visible: true}
		for j := range item.ViewSettings {
			if item.ViewSettings[j].ViewID == viewID {
				value.Price = item.ViewSettings[j].Price
				value.Total = item.ViewSettings[j].Total
				value.Visible = item.ViewSettings[j].Visible
				break
			}
		}
		settings[viewID] = value
	}

	dto := domain.ItemDTO{
		ID:        item.ID,
		SectionID: item.SectionID,
		Name:      item.Name,
		Unit:      item.Unit,
		Quantity:  item.Quantity,
		SortOrder: item.SortOrder,
		Settings:  settings,
	}
	if statuses != nil {
		if status, ok := statuses[item.ID]; ok {
			dto.Status = &status
		}
	}
	return dto
}

func sectionVisible(s *domain.Section, viewID uuid.UUID) bool {
	for i := range s.ViewSettings {
		if s.ViewSettings[i].ViewID == viewID {
			return s.ViewSettings[i].Visible
		}
	}
	return true
}

func ToVersionDTO(v *domain.Version) domain.VersionDTO {
	return domain.VersionDTO{
		ID:        v.ID,
		ProjectID: v.ProjectID,
		Number:    v.Number,
		Name:      v.Name,
		CreatedAt: formatTime(v.CreatedAt),
	}
}

func ToVersionWithTreeDTO(v *domain.Version) domain.VersionWithTreeDTO {
	dto := domain.VersionWithTreeDTO{
		VersionDTO: ToVersionDTO(v),
		Views:      make([]domain.VersionViewDTO, 0, len(v.Views)),
		Sections:   make([]domain.VersionSectionDTO, 0, len(v.Sections)),
	}
	for i := range v.Views {
		view := &v.Views[i]
		dto.Views = append(dto.Views, domain.VersionViewDTO{
			SourceViewID:   view.SourceViewID,
			Name:           view.Name,
			SortOrder:      view.SortOrder,
			IsCustomerView: view.IsCustomerView,
		})
	}
	for i := range v.Sections {
		section := &v.Sections[i]
		sectionDTO := domain.VersionSectionDTO{
			SourceSectionID: section.SourceSectionID,
			Name:            section.Name,
			SortOrder:       section.SortOrder,
			Visibility:      section.Visibility,
			Items:           make([]domain.VersionItemDTO, 0, len(section.Items)),
		}
		for j := range section.Items {
			item := &section.Items[j]
			sectionDTO.Items = append(sectionDTO.Items, domain.VersionItemDTO{
				SourceItemID: item.SourceItemID,
				Name:         item.Name,
				Unit:         item.Unit,
				Quantity:     item.Quantity,
				SortOrder:    item.SortOrder,
				Settings:     item.Settings,
			})
		}
		dto.Sections = append(dto.Sections, sectionDTO)
	}
	return dto
}

func ToActDTO(a *domain.Act) domain.ActDTO {
	dto := domain.ActDTO{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		ViewID:        a.ViewID,
		Number:        a.Number,
		ActDate:       formatTime(a.ActDate),
		Contractor:    a.Contractor,
		Customer:      a.Customer,
		SelectionMode: a.SelectionMode,
		TotalAmount:   a.TotalAmount,
		ArtifactPath:  a.ArtifactPath,
		Items:         make([]domain.ActItemDTO, 0, len(a.Items)),
		CreatedAt:     formatTime(a.CreatedAt),
	}
	for i := range a.Items {
		line := &a.Items[i]
		dto.Items = append(dto.Items, domain.ActItemDTO{
			ID:              line.ID,
			LineType:        line.LineType,
			SourceItemID:    line.SourceItemID,
			SourceSectionID: line.SourceSectionID,
			Name:            line.Name,
			Unit:            line.Unit,
			Quantity:        line.Quantity,
			Price:           line.Price,
			Total:           line.Total,
			SortOrder:       line.SortOrder,
		})
	}
	return dto
}

func ToPaymentDTO(p *domain.Payment) domain.PaymentDTO {
	dto := domain.PaymentDTO{
		ID:                p.ID,
		ProjectID:         p.ProjectID,
		Amount:            p.Amount,
		PaymentDate:       formatTime(p.PaymentDate),
		Notes:             p.Notes,
		Method:            p.Method,
		ProviderPaymentID: p.ProviderPaymentID,
		ProviderStatus:    p.ProviderStatus,
		Items:             make([]domain.PaymentItemDTO, 0, len(p.Items)),
		CreatedAt:         formatTime(p.CreatedAt),
	}
	for i := range p.Items {
		dto.Items = append(dto.Items, domain.PaymentItemDTO{
			ItemID: p.Items[i].ItemID,
			Amount: p.Items[i].Amount,
		})
	}
	return dto
}

func ToMaterialsListDTO(m *domain.MaterialsList) domain.MaterialsListDTO {
	dto := domain.MaterialsListDTO{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		Name:       m.Name,
		SourceURLs: m.SourceURLs,
		Items:      make([]domain.MaterialItemDTO, 0, len(m.Items)),
		CreatedAt:  formatTime(m.CreatedAt),
	}
	for i := range m.Items {
		item := &m.Items[i]
		dto.Items = append(dto.Items, domain.MaterialItemDTO{
			ID:       item.ID,
			Name:     item.Name,
			URL:      item.URL,
			ImageURL: item.ImageURL,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return dto
}
