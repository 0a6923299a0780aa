// Package templates manages reusable trip defaults.
package templates

import (
	"context"
	"strings"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Service creates, lists and deactivates templates.
type Service struct {
	st  store.Store
	log logger.Logger
}

// NewService returns a Service.
func NewService(st store.Store, log logger.Logger) *Service {
	return &Service{st: st, log: log}
}

// Create validates and stores a new active template.
func (s *Service) Create(ctx context.Context, t model.Template, actor string) (model.Template, error) {
	const op = "templates.create"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return model.Template{}, err
	}
	t.Name = strings.TrimSpace(t.Name)
	if err := apperr.Required(op, "name", t.Name); err != nil {
		return model.Template{}, err
	}
	if err := apperr.Required(op, "material_id", t.MaterialID); err != nil {
		return model.Template{}, err
	}
	t.Active = true
	err := s.st.InTx(ctx, func(r store.Repo) error {
		refs := []struct {
			kind model.RefKind
			id   *string
		}{
			{model.RefMaterial, &t.MaterialID},
			{model.RefClient, t.ClientID},
			{model.RefOrigin, t.OriginID},
			{model.RefDestination, t.DestinationID},
		}
		for _, ref := range refs {
			if ref.id == nil || *ref.id == "" {
				continue
			}
			if _, err := r.GetRef(ctx, ref.kind, *ref.id); err != nil {
				return store.NotFound(op, string(ref.kind), *ref.id, err)
			}
		}
		var err error
		t.ID, err = r.InsertTemplate(ctx, t)
		return err
	})
	if err != nil {
		return model.Template{}, err
	}
	s.log.Infow("template created", map[string]any{"template_id": t.ID, "name": t.Name, "actor": actor})
	return t, nil
}

// Get returns an active template.
func (s *Service) Get(ctx context.Context, id int64) (model.Template, error) {
	return Active(ctx, s.st, id)
}

// Active loads template id through r and rejects inactive ones as not found.
func Active(ctx context.Context, r store.TemplateRepo, id int64) (model.Template, error) {
	const op = "templates.get"
	t, err := r.GetTemplate(ctx, id)
	if err != nil {
		return model.Template{}, store.NotFound(op, "template", id, err)
	}
	if !t.Active {
		return model.Template{}, apperr.NotFound(op, "active template", id)
	}
	return t, nil
}

// List returns the templates, active ones only unless all is set.
func (s *Service) List(ctx context.Context, all bool) ([]model.Template, error) {
	return s.st.ListTemplates(ctx, !all)
}

// Deactivate hides a template from future confirmations.
func (s *Service) Deactivate(ctx context.Context, id int64, actor string) error {
	const op = "templates.deactivate"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return err
	}
	ok, err := s.st.DeactivateTemplate(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.st.GetTemplate(ctx, id); err != nil {
			return store.NotFound(op, "template", id, err)
		}
		return apperr.Conflict(op, apperr.CodeInvalidTransition, "template %d already inactive", id)
	}
	s.log.Infow("template deactivated", map[string]any{"template_id": id, "actor": actor})
	return nil
}
