// Package seed loads the demo tenants and the first version of each legal
// document. Running it twice changes nothing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/legal"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

const InitialVersion = "v1"

var DemoClinics = []model.Clinic{
	{Name: "Clínica Vida Plena", Slug: "vida_plena", IsActive: true},
	{Name: "Clínica Sorriso Feliz", Slug: "sorriso_feliz", IsActive: true},
}

var initialContent = map[model.LegalDocumentType]string{
	model.LegalDocumentTerms: "Termos de Uso. Ao criar sua conta você concorda em fornecer " +
		"informações verdadeiras e em manter sua senha em sigilo.",
	model.LegalDocumentPrivacy: "Política de Privacidade. Seus dados pessoais são tratados " +
		"conforme a LGPD e usados apenas para o atendimento na clínica escolhida.",
	model.LegalDocumentConsent: "Termo de Consentimento. Autorizo o tratamento dos meus dados " +
		"de saúde para fins de atendimento, agendamento e prontuário.",
}

// Run creates missing demo clinics and publishes the initial document of
// every required type that has no active version.
func Run(ctx context.Context, store repository.Store, docs *legal.Service, log *logger.Logger) error {
	for _, c := range DemoClinics {
		_, err := store.Clinics().GetBySlug(ctx, c.Slug)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to look up clinic %s: %w", c.Slug, err)
		}

		clinic := c
		if err := store.Clinics().Create(ctx, &clinic); err != nil && !errors.Is(err, repository.ErrDuplicateSlug) {
			return fmt.Errorf("failed to create clinic %s: %w", c.Slug, err)
		}
		log.Info("clinic created", "slug", c.Slug)
	}

	active, err := docs.ListActive(ctx)
	if err != nil {
		return err
	}
	present := make(map[model.LegalDocumentType]bool, len(active))
	for _, d := range active {
		present[d.Type] = true
	}

	for _, docType := range model.RequiredLegalDocumentTypes {
		if present[docType] {
			continue
		}
		err := docs.Publish(ctx, nil, &model.LegalDocument{
			Type:    docType,
			Version: InitialVersion,
			Content: initialContent[docType],
		})
		if err != nil && !errors.Is(err, legal.ErrDuplicateVersion) {
			return fmt.Errorf("failed to publish %s: %w", docType, err)
		}
		log.Info("legal document published", "type", string(docType), "version", InitialVersion)
	}
	return nil
}
