// Package tenantconfig resolves per-tenant assistant configuration and the
// enriched business context, with a short shared cache so concurrent sessions
// of one tenant do not hammer the database.
package tenantconfig

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"
)

const cacheTTL = 60 * time.Second

// VoiceConfig is the immutable per-session configuration snapshot.
type VoiceConfig struct {
	TenantID            uuid.UUID
	Personality         string
	Currency            string
	BusinessDescription string
	CustomInstructions  string
	ModelAPIKey         string
	ProviderAPIKey      string
}

// SettingsStore is the persistence surface the provider reads from.
type SettingsStore interface {
	GetVoiceSettings(ctx context.Context, tenantID uuid.UUID) (*store.VoiceSettings, error)
	GetTopProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]store.Product, error)
	GetFAQs(ctx context.Context, tenantID uuid.UUID) ([]store.FAQ, error)
}

type cachedConfig struct {
	config    *VoiceConfig
	context   string
	fetchedAt time.Time
}

// Provider serves voice configuration with a time-boxed cache. Invalidate
// drops a tenant's entry when its settings are mutated.
type Provider struct {
	store  SettingsStore
	logger *observability.Logger

	mu    sync.Mutex
	cache map[uuid.UUID]cachedConfig
	ttl   time.Duration
}

func NewProvider(settingsStore SettingsStore, logger *observability.Logger) *Provider {
	return &Provider{
		store:  settingsStore,
		logger: logger,
		cache:  make(map[uuid.UUID]cachedConfig),
		ttl:    cacheTTL,
	}
}

// GetVoiceConfig returns the tenant's configuration snapshot and its business
// context blurb. store.ErrNotFound passes through for tenants with no
// settings row.
func (p *Provider) GetVoiceConfig(ctx context.Context, tenantID uuid.UUID) (*VoiceConfig, string, error) {
	p.mu.Lock()
	entry, ok := p.cache[tenantID]
	p.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < p.ttl {
		return entry.config, entry.context, nil
	}

	settings, err := p.store.GetVoiceSettings(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}

	config := &VoiceConfig{
		TenantID:            settings.TenantID,
		Personality:         settings.Personality,
		Currency:            settings.Currency,
		BusinessDescription: settings.BusinessDescription,
		CustomInstructions:  settings.CustomInstructions.String,
		ModelAPIKey:         settings.ModelAPIKey,
		ProviderAPIKey:      settings.ProviderAPIKey,
	}

	businessContext := p.buildBusinessContext(ctx, tenantID, config)

	p.mu.Lock()
	p.cache[tenantID] = cachedConfig{config: config, context: businessContext, fetchedAt: time.Now()}
	p.mu.Unlock()

	return config, businessContext, nil
}

// Invalidate drops the tenant's cached entry so the next session sees fresh
// settings immediately after a mutation.
func (p *Provider) Invalidate(tenantID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, tenantID)
}

// buildBusinessContext assembles the context blurb fed into the system
// prompt. Lookup failures degrade to a thinner context rather than failing
// the session.
func (p *Provider) buildBusinessContext(ctx context.Context, tenantID uuid.UUID, config *VoiceConfig) string {
	var b strings.Builder

	products, err := p.store.GetTopProducts(ctx, tenantID, 10)
	if err != nil {
		p.logger.Error(ctx, "failed to load products for business context", err)
	} else if len(products) > 0 {
		b.WriteString("Featured products:\n")
		for _, product := range products {
			fmt.Fprintf(&b, "- %s (%.2f %s)", product.Name, float64(product.PriceCents)/100, product.Currency)
			if product.Description.Valid {
				fmt.Fprintf(&b, ": %s", product.Description.String)
			}
			b.WriteString("\n")
		}
	}

	faqs, err := p.store.GetFAQs(ctx, tenantID)
	if err != nil {
		p.logger.Error(ctx, "failed to load FAQs for business context", err)
	} else if len(faqs) > 0 {
		b.WriteString("Frequently asked questions:\n")
		for _, faq := range faqs {
			fmt.Fprintf(&b, "- Q: %s A: %s\n", faq.Question, faq.Answer)
		}
	}

	return b.String()
}
