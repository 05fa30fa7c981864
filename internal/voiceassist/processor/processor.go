// Package processor owns voice session lifecycle: resolving tenant
// configuration, opening the provider legs, and registering live sessions so
// they can be stopped from outside the connection.
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"voicedesk-server/internal/memory"
	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"
	"voicedesk-server/internal/voiceassist/registry"
	"voicedesk-server/internal/voiceassist/session"
	"voicedesk-server/internal/voiceassist/tenantconfig"
	"voicedesk-server/internal/voiceassist/verrors"
)

// ConfigProvider resolves the per-tenant configuration snapshot.
type ConfigProvider interface {
	GetVoiceConfig(ctx context.Context, tenantID uuid.UUID) (*tenantconfig.VoiceConfig, string, error)
}

// RecognitionOpener opens the session-long speech-to-text leg.
type RecognitionOpener interface {
	OpenRecognition(ctx context.Context, apiKey string) (session.RecognitionStream, error)
}

// SynthesisFactory yields a per-turn synthesis opener bound to a tenant's
// provider key.
type SynthesisFactory interface {
	ForTenant(apiKey string) session.SynthesisOpener
}

// DialogueFactory yields a dialogue client bound to a tenant's model key.
type DialogueFactory interface {
	ForTenant(apiKey string) session.DialogueClient
}

type Processor struct {
	config        ConfigProvider
	recognition   RecognitionOpener
	synthesis     SynthesisFactory
	dialogue      DialogueFactory
	tools         session.ToolRunner
	memory        *memory.Service
	registry      *registry.Registry
	queueCapacity int
	logger        *observability.Logger
}

func New(config ConfigProvider, recognition RecognitionOpener, synthesis SynthesisFactory,
	dialogue DialogueFactory, toolRunner session.ToolRunner, mem *memory.Service,
	reg *registry.Registry, queueCapacity int, logger *observability.Logger) Processor {
	return Processor{
		config:        config,
		recognition:   recognition,
		synthesis:     synthesis,
		dialogue:      dialogue,
		tools:         toolRunner,
		memory:        mem,
		registry:      reg,
		queueCapacity: queueCapacity,
		logger:        logger,
	}
}

// Open resolves configuration, validates credentials, establishes the
// recognition leg eagerly and registers the session. It fails fast with a
// configuration error before any stream is opened; no partial sessions are
// ever created.
func (p *Processor) Open(ctx context.Context, tenantID, userID uuid.UUID, connectionID string,
	sink session.EventSink) (*session.Session, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "tenant_id", Value: tenantID.String()},
		observability.Field{Key: "connection_id", Value: connectionID},
	)

	voiceConfig, businessContext, err := p.config.GetVoiceConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: tenant has no voice settings", verrors.ErrConfiguration)
		}
		p.logger.Error(ctx, "failed to resolve voice configuration", err)
		return nil, fmt.Errorf("failed to resolve voice configuration: %w", err)
	}
	if voiceConfig.ModelAPIKey == "" {
		return nil, verrors.MissingCredential("dialogue model API key")
	}
	if voiceConfig.ProviderAPIKey == "" {
		return nil, verrors.MissingCredential("speech provider API key")
	}

	recognition, err := p.recognition.OpenRecognition(ctx, voiceConfig.ProviderAPIKey)
	if err != nil {
		p.logger.Error(ctx, "failed to open recognition stream", err)
		return nil, fmt.Errorf("%w: recognition stream", verrors.ErrProviderConnect)
	}

	sess := session.New(
		ctx,
		session.Config{
			TenantID:        tenantID,
			UserID:          userID,
			ConnectionID:    connectionID,
			Voice:           voiceConfig,
			BusinessContext: businessContext,
			QueueCapacity:   p.queueCapacity,
		},
		recognition,
		p.synthesis.ForTenant(voiceConfig.ProviderAPIKey),
		p.dialogue.ForTenant(voiceConfig.ModelAPIKey),
		p.tools,
		p.memory,
		sink,
		p.logger,
	)

	p.registry.Register(registry.Key{
		UserID:       userID.String(),
		TenantID:     tenantID,
		ConnectionID: connectionID,
	}, sess)

	sess.Start()
	p.logger.Info(ctx, "voice session opened")
	return sess, nil
}

// Close stops the session and removes it from the registry. Deregistration is
// unconditional so abnormal terminations cannot leak entries; the whole call
// is idempotent.
func (p *Processor) Close(ctx context.Context, connectionID string, sess *session.Session) {
	if sess != nil {
		sess.Stop(ctx)
	}
	p.registry.Deregister(connectionID)
}

// StopByConnection terminates a session located through the registry. Used by
// the out-of-band stop endpoint.
func (p *Processor) StopByConnection(ctx context.Context, connectionID string) bool {
	conv, ok := p.registry.Lookup(connectionID)
	if !ok {
		return false
	}
	conv.Stop(ctx)
	p.registry.Deregister(connectionID)
	return true
}
