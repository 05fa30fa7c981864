package bootstrap

import (
	"context"
	"fmt"

	"voicedesk-server/internal/availability"
	"voicedesk-server/internal/clients/deepgram"
	"voicedesk-server/internal/clients/elevenlabs"
	"voicedesk-server/internal/clients/mail"
	aiclient "voicedesk-server/internal/clients/openai"
	"voicedesk-server/internal/config"
	"voicedesk-server/internal/memory"
	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"
	voiceHandler "voicedesk-server/internal/voiceassist/handler"
	voiceProcessor "voicedesk-server/internal/voiceassist/processor"
	"voicedesk-server/internal/voiceassist/registry"
	"voicedesk-server/internal/voiceassist/tenantconfig"
	"voicedesk-server/internal/voiceassist/tools"
)

// defaultVoiceID is the synthesis voice used for all tenants until per-tenant
// voices are exposed in settings.
const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  store.Store
	Logger *observability.Logger

	// Handlers
	VoiceHandler voiceHandler.Handler

	// Shared voice infrastructure
	Registry *registry.Registry
	Memory   *memory.Service
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	connectionString := cfg.Database.ConnectionString()
	var err error
	deps.Store, err = store.New(connectionString, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	mailClient, err := mail.NewResendClient(cfg.Services.ResendAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resend client: %w", err)
	}

	// Shared voice infrastructure
	deps.Registry = registry.New()
	deps.Memory = memory.New(logger)
	configProvider := tenantconfig.NewProvider(&deps.Store, logger)

	// Business services backing the assistant's tools
	slotService := availability.New(&deps.Store, logger)
	toolExecutor := tools.NewExecutor(&deps.Store, slotService, mailClient,
		cfg.Services.DefaultEmailSender, cfg.Services.LeadNotificationEmail, logger)

	// Provider clients
	sttClient := deepgram.NewClient(logger)
	ttsClient := elevenlabs.NewClient(logger)
	dialogueClient := aiclient.NewDialogueClient(logger)

	// Voice processor and handler
	voiceProc := voiceProcessor.New(
		configProvider,
		voiceProcessor.NewDeepgramOpener(sttClient),
		voiceProcessor.NewElevenLabsFactory(ttsClient, defaultVoiceID),
		voiceProcessor.NewOpenAIDialogueFactory(dialogueClient, ""),
		toolExecutor,
		deps.Memory,
		deps.Registry,
		cfg.Voice.QueueCapacity,
		logger,
	)
	deps.VoiceHandler = voiceHandler.New(&voiceProc, &deps.Store, configProvider, cfg.Auth.JWTSecret, logger)

	return deps, nil
}

// Cleanup closes all resources that need cleanup
func (d *Dependencies) Cleanup(ctx context.Context) {
	if d.Registry != nil {
		d.Registry.StopAll(ctx)
	}
	if d.Memory != nil {
		d.Memory.Close()
	}
}
