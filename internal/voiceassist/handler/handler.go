// Package handler exposes the voice assistant over HTTP: the duplex widget
// websocket, widget token minting, out-of-band session stop, and tenant
// settings management.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voicedesk-server/internal/apierrors"
	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"
	"voicedesk-server/internal/voiceassist/processor"
)

const widgetTokenTTL = time.Hour

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Widgets embed on arbitrary customer sites; the token is the gate.
		return true
	},
}

// SettingsWriter persists tenant voice settings.
type SettingsWriter interface {
	UpsertVoiceSettings(ctx context.Context, settings store.VoiceSettings) (*store.VoiceSettings, error)
}

// ConfigInvalidator drops a tenant's cached configuration after a mutation.
type ConfigInvalidator interface {
	Invalidate(tenantID uuid.UUID)
}

type Handler struct {
	processor   *processor.Processor
	settings    SettingsWriter
	invalidator ConfigInvalidator
	jwtSecret   string
	logger      *observability.Logger
}

func New(voiceProcessor *processor.Processor, settings SettingsWriter, invalidator ConfigInvalidator,
	jwtSecret string, logger *observability.Logger) Handler {
	return Handler{
		processor:   voiceProcessor,
		settings:    settings,
		invalidator: invalidator,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

type mintTokenRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
}

// HandleMintToken issues a short-lived widget token binding a fresh visitor
// identity to the tenant.
func (h *Handler) HandleMintToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req mintTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "INVALID_REQUEST", "tenantId is required")
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_TENANT_ID", "tenantId must be a UUID")
		return
	}

	userID := uuid.New()
	claims := jwt.MapClaims{
		"tenant_id": tenantID.String(),
		"user_id":   userID.String(),
		"exp":       time.Now().Add(widgetTokenTTL).Unix(),
		"iat":       time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.logger.Error(ctx, "failed to sign widget token", err)
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "userId": userID.String()})
}

// parseWidgetToken validates the token and extracts the tenant and visitor
// identities.
func (h *Handler) parseWidgetToken(tokenString string) (tenantID, userID uuid.UUID, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, uuid.Nil, jwt.ErrTokenUnverifiable
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	tenantStr, _ := claims["tenant_id"].(string)
	userStr, _ := claims["user_id"].(string)
	if tenantID, err = uuid.Parse(tenantStr); err != nil {
		return uuid.Nil, uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	if userID, err = uuid.Parse(userStr); err != nil {
		return uuid.Nil, uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	return tenantID, userID, nil
}

// HandleStopSession terminates a live session from outside its connection.
func (h *Handler) HandleStopSession(c *gin.Context) {
	connectionID := c.Param("connectionID")
	if !h.processor.StopByConnection(c.Request.Context(), connectionID) {
		apierrors.NotFound(c, "no live session for that connection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

type updateSettingsRequest struct {
	TenantID            string `json:"tenantId" binding:"required"`
	Personality         string `json:"personality" binding:"required"`
	Currency            string `json:"currency" binding:"required"`
	BusinessDescription string `json:"businessDescription" binding:"required"`
	CustomInstructions  string `json:"customInstructions"`
	ModelAPIKey         string `json:"modelApiKey" binding:"required"`
	ProviderAPIKey      string `json:"providerApiKey" binding:"required"`
}

// HandleUpdateSettings upserts the tenant's voice settings and invalidates
// the shared configuration cache so live traffic picks up the change.
func (h *Handler) HandleUpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_TENANT_ID", "tenantId must be a UUID")
		return
	}

	updated, err := h.settings.UpsertVoiceSettings(ctx, store.VoiceSettings{
		TenantID:            tenantID,
		Personality:         req.Personality,
		Currency:            req.Currency,
		BusinessDescription: req.BusinessDescription,
		CustomInstructions:  nullString(req.CustomInstructions),
		ModelAPIKey:         req.ModelAPIKey,
		ProviderAPIKey:      req.ProviderAPIKey,
	})
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	h.invalidator.Invalidate(tenantID)

	c.JSON(http.StatusOK, gin.H{
		"tenantId":            updated.TenantID.String(),
		"personality":         updated.Personality,
		"currency":            updated.Currency,
		"businessDescription": updated.BusinessDescription,
		"customInstructions":  updated.CustomInstructions.String,
		"updatedAt":           updated.UpdatedAt,
	})
}
