package manager

import (
	"context"
	"fmt"
	"strings"

	"assistd/internal/hardware"
	"assistd/pkg/types"
)

// Chat routes req to a model for the current hardware, generates a reply and
// records the exchange. A record is written only when generation succeeds;
// a failed write is logged and published but does not fail the request.
func (m *Manager) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return types.ChatResponse{}, ErrInvalidRequest("message is required")
	}
	category := normalizeCategory(req.MessageType)

	tier, _ := m.detect(ctx)
	model := m.catalog.Select(tier, category, req.ModelOverride)
	m.publish(Event{Name: "chat_routed", ModelID: model, Fields: map[string]any{
		"tier":     tier.String(),
		"category": category,
	}})

	release, err := m.beginGeneration(ctx, model)
	if err != nil {
		if IsTooBusy(err) {
			m.log.Warn().Str("model", model).Msg("admission timed out")
		}
		return types.ChatResponse{}, err
	}
	defer release()

	start := m.now()
	text, err := m.gen.Generate(ctx, model, m.persona(category), renderMessage(req.Context, req.Message))
	if err != nil {
		m.log.Error().Err(err).Str("model", model).Str("category", category).Msg("generation failed")
		m.publish(Event{Name: "chat_failed", ModelID: model, Fields: map[string]any{"error": err.Error()}})
		return types.ChatResponse{}, fmt.Errorf("generate with %s: %w", model, err)
	}

	rec := types.ConversationRecord{
		ID:          m.newID(),
		Message:     req.Message,
		Response:    text,
		Timestamp:   m.now().UTC(),
		MessageType: types.StringPtr(category),
	}
	// The reply is already paid for; keep the write alive if the client leaves.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := m.store.Save(saveCtx, rec); err != nil {
		m.log.Error().Err(err).Str("id", rec.ID).Msg("persist conversation failed")
		m.publish(Event{Name: "persist_failed", ModelID: model, Fields: map[string]any{"id": rec.ID, "error": err.Error()}})
	}
	m.publish(Event{Name: "chat_completed", ModelID: model, Fields: map[string]any{
		"tier":     tier.String(),
		"category": category,
		"dur_ms":   m.now().Sub(start).Milliseconds(),
	}})
	m.log.Info().Str("model", model).Str("tier", tier.String()).Str("category", category).Str("id", rec.ID).Msg("chat completed")
	return types.ChatResponse{Response: text, ModelUsed: model}, nil
}

// Hardware returns the freshly probed profile and its tier.
func (m *Manager) Hardware(ctx context.Context) types.HardwareResponse {
	tier, prof := m.detect(ctx)
	return types.HardwareResponse{Tier: tier.String(), Details: prof}
}

func (m *Manager) detect(ctx context.Context) (hardware.Tier, types.HardwareProfile) {
	prof := m.profiler.Profile(ctx)
	return hardware.Classify(prof), prof
}

// renderMessage prefixes message with the prior turns as a plain transcript.
func renderMessage(history []types.ChatMessage, message string) string {
	var b strings.Builder
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Previous conversation:\n")
		}
		if strings.EqualFold(strings.TrimSpace(turn.Role), "assistant") {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(content)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return message
	}
	b.WriteString("\nCurrent message: ")
	b.WriteString(message)
	return b.String()
}
