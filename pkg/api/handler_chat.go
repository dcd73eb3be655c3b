package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func registerChatRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/v1/chat",
		Summary:     "Relay a message to the support assistant",
		Description: "The caller's ID token is forwarded. Network failures answer with an error reply, not an error status.",
		Tags:        []string{"chat"},
	}, h.Chat)
}

func (h *Handler) Chat(ctx context.Context, in *ChatInput) (*ChatOutput, error) {
	reply, err := h.svc.Chat(ctx, in.Body.Text, idTokenFrom(ctx))
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &ChatOutput{Body: reply}, nil
}
