package controller

import (
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/middleware"
	"LykkeLoopAPI/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ConversationController struct {
	conversationService *service.ConversationService
}

func NewConversationController(conversationService *service.ConversationService) *ConversationController {
	return &ConversationController{
		conversationService: conversationService,
	}
}

// GetOrCreate godoc
// @Summary      Open Conversation
// @Description  Return the caller's conversation with the shop, creating it on first contact. Customers only.
// @Tags         conversation
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess{data=model.ConversationResponse}
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/conversations [post]
func (c *ConversationController) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	resp, err := c.conversationService.GetOrCreate(r.Context(), authUser)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// List godoc
// @Summary      List Conversations
// @Description  Admin: every conversation with its customer, most recent first. Customer: own conversation.
// @Tags         conversation
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess{data=[]model.ConversationResponse}
// @Failure      401  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/conversations [get]
func (c *ConversationController) List(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	resp, err := c.conversationService.List(r.Context(), authUser)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// Get godoc
// @Summary      Get Conversation
// @Description  Conversation with its 50 most recent messages, oldest first.
// @Tags         conversation
// @Produce      json
// @Param        conversationID path string true "Conversation ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ConversationDetailResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/conversations/{conversationID} [get]
func (c *ConversationController) Get(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	resp, err := c.conversationService.Get(r.Context(), authUser, chi.URLParam(r, "conversationID"))
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}
