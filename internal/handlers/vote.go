package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	svc *services.Services
}

func NewVoteHandler(svc *services.Services) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Vote handles GET /ajax/vote?contenttype=app__model&id=N&vote=-1|0|1.
// vote=0 only reports the caller's current vote. Bad input never fails
// the request, it answers {"error":1,"value":0}.
func (h *VoteHandler) Vote(c *gin.Context) {
	response := gin.H{"error": 1, "value": 0}
	defer func() {
		c.JSON(http.StatusOK, response)
	}()

	raw, hasVote := c.GetQuery("vote")
	if !hasVote || c.Query("contenttype") == "" || c.Query("id") == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return
	}

	ct, err := h.svc.Types.Lookup(c.Query("contenttype"))
	if err != nil || !ct.Caps.Has(models.CapVotes) {
		return
	}
	id, ok := utils.StringToUint(c.Query("id"))
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rec, err := services.Objects(ctx, h.svc.DB, ct).First(id)
	if err != nil {
		return
	}
	target := ct.Ref(rec)

	if user := middleware.CurrentUser(c); user.IsAuthenticated() {
		if v != 0 {
			if err := h.svc.Votes.Cast(ctx, user.ID, target, v); err != nil && !errors.Is(err, services.ErrInvalidVoteValue) {
				log.Printf("vote on %s by %d failed: %v", target, user.ID, err)
				return
			}
		} else {
			uv, err := h.svc.Votes.UserVote(ctx, user.ID, target)
			if err != nil {
				return
			}
			if uv != nil {
				response["vote"] = uv.Value
			}
		}
	}

	score, err := h.svc.Votes.NetScore(ctx, target)
	if err != nil {
		return
	}
	response["value"] = score
	response["error"] = 0
}
