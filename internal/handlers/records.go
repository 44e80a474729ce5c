package handlers

import (
	"context"
	"log"
	"net/http"

	"mixins/internal/contenttype"
	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	svc *services.Services
}

func NewRecordHandler(svc *services.Services) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type recordView struct {
	ID       uint          `json:"id"`
	Value    string        `json:"value"`
	URL      string        `json:"url"`
	Score    int           `json:"score"`
	Votes    int           `json:"votes"`
	Comments int           `json:"comments"`
	Record   models.Record `json:"-"`
}

func (h *RecordHandler) views(ctx context.Context, ct *contenttype.ContentType, ranked []services.RankedRecord) []recordView {
	out := make([]recordView, len(ranked))
	for i, r := range ranked {
		out[i] = recordView{
			ID:     r.Record.GetID(),
			Value:  recordLabel(ctx, h.svc, ct, r.Record),
			URL:    ct.URL(r.Record),
			Score:  r.Score,
			Votes:  r.Votes,
			Record: r.Record,
		}
		if ct.Caps.Has(models.CapComments) {
			n, err := h.svc.Comments.Count(ctx, ct.Ref(r.Record))
			if err != nil {
				log.Printf("counting comments on %s %d failed: %v", ct, r.Record.GetID(), err)
			}
			out[i].Comments = int(n)
		}
	}
	return out
}

func plain(recs []models.Record) []services.RankedRecord {
	out := make([]services.RankedRecord, len(recs))
	for i, rec := range recs {
		out[i] = services.RankedRecord{Record: rec}
	}
	return out
}

// list answers with JSON for ajax callers and the list page otherwise.
func (h *RecordHandler) list(c *gin.Context, ct *contenttype.ContentType, title string, ranked []services.RankedRecord) {
	items := h.views(c.Request.Context(), ct, ranked)
	if wantsJSON(c) || c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{"results": items})
		return
	}
	Render(c, http.StatusOK, "record/list.html", gin.H{
		"Title":       title,
		"ContentType": ct,
		"Items":       items,
	})
}

func (h *RecordHandler) contentType(c *gin.Context) (*contenttype.ContentType, bool) {
	ct, err := h.svc.Types.Lookup(c.Param("contenttype"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "Unknown content type")
		return nil, false
	}
	return ct, true
}

// Top handles GET /records/:contenttype/top?n=10.
func (h *RecordHandler) Top(c *gin.Context) {
	ct, ok := h.contentType(c)
	if !ok {
		return
	}
	n := utils.StringToInt(c.Query("n"), 10)
	ranked, err := h.svc.Ranking.Top(c.Request.Context(), ct, middleware.CurrentUser(c), n)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Could not load the ranking")
		return
	}
	h.list(c, ct, "Top "+ct.Model, ranked)
}

// Newest handles GET /records/:contenttype/newest?n=10.
func (h *RecordHandler) Newest(c *gin.Context) {
	ct, ok := h.contentType(c)
	if !ok {
		return
	}
	n := utils.StringToInt(c.Query("n"), 10)
	recs, err := services.Objects(c.Request.Context(), h.svc.DB, ct).Globals(middleware.CurrentUser(c)).Newest(n)
	if err != nil {
		log.Printf("newest %s failed: %v", ct, err)
		RenderError(c, http.StatusInternalServerError, "Could not load records")
		return
	}
	h.list(c, ct, "Newest "+ct.Model, plain(recs))
}

// Voteless handles GET /records/:contenttype/voteless.
func (h *RecordHandler) Voteless(c *gin.Context) {
	ct, ok := h.contentType(c)
	if !ok {
		return
	}
	recs, err := services.Objects(c.Request.Context(), h.svc.DB, ct).Globals(middleware.CurrentUser(c)).ByDate().Voteless()
	if err != nil {
		log.Printf("voteless %s failed: %v", ct, err)
		RenderError(c, http.StatusInternalServerError, "Could not load records")
		return
	}
	h.list(c, ct, "Waiting for votes", plain(recs))
}

// Detail handles GET /r/:contenttype/:id. Records the caller may not see
// are reported as missing.
func (h *RecordHandler) Detail(c *gin.Context) {
	ct, ok := h.contentType(c)
	if !ok {
		return
	}
	id, ok := utils.StringToUint(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Record not found")
		return
	}

	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	rec, err := services.Objects(ctx, h.svc.DB, ct).Globals(user).First(id)
	if err != nil {
		RenderError(c, http.StatusNotFound, "Record not found")
		return
	}

	data := gin.H{
		"ContentType": ct,
		"Record":      rec,
		"Label":       recordLabel(ctx, h.svc, ct, rec),
		"URL":         ct.URL(rec),
		"HasImage":    ct.Caps.Has(models.CapImage),
		"CanVote":     ct.Caps.Has(models.CapVotes),
		"CanComment":  ct.Caps.Has(models.CapComments),
	}
	if loc, ok := rec.(models.Locatable); ok {
		data["Address"] = loc.LocationFields().SimpleAddress()
	}

	target := ct.Ref(rec)
	if ct.Caps.Has(models.CapVotes) {
		score, err := h.svc.Votes.NetScore(ctx, target)
		if err != nil {
			log.Printf("score for %s failed: %v", target, err)
		}
		data["Score"] = score
		if user.IsAuthenticated() {
			if uv, err := h.svc.Votes.UserVote(ctx, user.ID, target); err == nil && uv != nil {
				data["UserVote"] = uv.Value
			}
		}
	}
	if ct.Caps.Has(models.CapComments) {
		comments, err := h.svc.Comments.List(ctx, target)
		if err != nil {
			log.Printf("comments for %s failed: %v", target, err)
		}
		data["Comments"] = comments
	}

	Render(c, http.StatusOK, "record/detail.html", data)
}
