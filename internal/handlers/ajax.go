package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-gonic/gin"
)

// AjaxHandler serves the JSON endpoints pages call from javascript.
type AjaxHandler struct {
	svc *services.Services
}

func NewAjaxHandler(svc *services.Services) *AjaxHandler {
	return &AjaxHandler{svc: svc}
}

// Autosuggest handles GET /ajax/autosuggest. contenttype and usertext are
// required; filter_<field>=<value> and attr_<key>=<value> narrow the
// results. Whatever goes wrong the answer is {"results":[...]}.
func (h *AjaxHandler) Autosuggest(c *gin.Context) {
	empty := gin.H{"results": []services.Suggestion{}}

	contentType, ok1 := c.GetQuery("contenttype")
	usertext, ok2 := c.GetQuery("usertext")
	if !ok1 || !ok2 {
		c.JSON(http.StatusOK, empty)
		return
	}

	q := services.SuggestQuery{
		ContentType:      contentType,
		Text:             usertext,
		Field:            c.Query("field"),
		RequireBeginning: utils.StringToBool(c.Query("requirebeginning")),
		Filters:          map[string]string{},
		Attrs:            map[string]string{},
		AttrText:         c.Query("attr"),
		User:             middleware.CurrentUser(c),
	}
	_, q.UserOnly = c.GetQuery("user_only")

	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if name, ok := strings.CutPrefix(key, "filter_"); ok && name != "" {
			q.Filters[name] = values[0]
		} else if name, ok := strings.CutPrefix(key, "attr_"); ok && name != "" {
			q.Attrs[name] = values[0]
		}
	}

	results, err := h.svc.Records.Autosuggest(c.Request.Context(), q)
	if err != nil {
		log.Printf("autosuggest %s %q failed: %v", contentType, usertext, err)
		c.JSON(http.StatusOK, empty)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type commentView struct {
	ID        uint          `json:"id"`
	Username  string        `json:"username"`
	Body      string        `json:"comment"`
	HTML      template.HTML `json:"html"`
	Score     int           `json:"score"`
	CreatedAt time.Time     `json:"created_at"`
}

func newCommentView(cm *models.Comment) commentView {
	return commentView{
		ID:        cm.ID,
		Username:  cm.Username,
		Body:      cm.Body,
		HTML:      utils.EnhanceHTMLContent(string(utils.RenderMarkdown(cm.Body))),
		Score:     cm.Score,
		CreatedAt: cm.CreatedAt,
	}
}

// commentTarget resolves contenttype/id from the query or form to a live
// record that accepts comments.
func (h *AjaxHandler) commentTarget(c *gin.Context, contentType, rawID string) (models.TargetRef, bool) {
	ct, err := h.svc.Types.Lookup(contentType)
	if err != nil || !ct.Caps.Has(models.CapComments) {
		return models.TargetRef{}, false
	}
	id, ok := utils.StringToUint(rawID)
	if !ok {
		return models.TargetRef{}, false
	}
	rec, err := services.Objects(c.Request.Context(), h.svc.DB, ct).First(id)
	if err != nil {
		return models.TargetRef{}, false
	}
	return ct.Ref(rec), true
}

// Comments handles GET /ajax/comments?contenttype=app__model&id=N.
func (h *AjaxHandler) Comments(c *gin.Context) {
	target, ok := h.commentTarget(c, c.Query("contenttype"), c.Query("id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"results": []commentView{}, "count": 0})
		return
	}

	comments, err := h.svc.Comments.List(c.Request.Context(), target)
	if err != nil {
		log.Printf("list comments on %s failed: %v", target, err)
		c.JSON(http.StatusOK, gin.H{"results": []commentView{}, "count": 0})
		return
	}
	results := make([]commentView, len(comments))
	for i := range comments {
		results[i] = newCommentView(&comments[i])
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// AddComment handles POST /ajax/comments with contenttype, id and comment
// form fields.
func (h *AjaxHandler) AddComment(c *gin.Context) {
	target, ok := h.commentTarget(c, c.PostForm("contenttype"), c.PostForm("id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"error": 1})
		return
	}

	cm, err := h.svc.Comments.Add(c.Request.Context(), middleware.CurrentUser(c), c.ClientIP(), target, c.PostForm("comment"))
	if err != nil {
		if !errors.Is(err, services.ErrEmptyComment) {
			log.Printf("add comment on %s failed: %v", target, err)
		}
		c.JSON(http.StatusOK, gin.H{"error": 1})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": 0, "comment": newCommentView(cm)})
}
