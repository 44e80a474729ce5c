package handlers

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"log"
	"net/http"
	"reflect"
	"sort"
	"strconv"

	"mixins/internal/contenttype"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"
	"mixins/internal/widgets"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/schema"
)

const adminPageSize = 50

type AdminHandler struct {
	svc *services.Services
}

func NewAdminHandler(svc *services.Services) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type voteRow struct {
	ID       uint
	User     template.HTML
	Model    template.HTML
	Object   template.HTML
	Value    template.HTML
	Modified template.HTML
	AdminURL string
}

type adminField struct {
	Name string
	Kind string
	HTML template.HTML
}

// readOnly renders value with f, falling back to the escaped raw value.
func readOnly(f widgets.Field, value interface{}) template.HTML {
	out, err := widgets.ReadOnly(f, value)
	if err != nil {
		return template.HTML(html.EscapeString(fmt.Sprint(value)))
	}
	return out
}

// modelChoices lists the registered types as (key, "app.model") choices.
func (h *AdminHandler) modelChoices() []widgets.Choice {
	types := h.svc.Types.All()
	sort.Slice(types, func(i, j int) bool { return types[i].Key() < types[j].Key() })
	out := make([]widgets.Choice, len(types))
	for i, ct := range types {
		out[i] = widgets.Choice{Value: ct.Key(), Label: ct.String()}
	}
	return out
}

func (h *AdminHandler) userLabel(ctx context.Context) func(string) (string, bool) {
	return func(id string) (string, bool) {
		var u models.User
		if err := h.svc.DB.WithContext(ctx).Select("username").First(&u, "id = ?", id).Error; err != nil {
			return "", false
		}
		return u.Username, true
	}
}

// objectLabel resolves an object id of ct, soft-deleted rows included.
func (h *AdminHandler) objectLabel(ctx context.Context, ct *contenttype.ContentType) func(string) (string, bool) {
	return func(raw string) (string, bool) {
		id, ok := utils.StringToUint(raw)
		if ct == nil || !ok {
			return "", false
		}
		rec, err := services.AllObjects(ctx, h.svc.DB, ct).First(id)
		if err != nil {
			return "", false
		}
		return recordLabel(ctx, h.svc, ct, rec), true
	}
}

// Votes handles GET /admin/votes?page=N.
func (h *AdminHandler) Votes(c *gin.Context) {
	ctx := c.Request.Context()
	page := utils.StringToInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}

	votes, total, err := h.svc.Votes.List(ctx, (page-1)*adminPageSize, adminPageSize)
	if err != nil {
		log.Printf("admin: listing votes failed: %v", err)
		RenderError(c, http.StatusInternalServerError, "Could not load votes")
		return
	}

	modelField := widgets.Field{Name: "content_type", Kind: widgets.KindChar, Choices: h.modelChoices()}
	userField := widgets.Field{Name: "user", Kind: widgets.KindForeignKey, Label: h.userLabel(ctx)}
	valueField := widgets.Field{Name: "vote", Kind: widgets.KindInteger, Choices: []widgets.Choice{
		{Value: "1", Label: "+1"},
		{Value: "-1", Label: "-1"},
	}}
	modifiedField := widgets.Field{Name: "modified_at", Kind: widgets.KindDateTime}

	rows := make([]voteRow, len(votes))
	for i, v := range votes {
		ct, _ := h.svc.Types.Lookup(v.ContentType)
		objectField := widgets.Field{Name: "object_id", Kind: widgets.KindForeignKey, Label: h.objectLabel(ctx, ct)}
		rows[i] = voteRow{
			ID:       v.ID,
			User:     readOnly(userField, v.UserID),
			Model:    readOnly(modelField, v.ContentType),
			Object:   readOnly(objectField, v.ObjectID),
			Value:    readOnly(valueField, v.Value),
			Modified: readOnly(modifiedField, v.ModifiedAt),
			AdminURL: fmt.Sprintf("/admin/r/%s/%d", v.ContentType, v.ObjectID),
		}
	}

	Render(c, http.StatusOK, "admin/votes.html", gin.H{
		"Votes":    rows,
		"Total":    total,
		"Page":     page,
		"HasPrev":  page > 1,
		"HasNext":  int64(page*adminPageSize) < total,
		"PageSize": adminPageSize,
	})
}

// adminRecord loads :contenttype/:id including soft-deleted rows.
func (h *AdminHandler) adminRecord(c *gin.Context) (*contenttype.ContentType, models.Record, bool) {
	ct, err := h.svc.Types.Lookup(c.Param("contenttype"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "Unknown content type")
		return nil, nil, false
	}
	id, ok := utils.StringToUint(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Record not found")
		return nil, nil, false
	}
	rec, err := services.AllObjects(c.Request.Context(), h.svc.DB, ct).First(id)
	if err != nil {
		RenderError(c, http.StatusNotFound, "Record not found")
		return nil, nil, false
	}
	return ct, rec, true
}

// Record handles GET /admin/r/:contenttype/:id, every column rendered
// read-only.
func (h *AdminHandler) Record(c *gin.Context) {
	ct, rec, ok := h.adminRecord(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sch, err := ct.Schema(h.svc.DB.NamingStrategy)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Could not read the record type")
		return
	}

	fields := h.columnFields(ctx, sch, rec)
	fields = append(fields, h.manyToManyFields(ctx, sch, rec)...)

	data := gin.H{
		"ContentType": ct,
		"Record":      rec,
		"Label":       recordLabel(ctx, h.svc, ct, rec),
		"Fields":      fields,
		"CanVote":     ct.Caps.Has(models.CapVotes),
		"SoftDelete":  ct.Caps.Has(models.CapSoftDelete),
	}
	if ct.Caps.Has(models.CapVotes) {
		target := ct.Ref(rec)
		score, _ := h.svc.Votes.NetScore(ctx, target)
		ups, _ := h.svc.Votes.UpCount(ctx, target)
		downs, _ := h.svc.Votes.DownCount(ctx, target)
		data["Score"], data["Ups"], data["Downs"] = score, ups, downs
		if up, err := h.svc.Votes.Ups(ctx, target); err == nil {
			data["UpVoters"] = h.voterNames(ctx, up)
		}
		if down, err := h.svc.Votes.Downs(ctx, target); err == nil {
			data["DownVoters"] = h.voterNames(ctx, down)
		}
	}
	Render(c, http.StatusOK, "admin/record.html", data)
}

// voterNames 投票用户名, in vote order
func (h *AdminHandler) voterNames(ctx context.Context, votes []models.UserVote) []string {
	if len(votes) == 0 {
		return nil
	}
	ids := make([]uint, len(votes))
	for i, v := range votes {
		ids[i] = v.UserID
	}
	var users []models.User
	if err := h.svc.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil
	}
	byID := make(map[uint]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	names := make([]string, 0, len(votes))
	for _, v := range votes {
		if name, ok := byID[v.UserID]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (h *AdminHandler) columnFields(ctx context.Context, sch *schema.Schema, rec models.Record) []adminField {
	rv := reflect.ValueOf(rec)
	out := make([]adminField, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		value, _ := f.ValueOf(ctx, rv)
		w := widgets.Field{Name: f.DBName, Kind: widgets.KindOf(f)}
		switch w.Kind {
		case widgets.KindImage:
			w.URL = h.svc.Images.URL
		case widgets.KindForeignKey:
			if f.DBName == "user_id" {
				w.Label = h.userLabel(ctx)
			} else {
				w.Kind = widgets.KindInteger
			}
		}
		out = append(out, adminField{Name: f.Name, Kind: w.Kind.String(), HTML: readOnly(w, value)})
	}
	return out
}

func (h *AdminHandler) manyToManyFields(ctx context.Context, sch *schema.Schema, rec models.Record) []adminField {
	var out []adminField
	for _, rel := range sch.Relationships.Many2Many {
		items := reflect.New(reflect.SliceOf(rel.FieldSchema.ModelType))
		if err := h.svc.DB.WithContext(ctx).Model(rec).Association(rel.Name).Find(items.Interface()); err != nil {
			log.Printf("admin: loading %s failed: %v", rel.Name, err)
			continue
		}

		pk := rel.FieldSchema.PrioritizedPrimaryField
		labels := make(map[string]string)
		ids := make([]string, 0, items.Elem().Len())
		for i := 0; i < items.Elem().Len(); i++ {
			el := items.Elem().Index(i)
			v, _ := pk.ValueOf(ctx, el)
			id := fmt.Sprint(v)
			ids = append(ids, id)
			labels[id] = fmt.Sprint(el.Addr().Interface())
		}

		w := widgets.Field{
			Name: rel.Name,
			Kind: widgets.KindManyToMany,
			Label: func(id string) (string, bool) {
				l, ok := labels[id]
				return l, ok
			},
		}
		out = append(out, adminField{Name: rel.Name, Kind: w.Kind.String(), HTML: readOnly(w, ids)})
	}
	return out
}

// Delete handles POST /admin/r/:contenttype/:id/delete; force=1 removes
// the row even for soft-deletable types.
func (h *AdminHandler) Delete(c *gin.Context) {
	ct, rec, ok := h.adminRecord(c)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", c.PostForm("force")))
	if err := h.svc.Records.Delete(c.Request.Context(), rec, force); err != nil {
		log.Printf("admin: deleting %s %d failed: %v", ct, rec.GetID(), err)
		RenderError(c, http.StatusInternalServerError, "Could not delete the record")
		return
	}

	if force || !ct.Caps.Has(models.CapSoftDelete) {
		c.Redirect(http.StatusFound, "/admin/votes")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/admin/r/%s/%d", ct.Key(), rec.GetID()))
}

// ClearVotes handles POST /admin/r/:contenttype/:id/clear-votes.
func (h *AdminHandler) ClearVotes(c *gin.Context) {
	ct, rec, ok := h.adminRecord(c)
	if !ok {
		return
	}
	if err := h.svc.Votes.Clear(c.Request.Context(), ct.Ref(rec)); err != nil {
		log.Printf("admin: clearing votes on %s %d failed: %v", ct, rec.GetID(), err)
		RenderError(c, http.StatusInternalServerError, "Could not clear the votes")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/admin/r/%s/%d", ct.Key(), rec.GetID()))
}
