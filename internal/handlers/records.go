package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio/internal/apperr"
	"portfolio/internal/content"
	"portfolio/internal/service"
)

type routeFlags int

const (
	publicRead routeFlags = 1 << iota
	slugRoutes
)

// collection serves the CRUD surface of one record variant.
type collection[T any, P content.Entity[T]] struct {
	svc *service.RecordService[T, P]
	log zerolog.Logger
}

func newCollection[T any, P content.Entity[T]](svc *service.RecordService[T, P], log zerolog.Logger) collection[T, P] {
	return collection[T, P]{svc: svc, log: log}
}

func registerCollection[T any, P content.Entity[T]](public, admin *gin.RouterGroup, path string, col collection[T, P], flags routeFlags) {
	if flags&publicRead != 0 {
		public.GET(path, col.list)
	} else {
		admin.GET(path, col.list)
	}
	if flags&slugRoutes != 0 {
		public.GET(path+"/:slug", col.bySlug)
		public.POST(path+"/:slug/views", col.countView)
	}
	admin.POST(path, col.create)
	admin.PUT(path, col.update)
	admin.DELETE(path, col.remove)
}

func (col collection[T, P]) list(c *gin.Context) {
	recs, err := col.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, col.log, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (col collection[T, P]) bySlug(c *gin.Context) {
	rec, err := col.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, col.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (col collection[T, P]) countView(c *gin.Context) {
	views, err := col.svc.IncrementViews(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, col.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

func (col collection[T, P]) create(c *gin.Context) {
	in := P(new(T))
	if err := c.ShouldBindJSON(in); err != nil {
		writeError(c, col.log, bindError(err))
		return
	}
	rec, err := col.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, col.log, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// update takes the id from the body, or from ?id= when the body has none.
func (col collection[T, P]) update(c *gin.Context) {
	in := P(new(T))
	if err := c.ShouldBindJSON(in); err != nil {
		writeError(c, col.log, bindError(err))
		return
	}
	id := content.Or(in.Metadata().ID, c.Query("id"))
	rec, err := col.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, col.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// remove treats an id that is already gone as deleted.
func (col collection[T, P]) remove(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		writeError(c, col.log, apperr.Validation("Missing id"))
		return
	}
	if err := col.svc.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		writeError(c, col.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
