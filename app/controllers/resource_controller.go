package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	appctx "github.com/shashiranjanraj/rincon/pkg/ctx"
	"github.com/shashiranjanraj/rincon/pkg/event"
	"github.com/shashiranjanraj/rincon/pkg/logger"
)

// Labels are the user-facing messages of one resource.
type Labels struct {
	NotFound string
	Updated  string
	Deleted  string
}

// Masculine builds labels for a masculine noun ("Producto").
func Masculine(noun string) Labels {
	return Labels{
		NotFound: noun + " no encontrado",
		Updated:  noun + " actualizado correctamente",
		Deleted:  noun + " eliminado correctamente",
	}
}

// Feminine builds labels for a feminine noun ("Venta").
func Feminine(noun string) Labels {
	return Labels{
		NotFound: noun + " no encontrada",
		Updated:  noun + " actualizada correctamente",
		Deleted:  noun + " eliminada correctamente",
	}
}

// Notifier receives one event per successful write. *event.Dispatcher
// implements it.
type Notifier interface {
	FireAsync(e event.Event)
}

// ResourceController serves list/show/store/update/destroy for one table.
type ResourceController[T any, PT models.Entity[T]] struct {
	resource string
	repo     repositories.Repository[T]
	labels   Labels
	events   Notifier
}

// NewResourceController builds the controller for resource (the URL
// segment, e.g. "productos"). events may be nil.
func NewResourceController[T any, PT models.Entity[T]](resource string, repo repositories.Repository[T], labels Labels, events Notifier) *ResourceController[T, PT] {
	return &ResourceController[T, PT]{resource: resource, repo: repo, labels: labels, events: events}
}

// Resource is the URL segment this controller serves.
func (rc *ResourceController[T, PT]) Resource() string { return rc.resource }

func (rc *ResourceController[T, PT]) Index(c *appctx.Context) {
	rows, err := rc.repo.All(c.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.Success(rows)
}

func (rc *ResourceController[T, PT]) Show(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(rc.labels.NotFound)
		return
	}
	row, err := rc.repo.Find(c.Context(), id)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.Success(row)
}

func (rc *ResourceController[T, PT]) Store(c *appctx.Context) {
	var v T
	if !c.BindJSON(&v) {
		return
	}
	if err := rc.repo.Create(c.Context(), &v); err != nil {
		rc.fail(c, err)
		return
	}
	id := PT(&v).Key()
	rc.notify(event.Created, id)
	c.Created(id)
}

func (rc *ResourceController[T, PT]) Update(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(rc.labels.NotFound)
		return
	}
	var v T
	if !c.BindJSON(&v) {
		return
	}
	if err := rc.repo.Update(c.Context(), id, &v); err != nil {
		rc.fail(c, err)
		return
	}
	rc.notify(event.Updated, id)
	c.Message(rc.labels.Updated)
}

func (rc *ResourceController[T, PT]) Destroy(c *appctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound(rc.labels.NotFound)
		return
	}
	if err := rc.repo.Delete(c.Context(), id); err != nil {
		rc.fail(c, err)
		return
	}
	rc.notify(event.Deleted, id)
	c.Message(rc.labels.Deleted)
}

func (rc *ResourceController[T, PT]) notify(action string, id uint) {
	if rc.events != nil {
		rc.events.FireAsync(event.Change(rc.resource, action, id))
	}
}

func (rc *ResourceController[T, PT]) fail(c *appctx.Context, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		c.NotFound(rc.labels.NotFound)
		return
	}
	logger.WithCtx(c.Context()).Error("store call failed", "resource", rc.resource, "error", err)
	c.Error(http.StatusInternalServerError, err.Error())
}
