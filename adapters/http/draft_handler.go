package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	collectionUC "github.com/khoahotran/provenpro/internal/application/usecase/collection"
	"github.com/khoahotran/provenpro/internal/application/usecase/draft"
	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type DraftHandler struct {
	workspace     *draft.Workspace
	syncUseCase   *collectionUC.SyncUseCase
	deleteUseCase *collectionUC.DeleteItemUseCase
	logger        logger.Logger
}

func NewDraftHandler(
	ws *draft.Workspace,
	syncUC *collectionUC.SyncUseCase,
	deleteUC *collectionUC.DeleteItemUseCase,
	log logger.Logger,
) *DraftHandler {
	return &DraftHandler{
		workspace:     ws,
		syncUseCase:   syncUC,
		deleteUseCase: deleteUC,
		logger:        log,
	}
}

func kindFromParam(c *gin.Context) (collection.Kind, error) {
	kind, ok := collection.Lookup(c.Param("kind"))
	if !ok {
		return collection.Kind{}, apperror.NewNotFound("item kind", c.Param("kind"))
	}
	return kind, nil
}

// store resolves the draft store of a collection kind from the path.
func (h *DraftHandler) store(c *gin.Context) (*draft.Store, error) {
	kind, err := kindFromParam(c)
	if err != nil {
		return nil, err
	}
	if kind.Media {
		return nil, apperror.NewValidation("kind", kind.Name+" has no draft collection")
	}
	s, err := h.workspace.Store(kind)
	if err != nil {
		return nil, apperror.NewInternal("open draft store", err)
	}
	return s, nil
}

func (h *DraftHandler) render(c *gin.Context, status int, s *draft.Store) {
	dto := DraftDTO{
		Kind:        s.Kind().Name,
		Field:       s.Kind().Field,
		Working:     s.Working(),
		DeleteState: string(h.deleteUseCase.State(s.Kind().Name)),
	}
	if buf, ok := s.Buffer(); ok {
		dto.Buffer = &buf
	}
	c.JSON(status, dto)
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	s, err := h.store(c)
	if err != nil {
		c.Error(err)
		return
	}
	h.render(c, http.StatusOK, s)
}

func (h *DraftHandler) BeginEdit(c *gin.Context) {
	s, err := h.store(c)
	if err != nil {
		c.Error(err)
		return
	}
	var req BeginEditRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.NewValidation("body", "invalid JSON body for edit"))
			return
		}
	}

	working := s.Working()
	var target *collection.Item
	switch {
	case req.ItemID != "":
		idx := working.IndexOfID(req.ItemID)
		if idx < 0 {
			c.Error(apperror.NewNotFound(s.Kind().Name, req.ItemID))
			return
		}
		target = &working[idx]
	case req.Index != nil:
		if *req.Index < 0 || *req.Index >= len(working) {
			c.Error(apperror.NewNotFound(s.Kind().Name, fmt.Sprintf("index %d", *req.Index)))
			return
		}
		target = &working[*req.Index]
	}

	s.BeginEdit(target)
	h.render(c, http.StatusOK, s)
}

func (h *DraftHandler) DiscardEdit(c *gin.Context) {
	s, err := h.store(c)
	if err != nil {
		c.Error(err)
		return
	}
	s.DiscardEdit()
	h.render(c, http.StatusOK, s)
}

// CommitEdit applies the posted fields to the open buffer and commits it.
func (h *DraftHandler) CommitEdit(c *gin.Context) {
	s, err := h.store(c)
	if err != nil {
		c.Error(err)
		return
	}
	var req CommitEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("fields", "invalid JSON body for commit"))
		return
	}

	buf, ok := s.Buffer()
	if !ok {
		buf = s.BeginEdit(nil)
	}
	for k, v := range req.Fields {
		if k == "id" {
			continue
		}
		buf.Fields[k] = v
	}

	if _, err := s.CommitEdit(buf); err != nil {
		c.Error(err)
		return
	}
	h.render(c, http.StatusOK, s)
}

// Sync sends the working collection to the profile service.
func (h *DraftHandler) Sync(c *gin.Context) {
	s, err := h.store(c)
	if err != nil {
		c.Error(err)
		return
	}
	var req SyncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.NewValidation("patch", "invalid JSON body for sync"))
			return
		}
	}

	output, err := h.syncUseCase.Execute(c.Request.Context(), collectionUC.SyncInput{
		Kind:       s.Kind(),
		Collection: s.Working(),
		Patch:      profile.Payload(req.Patch),
	})
	if err != nil {
		c.Error(err)
		return
	}
	if !output.Applied {
		h.logger.Info("Sync answered after a newer change", zap.String("kind", s.Kind().Name))
	}
	c.JSON(http.StatusOK, SyncResponse{
		Applied:  output.Applied,
		Items:    output.Collection,
		Snapshot: ToSnapshotDTO(output.Snapshot, true),
	})
}

// DeleteItem works for media kinds too; their id is the profile id.
func (h *DraftHandler) DeleteItem(c *gin.Context) {
	kind, err := kindFromParam(c)
	if err != nil {
		c.Error(err)
		return
	}

	output, err := h.deleteUseCase.Execute(c.Request.Context(), collectionUC.DeleteInput{Kind: kind, ID: c.Param("id")})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{
		Success:  output.Success,
		Message:  output.Message,
		Snapshot: ToSnapshotDTO(output.Snapshot, true),
	})
}
