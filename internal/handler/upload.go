package handler

import (
	"io"
	"net/http"
	"time"

	"flowmrp/internal/apierror"
	"flowmrp/internal/dto"
	"flowmrp/internal/service"
	"flowmrp/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploads larger than this are rejected before parsing.
const maxUploadBytes = 10 << 20

// UploadHandler drives the spreadsheet surface: template download, the
// two-phase staged upload (parse → preview → commit), and direct JSON ingest.
type UploadHandler struct {
	ingest   service.IngestService
	sessions *session.Store
}

func NewUploadHandler(ingest service.IngestService, sessions *session.Store) *UploadHandler {
	return &UploadHandler{ingest: ingest, sessions: sessions}
}

// Template streams the empty upload workbook.
func (h *UploadHandler) Template(c *gin.Context) {
	data, err := h.ingest.Template()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bom_template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Upload parses the multipart workbook and stages the rows for preview.
// Nothing is written until the client commits the returned token.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("failed to read upload"))
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("upload exceeds 10MB"))
		return
	}

	rows, err := h.ingest.Parse(data)
	if err != nil {
		respondError(c, err)
		return
	}

	up := h.sessions.Put(rows)
	c.JSON(http.StatusOK, dto.UploadSessionResponse{
		Token:     up.Token.String(),
		Rows:      up.Rows,
		ExpiresAt: up.ExpiresAt.Format(time.RFC3339),
	})
}

// Commit runs the ingest for a previously staged upload.
func (h *UploadHandler) Commit(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid upload token"))
		return
	}
	up, ok := h.sessions.Get(token)
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("upload session not found or expired"))
		return
	}

	summary, err := h.ingest.Ingest(c.Request.Context(), up.Rows)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sessions.Delete(token)
	c.JSON(http.StatusOK, summary)
}

// IngestDirect applies rows sent as JSON, bypassing the staging step.
func (h *UploadHandler) IngestDirect(c *gin.Context) {
	var req dto.IngestRequest
	if !bindAndValidate(c, &req) {
		return
	}
	summary, err := h.ingest.Ingest(c.Request.Context(), req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
