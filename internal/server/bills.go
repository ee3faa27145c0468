package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vchirila/billchat/constants"
	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
	"github.com/vchirila/billchat/internal/extract"
)

// handleUploadBill accepts one bill document as multipart form field "file":
// a PDF goes through text extraction, a JSON file through the invoice
// decoder. A duplicate (same billNo and billDate) answers 409 unless
// ?replace=true.
func (s *Server) handleUploadBill(c *gin.Context) {
	userID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	ext := filepath.Ext(fileHeader.Filename)
	if !constants.IsAllowedExt(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q, want .pdf or .json", ext)})
		return
	}

	var rec entity.BillRecord
	switch constants.NormalizeExt(ext) {
	case "pdf":
		rec, err = s.extractUploadedPDF(c, fileHeader)
	case "json":
		rec, err = decodeUploadedInvoice(fileHeader)
	}
	if err != nil {
		s.renderError(c, err)
		return
	}

	existing, replaced, err := s.store.Add(userID, rec, c.Query("replace") == "true")
	if err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"error":    "a bill with this number and date already exists; retry with replace=true to overwrite",
				"code":     "BILL_DUPLICATE",
				"existing": existing,
			})
			return
		}
		s.renderError(c, err)
		return
	}
	if replaced {
		c.JSON(http.StatusOK, gin.H{"bill": rec, "replaced": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bill": rec, "replaced": false})
}

// extractUploadedPDF spools the upload to a temp file because pdftotext
// reads from a path.
func (s *Server) extractUploadedPDF(c *gin.Context, fh *multipart.FileHeader) (entity.BillRecord, error) {
	tmp, err := os.CreateTemp("", "upload_*.pdf")
	if err != nil {
		return entity.BillRecord{}, common.NewAppError("UPLOAD_FAILED", "spool upload", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	src, err := fh.Open()
	if err != nil {
		return entity.BillRecord{}, common.NewAppError("UPLOAD_FAILED", "open upload", err)
	}
	defer src.Close()
	if _, err := io.Copy(tmp, src); err != nil {
		return entity.BillRecord{}, common.NewAppError("UPLOAD_FAILED", "spool upload", err)
	}
	if err := tmp.Sync(); err != nil {
		return entity.BillRecord{}, common.NewAppError("UPLOAD_FAILED", "flush upload", err)
	}

	lines, _, err := s.pdf.ExtractLines(c.Request.Context(), tmp.Name())
	if err != nil {
		return entity.BillRecord{}, err
	}
	return s.extractor.ParseLines(lines), nil
}

func decodeUploadedInvoice(fh *multipart.FileHeader) (entity.BillRecord, error) {
	src, err := fh.Open()
	if err != nil {
		return entity.BillRecord{}, common.NewAppError("UPLOAD_FAILED", "open upload", err)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, 4<<20))
	if err != nil {
		return entity.BillRecord{}, common.NewAppError("UPLOAD_FAILED", "read upload", err)
	}
	return extract.DecodeInvoice(data)
}

// handleListBills returns the user's stored bill collection. An account with
// no uploads is an empty list, not a 404.
func (s *Server) handleListBills(c *gin.Context) {
	acct, err := s.store.Load(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	bills := acct.Bills
	if bills == nil {
		bills = []entity.BillRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills, "keys": acct.AllKeys()})
}

// handleClearBills removes the user's whole collection.
func (s *Server) handleClearBills(c *gin.Context) {
	if err := s.store.Clear(c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleExportBills streams the collection as an XLSX workbook.
func (s *Server) handleExportBills(c *gin.Context) {
	userID := c.Param("id")
	acct, err := s.store.Load(userID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	data, err := s.exporter.Workbook(userID, acct.Bills)
	if err != nil {
		s.renderError(c, err)
		return
	}
	filename := "bills_" + entity.NormalizeUserID(userID) + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
