package api

import (
	"bytes"
	"net/http"

	"bhss/internal/errors"
	"bhss/internal/importer"
	"bhss/models"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListSchools(c *gin.Context) {
	filter, ok := queryFilter(c, "handleListSchools")
	if !ok {
		return
	}
	schools, err := s.svc.Directory.ListSchools(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "handleListSchools", err)
		return
	}
	c.JSON(http.StatusOK, schools)
}

func (s *Server) handleCreateSchool(c *gin.Context) {
	var in models.SchoolInput
	if !bindJSON(c, "handleCreateSchool", &in) {
		return
	}
	school, err := s.svc.Directory.CreateSchool(c.Request.Context(), in)
	if err != nil {
		respondError(c, "handleCreateSchool", err)
		return
	}
	c.JSON(http.StatusCreated, school)
}

func (s *Server) handleUpdateSchool(c *gin.Context) {
	id, ok := pathID(c, "handleUpdateSchool")
	if !ok {
		return
	}
	var in models.SchoolInput
	if !bindJSON(c, "handleUpdateSchool", &in) {
		return
	}
	school, err := s.svc.Directory.UpdateSchool(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "handleUpdateSchool", err)
		return
	}
	c.JSON(http.StatusOK, school)
}

func (s *Server) handleDeleteSchool(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteSchool")
	if !ok {
		return
	}
	if err := s.svc.Directory.DeleteSchool(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteSchool", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListBeneficiaries(c *gin.Context) {
	filter, ok := queryFilter(c, "handleListBeneficiaries")
	if !ok {
		return
	}
	rows, err := s.svc.Directory.ListBeneficiaries(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "handleListBeneficiaries", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleCreateBeneficiary(c *gin.Context) {
	var in models.BeneficiaryInput
	if !bindJSON(c, "handleCreateBeneficiary", &in) {
		return
	}
	row, err := s.svc.Directory.CreateBeneficiary(c.Request.Context(), in)
	if err != nil {
		respondError(c, "handleCreateBeneficiary", err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (s *Server) handleUpdateBeneficiary(c *gin.Context) {
	id, ok := pathID(c, "handleUpdateBeneficiary")
	if !ok {
		return
	}
	var in models.BeneficiaryInput
	if !bindJSON(c, "handleUpdateBeneficiary", &in) {
		return
	}
	row, err := s.svc.Directory.UpdateBeneficiary(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "handleUpdateBeneficiary", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) handleDeleteBeneficiary(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteBeneficiary")
	if !ok {
		return
	}
	if err := s.svc.Directory.DeleteBeneficiary(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteBeneficiary", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListDetails(c *gin.Context) {
	filter, ok := queryFilter(c, "handleListDetails")
	if !ok {
		return
	}
	rows, err := s.svc.Directory.ListDetails(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "handleListDetails", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleCreateDetails(c *gin.Context) {
	var in models.SchoolDetailsInput
	if !bindJSON(c, "handleCreateDetails", &in) {
		return
	}
	row, err := s.svc.Directory.CreateDetails(c.Request.Context(), in)
	if err != nil {
		respondError(c, "handleCreateDetails", err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (s *Server) handleUpdateDetails(c *gin.Context) {
	id, ok := pathID(c, "handleUpdateDetails")
	if !ok {
		return
	}
	var in models.SchoolDetailsInput
	if !bindJSON(c, "handleUpdateDetails", &in) {
		return
	}
	row, err := s.svc.Directory.UpdateDetails(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "handleUpdateDetails", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) handleDeleteDetails(c *gin.Context) {
	id, ok := pathID(c, "handleDeleteDetails")
	if !ok {
		return
	}
	if err := s.svc.Directory.DeleteDetails(c.Request.Context(), id); err != nil {
		respondError(c, "handleDeleteDetails", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// importResponse is the import result plus the message shown to the user
type importResponse struct {
	*importer.Result
	Message string `json:"message"`
}

// handleImport takes a multipart "file" upload and an optional
// "schoolYear" field
func (s *Server) handleImport(c *gin.Context) {
	kind, err := importer.ParseKind(c.Param("kind"))
	if err != nil {
		respondError(c, "handleImport", errors.InvalidInput(err.Error()))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, "handleImport", errors.InvalidInput("missing upload field \"file\""))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, "handleImport", errors.Wrap(err, "failed to open upload"))
		return
	}
	defer f.Close()

	result, err := s.svc.Directory.Import(c.Request.Context(), kind, fh.Filename, f, c.PostForm("schoolYear"))
	if err != nil {
		respondError(c, "handleImport", err)
		return
	}
	c.JSON(http.StatusOK, importResponse{Result: result, Message: result.Summary()})
}

func (s *Server) handleExportDirectory(c *gin.Context) {
	filter, ok := queryFilter(c, "handleExportDirectory")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Directory.Export(c.Request.Context(), &buf, filter); err != nil {
		respondError(c, "handleExportDirectory", err)
		return
	}
	attachment(c, "bhss-directory.xlsx", xlsxContentType, buf.Bytes())
}
