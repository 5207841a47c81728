package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/dbreview/internal/services"
	"github.com/localnerve/dbreview/internal/types"
	"github.com/localnerve/dbreview/internal/utils"
	"gorm.io/gorm"
)

// EmployeeHandler handles employee routes
type EmployeeHandler struct {
	DB *gorm.DB
}

// Upload handles POST /employees/upload
// @Summary Upload employees
// @Description Accepts CSV (or an XLSX workbook) with columns user_id,user_state,user_manager,user_mail.
// @Description Employee data is trusted: any unreadable row fails the whole upload.
// @Tags Employees
// @Accept mpfd,plain
// @Produce json
// @Param file formData file false "CSV or XLSX file"
// @Success 200 {object} services.EmployeeImportResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} services.EmployeeImportResult
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /employees/upload [post]
func (h *EmployeeHandler) Upload(c *fiber.Ctx) error {
	filename, payload, err := readUpload(c)
	if err != nil {
		return types.NewBadRequest(err, "employees.upload.input")
	}

	format := services.DetectEmployeeFormat(filename, payload)
	result, err := services.ImportEmployees(c.UserContext(), h.DB, payload, format)
	switch {
	case errors.Is(err, services.ErrInvalidEmployeeRow):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "employees.upload.row")
	case errors.Is(err, services.ErrBatchRejected):
		return c.Status(fiber.StatusConflict).JSON(result)
	case err != nil:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "employees.upload")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
