// db_info.go
//
// Database classification intake and owner-manager review notifications
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of dbreview.
// dbreview is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// dbreview is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with dbreview.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/dbreview/internal/models"
	"github.com/localnerve/dbreview/internal/services"
	"github.com/localnerve/dbreview/internal/types"
	"github.com/localnerve/dbreview/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DBInfoHandler handles database record routes
type DBInfoHandler struct {
	DB *gorm.DB
}

// DBInfoUploadResponse is the body of POST /db_info/upload
type DBInfoUploadResponse struct {
	Success              bool                    `json:"success"`
	NumberOfRecordsAdded int                     `json:"number_of_records_added"`
	ValidEntries         []models.DatabaseRecord `json:"valid_entries"`
	InvalidEntries       []datatypes.JSON        `json:"invalid_entries" swaggertype:"array,object"`
	Detail               string                  `json:"detail,omitempty"`
}

func newDBInfoUploadResponse(result *services.IngestResult) DBInfoUploadResponse {
	return DBInfoUploadResponse{
		Success:              result.Success,
		NumberOfRecordsAdded: result.Total,
		ValidEntries:         result.Accepted,
		InvalidEntries:       result.Rejected,
		Detail:               result.Detail,
	}
}

// Upload handles POST /db_info/upload
// @Summary Upload database records
// @Description Accepts a JSON array (or single object) of database records, as a multipart "file" or the raw body.
// @Description Structurally invalid entries are returned unchanged in invalid_entries; valid entries are stored in one transaction.
// @Tags DBInfo
// @Accept json,mpfd
// @Produce json
// @Param file formData file false "JSON file"
// @Success 200 {object} DBInfoUploadResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} DBInfoUploadResponse
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /db_info/upload [post]
func (h *DBInfoHandler) Upload(c *fiber.Ctx) error {
	_, payload, err := readUpload(c)
	if err != nil {
		return types.NewBadRequest(err, "db_info.upload.input")
	}

	result, err := services.IngestDatabaseRecords(c.UserContext(), h.DB, payload)
	switch {
	case errors.Is(err, services.ErrInvalidEnvelope):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "db_info.upload.envelope")
	case errors.Is(err, services.ErrBatchRejected):
		return c.Status(fiber.StatusConflict).JSON(newDBInfoUploadResponse(result))
	case err != nil:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "db_info.upload")
	}

	return c.Status(fiber.StatusOK).JSON(newDBInfoUploadResponse(result))
}

// GetUnclassified handles GET /db_info/unclassified
// @Summary Get unclassified databases
// @Description Lists every database record still at UNCLASSIFIED
// @Tags DBInfo
// @Produce json
// @Success 200 {array} models.DatabaseRecord
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /db_info/unclassified [get]
func (h *DBInfoHandler) GetUnclassified(c *fiber.Ctx) error {
	records, err := services.FindUnclassified(c.UserContext(), h.DB)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "db_info.unclassified")
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

// GetByClassification handles GET /db_info/classification/:level
// @Summary Get databases by classification
// @Description Level is an ordinal 0-3 or a name (unclassified, low, medium, high)
// @Tags DBInfo
// @Produce json
// @Param level path string true "Classification level"
// @Success 200 {array} models.DatabaseRecord
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /db_info/classification/{level} [get]
func (h *DBInfoHandler) GetByClassification(c *fiber.Ctx) error {
	level, err := models.ParseClassification(c.Params("level"))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "db_info.classification.input")
	}

	records, err := services.FindByClassification(c.UserContext(), h.DB, level)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "db_info.classification")
	}
	return c.Status(fiber.StatusOK).JSON(records)
}
