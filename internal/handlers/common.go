// common.go
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
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// uploadFormField is the multipart field carrying an uploaded file
const uploadFormField = "file"

var (
	errEmptyUpload = errors.New("empty upload")
	errMissingFile = errors.New("multipart upload has no \"file\" field")
)

// readUpload returns the uploaded file from a multipart form, or the raw
// request body when the request is not multipart
func readUpload(c *fiber.Ctx) (string, []byte, error) {
	fileHeader, err := c.FormFile(uploadFormField)
	if err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return "", nil, err
		}
		defer file.Close()

		payload, err := io.ReadAll(file)
		if err != nil {
			return "", nil, err
		}
		if len(payload) == 0 {
			return "", nil, errEmptyUpload
		}
		return fileHeader.Filename, payload, nil
	}

	if errors.Is(err, fasthttp.ErrMissingFile) {
		return "", nil, errMissingFile
	}
	if !errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return "", nil, err
	}

	// the body buffer is reused by fasthttp after the handler returns
	payload := append([]byte(nil), c.Body()...)
	if len(payload) == 0 {
		return "", nil, errEmptyUpload
	}
	return "", payload, nil
}
