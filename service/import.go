package service

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"roster-server-go/logger"
	"roster-server-go/models"
)

// ImportStudents reads the first sheet of an xlsx workbook and creates one
// student per data row. The first row names the fields; empty header cells
// and the reserved _id and group_id columns are ignored, as are rows without
// any values. When groupID is set the group must exist and every imported
// student is linked to it.
func (s *RecordService) ImportStudents(ctx context.Context, file io.Reader, groupID string) (int, error) {
	log := logger.WithPrefix("import")

	var group models.Document
	if groupID != "" {
		var err error
		if group, err = s.lookup(ctx, models.GroupsCollection, groupID); err != nil {
			return 0, err
		}
		if group == nil {
			return 0, notFound(MsgGroupNotFound)
		}
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		log.WithError(err).Debug("Rejected roster upload")
		return 0, &InvalidInputError{Message: "Uploaded file is not a readable xlsx workbook"}
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("Error closing workbook")
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, &InvalidInputError{Message: "Workbook does not contain any sheets"}
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, &InvalidInputError{Message: "Cannot read rows from sheet " + sheetName}
	}

	students := rowsToDocuments(rows)
	imported := 0
	for _, doc := range students {
		if gid, ok := group.ID(); ok {
			doc[models.GroupIDField] = gid
		}
		if _, err = s.store.Insert(ctx, models.StudentsCollection, doc); err != nil {
			return imported, errors.Wrapf(err, "importing student %d of %d", imported+1, len(students))
		}
		imported++
	}

	log.WithField("sheet", sheetName).WithField("group_id", groupID).Infof("Imported %d students", imported)
	return imported, nil
}

func rowsToDocuments(rows [][]string) []models.Document {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		field := strings.TrimSpace(cell)
		if field == models.IDField || field == models.GroupIDField {
			field = ""
		}
		header[i] = field
	}

	var docs []models.Document
	for _, row := range rows[1:] {
		doc := models.Document{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if value := strings.TrimSpace(cell); value != "" {
				doc[header[i]] = value
			}
		}
		if len(doc) > 0 {
			docs = append(docs, doc)
		}
	}
	return docs
}
