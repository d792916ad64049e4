// Package export turns a response matrix into a delimited table and then a
// spreadsheet. Image answers never embed binary: they become retrieval URLs
// built by the caller.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gzanin/formdeck/model"
)

// ImageURLBuilder produces the absolute retrieval URL for an image answer.
type ImageURLBuilder func(answerID int) string

// ImageURL binds base URL and form id into a builder matching the
// {base}/{form}/image/{answer} retrieval route.
func ImageURL(base string, formID int) ImageURLBuilder {
	return func(answerID int) string {
		return fmt.Sprintf("%s/%d/image/%d", base, formID, answerID)
	}
}

// RenderCSV emits a header row followed by one row per submission. Text
// slots keep their value verbatim, image slots become URLs, none slots are
// empty cells.
func RenderCSV(matrix *model.ResponseMatrix, imageURL ImageURLBuilder) ([]byte, error) {
	buf := &bytes.Buffer{}
	cw := csv.NewWriter(buf)

	err := cw.Write(matrix.Headers)
	if err != nil {
		return nil, err
	}
	for _, row := range matrix.Rows {
		record := make([]string, len(row.Answers))
		for i, a := range row.Answers {
			record[i] = cell(a, imageURL)
		}
		err = cw.Write(record)
		if err != nil {
			return nil, err
		}
	}

	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func cell(a model.AnswerValue, imageURL ImageURLBuilder) string {
	switch a.Type {
	case model.AnswerImage:
		return imageURL(a.AnswerID)
	case model.AnswerNone:
		return ""
	}
	return a.Value
}

// ToSpreadsheet converts a delimited table into an XLSX binary. The
// conversion is structural only: every cell is written as a plain string,
// rows and columns preserved verbatim.
func ToSpreadsheet(table []byte) ([]byte, error) {
	records, err := csv.NewReader(bytes.NewReader(table)).ReadAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for r, record := range records {
		for c, value := range record {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			err = f.SetCellStr(sheet, name, value)
			if err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
