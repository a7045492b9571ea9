package display

import (
	"html/template"

	"github.com/uniquindio/examenes/internal/model"
)

// FuncMap declares the display helpers available to templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"shortName":        ShortName,
		"shortDescription": ShortDescription,
		"timeAgo":          TimeAgo,
		"keys":             keys,
		"field":            field,
		"title":            Title,
		"description":      Description,
		"professor":        Professor,
		"examID":           ExamID,
	}
}

// Title returns the exam name of a listing record.
func Title(d model.Document) string {
	return d.String(model.TitleKeys...)
}

// Description returns the exam description of a listing record.
func Description(d model.Document) string {
	return d.String(model.DescriptionKeys...)
}

// Professor returns the author of a listing record.
func Professor(d model.Document) string {
	return d.String(model.ProfessorKeys...)
}

// ExamID returns the exam identifier of a listing record, or 0.
func ExamID(d model.Document) int {
	id, _ := d.Int(model.ExamIDKeys...)
	return id
}

func keys(d model.Document) []string {
	return Keys(d)
}

func field(d model.Document, key string) string {
	return d.String(key)
}
