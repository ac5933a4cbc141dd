// Package export renders an origin's tasks as JSON, CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"todo-planner/internal/model"
	"todo-planner/internal/store"
	"todo-planner/internal/view"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "csv", "pdf"}

// Exporter renders a store snapshot.
type Exporter struct {
	src view.Source
}

func New(src view.Source) *Exporter { return &Exporter{src: src} }

// Export renders the tasks, narrowed to category unless it is empty or view.AllCategories.
func (e *Exporter) Export(format, category string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return e.json(category)
	case "csv":
		return e.csv(category)
	case "pdf":
		return e.pdf(category)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

type jsonDocument struct {
	Categories []string     `json:"categories"`
	Todos      []model.Task `json:"todos"`
}

func (e *Exporter) json(category string) ([]byte, error) {
	doc := jsonDocument{Categories: e.src.Categories(), Todos: []model.Task{}}
	for _, row := range e.src.FilterTasks(store.InCategory(normalize(category))) {
		doc.Todos = append(doc.Todos, row.Task)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (e *Exporter) csv(category string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"index", "id", "text", "completed", "due_date", "category", "past_due"})
	now := e.src.Now()
	for _, row := range e.src.FilterTasks(store.InCategory(normalize(category))) {
		due := ""
		if row.Task.DueDate != nil {
			due = row.Task.DueDate.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			strconv.Itoa(row.Index),
			row.Task.ID,
			row.Task.Text,
			strconv.FormatBool(row.Task.Completed),
			due,
			row.Task.Category,
			strconv.FormatBool(!row.Task.Completed && store.IsPastDueAt(row.Task.DueDate, now)),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) pdf(category string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Task list")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, tr(fmt.Sprintf("Generated %s · category: %s", e.src.Now().Format(model.DateLayout), displayCategory(category))))
	pdf.Ln(10)

	for _, section := range view.Sections(e.src, category) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 8, fmt.Sprintf("%s (%d)", section.Title, section.Len()))
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 10)
		if section.Len() == 0 {
			pdf.MultiCell(0, 6, section.Empty, "0", "L", false)
		}
		for row := range section.Rows() {
			pdf.SetTextColor(0, 0, 0)
			if row.PastDue {
				pdf.SetTextColor(200, 0, 0)
			}
			pdf.MultiCell(0, 6, tr(pdfLine(row)), "0", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfLine(row view.Row) string {
	box := "[ ]"
	if row.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %d. %s (%s)", box, row.Index+1, row.Text, model.CategoryLabel(row.Category))
	if due := row.DueLabel(); due != "" {
		line += " - due " + due
		if row.PastDue {
			line += " (past due)"
		}
	}
	return line
}

func normalize(category string) string {
	if strings.EqualFold(strings.TrimSpace(category), view.AllCategories) {
		return ""
	}
	return category
}

func displayCategory(category string) string {
	if c := normalize(category); strings.TrimSpace(c) != "" {
		return c
	}
	return view.AllCategories
}
