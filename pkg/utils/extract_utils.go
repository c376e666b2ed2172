package utils

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
)

// ResolveDocumentID derives a deterministic document id from the source
// object key: the file name stem, whitespace collapsed to dashes. The same
// key always resolves to the same id, which is what makes re-ingestion an
// upsert rather than a duplicate.
func ResolveDocumentID(key string) (string, error) {
	base := filepath.Base(key)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSpace(stem)
	stem = strings.Join(strings.Fields(stem), "-")
	if stem == "" || stem == "." || stem == "/" {
		return "", entity.ErrUnresolvableDocumentID
	}
	return stem, nil
}

// ClassifyDocument picks a document type from file name and extracted text
// heuristics. It never fails; anything unrecognized is unknown.
func ClassifyDocument(fileName, text string) entity.DocumentType {
	name := strings.ToLower(fileName)
	body := strings.ToLower(text)

	switch {
	case strings.Contains(name, "cylinder"), strings.Contains(name, "log"):
		return entity.TypeCylinderInventory
	case strings.Contains(name, "invoice"):
		return entity.TypeInvoice
	case strings.Contains(name, "report"):
		return entity.TypeReport
	case strings.Contains(name, "contract"), strings.Contains(name, "agreement"):
		return entity.TypeContract
	}

	switch {
	case strings.Contains(body, "filled cylinders"), strings.Contains(body, "empty cylinders"):
		return entity.TypeCylinderInventory
	case strings.Contains(body, "invoice"):
		return entity.TypeInvoice
	case strings.Contains(body, "contract"), strings.Contains(body, "agreement"):
		return entity.TypeContract
	case strings.Contains(body, "report"):
		return entity.TypeReport
	}

	return entity.TypeUnknown
}

// PageCount reads the page count out of PDF content. Non-PDF inputs and
// unreadable PDFs count as a single page.
func PageCount(data []byte, key string) int {
	if strings.ToLower(filepath.Ext(key)) != ".pdf" {
		return 1
	}
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// MapperConfig controls what happens to extracted key-values that match no
// per-type rule: kept under their normalized name, or dropped.
type MapperConfig struct {
	KeepUnmapped bool
}

// fieldSynonyms maps normalized extracted keys to canonical field names,
// per document type.
var fieldSynonyms = map[entity.DocumentType]map[string]string{
	entity.TypeInvoice: {
		"invoice_number": "invoice_number",
		"invoice_no":     "invoice_number",
		"invoice":        "invoice_number",
		"number":         "invoice_number",
		"date":           "date",
		"invoice_date":   "date",
		"issue_date":     "date",
		"total":          "total_amount",
		"total_amount":   "total_amount",
		"amount_due":     "total_amount",
		"grand_total":    "total_amount",
		"vendor":         "vendor",
		"supplier":       "vendor",
		"seller":         "vendor",
		"from":           "vendor",
	},
	entity.TypeReport: {
		"title":       "title",
		"subject":     "title",
		"date":        "date",
		"report_date": "date",
		"author":      "author",
		"prepared_by": "author",
	},
	entity.TypeContract: {
		"parties":         "parties",
		"between":         "parties",
		"effective_date":  "effective_date",
		"start_date":      "effective_date",
		"expiration_date": "expiration_date",
		"end_date":        "expiration_date",
	},
	entity.TypeCylinderInventory: {
		"month":      "month_year",
		"month_year": "month_year",
		"date":       "date",
	},
}

// MapFields flattens an extraction result into an ordered field list using
// the per-type rules. Key-values come first, then table rows: each data row
// contributes one field per header column, so repeated field names across
// rows are expected.
func MapFields(docType entity.DocumentType, result entity.ExtractionResult, cfg MapperConfig) []entity.Field {
	var fields []entity.Field
	synonyms := fieldSynonyms[docType]

	for _, kv := range result.KeyValues {
		name := NormalizeFieldName(kv.Key)
		if name == "" {
			continue
		}
		if canonical, ok := synonyms[name]; ok {
			fields = append(fields, entity.Field{Name: canonical, Value: kv.Value})
			continue
		}
		if cfg.KeepUnmapped {
			fields = append(fields, entity.Field{Name: name, Value: kv.Value})
		}
	}

	for _, table := range result.Tables {
		if len(table.Rows) < 2 {
			continue
		}
		headers := make([]string, len(table.Rows[0]))
		for i, h := range table.Rows[0] {
			headers[i] = NormalizeFieldName(h)
		}
		for _, row := range table.Rows[1:] {
			for i, cell := range row {
				if i >= len(headers) || headers[i] == "" {
					continue
				}
				fields = append(fields, entity.Field{Name: headers[i], Value: cell})
			}
		}
	}

	return fields
}

// NormalizeFieldName lowercases a raw extracted label and collapses
// whitespace and punctuation runs into single underscores.
func NormalizeFieldName(raw string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
