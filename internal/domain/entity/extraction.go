package entity

// ExtractionResult is the structured output of the external OCR service:
// recognized text lines, key-value pairs and table cells. The service is
// opaque; nothing downstream depends on how it was produced.
type ExtractionResult struct {
	Lines     []string   `json:"lines"`
	KeyValues []KeyValue `json:"key_values"`
	Tables    []Table    `json:"tables"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Table is rows of cells; the first row may be a header row.
type Table struct {
	Rows [][]string `json:"rows"`
}

// Text joins the recognized lines for keyword heuristics.
func (r ExtractionResult) Text() string {
	text := ""
	for i, line := range r.Lines {
		if i > 0 {
			text += "\n"
		}
		text += line
	}
	return text
}
