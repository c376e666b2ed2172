package entity

import (
	"time"
)

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

var statusRank = map[DocumentStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusProcessed:  2,
	StatusFailed:     2,
}

// CanTransitionTo reports whether moving to next is a forward transition.
// processed and failed are both terminal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	if from >= statusRank[StatusProcessed] {
		return false
	}
	return to > from
}

type DocumentType string

const (
	TypeInvoice           DocumentType = "invoice"
	TypeReport            DocumentType = "report"
	TypeContract          DocumentType = "contract"
	TypeCylinderInventory DocumentType = "cylinder_inventory"
	TypeUnknown           DocumentType = "unknown"
)

type DocumentMetadata struct {
	ID              uint           `gorm:"primaryKey" json:"-"`
	DocumentID      string         `gorm:"uniqueIndex;size:100;not null" json:"document_id"`
	OriginalBucket  string         `gorm:"size:255;not null" json:"original_bucket"`
	OriginalKey     string         `gorm:"size:1000;not null" json:"original_key"`
	ProcessedBucket string         `gorm:"size:255" json:"processed_bucket,omitempty"`
	ProcessedKey    string         `gorm:"size:1000" json:"processed_key,omitempty"`
	DocumentType    DocumentType   `gorm:"size:50;not null;default:unknown" json:"document_type"`
	PageCount       int            `gorm:"not null;default:1" json:"page_count"`
	Status          DocumentStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Fields []DocumentField `gorm:"foreignKey:DocumentID;references:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (DocumentMetadata) TableName() string { return "document_metadata" }

type DocumentField struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	DocumentID string    `gorm:"size:100;not null;index" json:"document_id"`
	FieldName  string    `gorm:"size:255;not null" json:"field_name"`
	FieldValue string    `json:"field_value"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DocumentField) TableName() string { return "document_fields" }

// Field is one extracted (name, value) pair in document order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FieldsToMap flattens an ordered field list into a name->value mapping.
// Repeated names collapse last-write-wins; callers that need the full
// multiset should read the slice instead.
func FieldsToMap(fields []DocumentField) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.FieldName] = f.FieldValue
	}
	return m
}

// ListFilter narrows a document listing. Limit and Offset are applied
// as given; callers cap them.
type ListFilter struct {
	Query  string
	Type   DocumentType
	Limit  int
	Offset int
}

// Statistics is the aggregate view served by GET /statistics.
type Statistics struct {
	TotalDocuments int64                  `json:"total_documents"`
	ByType         map[DocumentType]int64 `json:"by_type"`
	DailyCounts    []DailyCount           `json:"daily_counts"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
