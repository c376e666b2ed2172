package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
)

func TestResolveDocumentID(t *testing.T) {
	t.Parallel()

	t.Run("strips path and extension", func(t *testing.T) {
		t.Parallel()
		id, err := ResolveDocumentID("uploads/sample-invoice-001.pdf")
		require.NoError(t, err)
		assert.Equal(t, "sample-invoice-001", id)
	})

	t.Run("deterministic for the same key", func(t *testing.T) {
		t.Parallel()
		a, err := ResolveDocumentID("uploads/cylinder log jan.pdf")
		require.NoError(t, err)
		b, err := ResolveDocumentID("uploads/cylinder log jan.pdf")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, "cylinder-log-jan", a)
	})

	t.Run("key without usable stem fails", func(t *testing.T) {
		t.Parallel()
		for _, key := range []string{"uploads/.pdf", "uploads/", "", "   .png"} {
			_, err := ResolveDocumentID(key)
			assert.ErrorIs(t, err, entity.ErrUnresolvableDocumentID, "key: %q", key)
		}
	})
}

func TestClassifyDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		text     string
		want     entity.DocumentType
	}{
		{"invoice by file name", "acme-invoice-march.pdf", "", entity.TypeInvoice},
		{"cylinder log by file name", "cylinder log jan.pdf", "", entity.TypeCylinderInventory},
		{"log keyword wins over body", "daily-log.pdf", "invoice", entity.TypeCylinderInventory},
		{"contract by body", "scan0042.pdf", "This Agreement is made between", entity.TypeContract},
		{"cylinder sections by body", "scan0042.pdf", "FILLED CYLINDERS EMPTY CYLINDERS", entity.TypeCylinderInventory},
		{"report by file name", "annual-report.pdf", "", entity.TypeReport},
		{"nothing recognized", "scan0042.pdf", "lorem ipsum", entity.TypeUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyDocument(tt.fileName, tt.text))
		})
	}
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	t.Run("non-pdf counts as one page", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1, PageCount([]byte("png bytes"), "uploads/scan.png"))
	})

	t.Run("unreadable pdf falls back to one page", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1, PageCount([]byte("not a pdf"), "uploads/broken.pdf"))
	})
}

func TestNormalizeFieldName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "invoice_number", NormalizeFieldName("Invoice Number"))
	assert.Equal(t, "total_amount", NormalizeFieldName("  Total / Amount: "))
	assert.Equal(t, "opening_stock", NormalizeFieldName("Opening Stock"))
	assert.Equal(t, "", NormalizeFieldName("---"))
}

func TestMapFields(t *testing.T) {
	t.Parallel()

	t.Run("invoice key-values map to canonical names", func(t *testing.T) {
		t.Parallel()
		result := entity.ExtractionResult{
			KeyValues: []entity.KeyValue{
				{Key: "Invoice No", Value: "INV-12345"},
				{Key: "Grand Total", Value: "1250.00"},
				{Key: "Supplier", Value: "DNSC"},
			},
		}
		fields := MapFields(entity.TypeInvoice, result, MapperConfig{})
		assert.Equal(t, []entity.Field{
			{Name: "invoice_number", Value: "INV-12345"},
			{Name: "total_amount", Value: "1250.00"},
			{Name: "vendor", Value: "DNSC"},
		}, fields)
	})

	t.Run("unmapped key-values dropped by default", func(t *testing.T) {
		t.Parallel()
		result := entity.ExtractionResult{
			KeyValues: []entity.KeyValue{{Key: "Fax Number", Value: "555"}},
		}
		assert.Empty(t, MapFields(entity.TypeInvoice, result, MapperConfig{}))
	})

	t.Run("unmapped key-values retained when configured", func(t *testing.T) {
		t.Parallel()
		result := entity.ExtractionResult{
			KeyValues: []entity.KeyValue{{Key: "Fax Number", Value: "555"}},
		}
		fields := MapFields(entity.TypeInvoice, result, MapperConfig{KeepUnmapped: true})
		assert.Equal(t, []entity.Field{{Name: "fax_number", Value: "555"}}, fields)
	})

	t.Run("table rows repeat header-named fields per row", func(t *testing.T) {
		t.Parallel()
		result := entity.ExtractionResult{
			Tables: []entity.Table{{Rows: [][]string{
				{"Date", "Opening Stock", "Closing Stock"},
				{"01/01/16", "210", "108"},
				{"02/01/16", "108", "245"},
			}}},
		}
		fields := MapFields(entity.TypeCylinderInventory, result, MapperConfig{})
		assert.Equal(t, []entity.Field{
			{Name: "date", Value: "01/01/16"},
			{Name: "opening_stock", Value: "210"},
			{Name: "closing_stock", Value: "108"},
			{Name: "date", Value: "02/01/16"},
			{Name: "opening_stock", Value: "108"},
			{Name: "closing_stock", Value: "245"},
		}, fields)
	})

	t.Run("header-only tables contribute nothing", func(t *testing.T) {
		t.Parallel()
		result := entity.ExtractionResult{
			Tables: []entity.Table{{Rows: [][]string{{"Date", "Opening Stock"}}}},
		}
		assert.Empty(t, MapFields(entity.TypeCylinderInventory, result, MapperConfig{}))
	})

	t.Run("ragged rows ignore cells past the header", func(t *testing.T) {
		t.Parallel()
		result := entity.ExtractionResult{
			Tables: []entity.Table{{Rows: [][]string{
				{"Date"},
				{"01/01/16", "stray"},
			}}},
		}
		fields := MapFields(entity.TypeCylinderInventory, result, MapperConfig{})
		assert.Equal(t, []entity.Field{{Name: "date", Value: "01/01/16"}}, fields)
	})
}
