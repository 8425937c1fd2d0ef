package ingest

import (
	"strings"
	"testing"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSalesCSV(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,model,quantity_sold",
		"2024-03-01,Acme,X1,5",
		"2024-03-02,Acme,X1,7",
		"2024-03-01,Zenith,Z9,2",
	}, "\n")

	records, err := ReadSalesCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Acme", records[0].Brand)
	assert.Equal(t, "X1", records[0].Model)
	assert.Equal(t, 5.0, records[0].QuantitySold)
	assert.Equal(t, "2024-03-01", records[0].Date.Format(domain.DateLayout))
}

func TestReadSalesCSVNormalizesHeaders(t *testing.T) {
	csv := strings.Join([]string{
		"Date,BRAND,Model,Quantity Sold",
		"2024-03-01,Acme,X1,5",
	}, "\n")

	records, err := ReadSalesCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 5.0, records[0].QuantitySold)
}

func TestReadSalesCSVSumsDuplicateRows(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,model,quantity_sold",
		"2024-03-01,Acme,X1,5",
		"2024-03-01,Acme,X1,3",
	}, "\n")

	records, err := ReadSalesCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 8.0, records[0].QuantitySold)
}

func TestReadSalesCSVAlternateDateFormats(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,model,quantity_sold",
		"2024/03/01,Acme,X1,5",
		"02-03-2024,Acme,X1,6",
	}, "\n")

	records, err := ReadSalesCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-01", records[0].Date.Format(domain.DateLayout))
	assert.Equal(t, "2024-03-02", records[1].Date.Format(domain.DateLayout))
}

func TestReadSalesCSVMissingColumn(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,quantity_sold",
		"2024-03-01,Acme,5",
	}, "\n")

	_, err := ReadSalesCSV(strings.NewReader(csv))
	assert.True(t, domain.IsInvalidInput(err))
}

func TestReadSalesCSVBadDate(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,model,quantity_sold",
		"not-a-date,Acme,X1,5",
	}, "\n")

	_, err := ReadSalesCSV(strings.NewReader(csv))
	assert.True(t, domain.IsInvalidInput(err))
}

func TestReadSalesCSVBadQuantity(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,model,quantity_sold",
		"2024-03-01,Acme,X1,lots",
	}, "\n")

	_, err := ReadSalesCSV(strings.NewReader(csv))
	assert.True(t, domain.IsInvalidInput(err))
}

func TestReadSalesCSVNegativeQuantity(t *testing.T) {
	csv := strings.Join([]string{
		"date,brand,model,quantity_sold",
		"2024-03-01,Acme,X1,-2",
	}, "\n")

	_, err := ReadSalesCSV(strings.NewReader(csv))
	assert.True(t, domain.IsInvalidInput(err))
}

func TestReadSalesCSVEmptyBody(t *testing.T) {
	_, err := ReadSalesCSV(strings.NewReader("date,brand,model,quantity_sold\n"))
	assert.ErrorIs(t, err, domain.ErrEmptySeries)
}
