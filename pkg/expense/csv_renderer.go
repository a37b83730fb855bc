package expense

import (
	"bytes"
	"encoding/csv"

	"github.com/klokku/spendwise/pkg/budget"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/klokku/spendwise/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	RenderExpenses(records []ledger.Record) (string, error)
}

type CsvRendererImpl struct{}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderExpenses writes one row per record in ledger order, preceded by a header and
// followed by a total row.
func (r *CsvRendererImpl) RenderExpenses(records []ledger.Record) (string, error) {
	data := make([][]string, 0, len(records)+2)
	data = append(data, []string{"Date", "Amount", "Description"})
	for _, record := range records {
		data = append(data, []string{
			record.Date.Format(ledger.DateLayout),
			currency.Plain(record.Amount),
			record.Description,
		})
	}
	data = append(data, []string{"Total", currency.Plain(budget.TotalSpent(records)), ""})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
