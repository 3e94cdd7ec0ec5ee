package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// LabelRow is one selected variant with its label quantity.
type LabelRow struct {
	VariantTitle string `json:"variant_title" validate:"required"`
	SKU          string `json:"sku"`
	Barcode      string `json:"barcode"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity" validate:"required,min=1"`
}

// ValidateRows checks the selection before an export is issued.
func ValidateRows(rows []LabelRow) error {
	if len(rows) == 0 {
		return ErrValidation.Msg("at least one label row is required")
	}
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			return ErrValidation.MsgErr("invalid label row "+strconv.Itoa(i), err)
		}
	}
	return nil
}

// BuildPayload serializes rows into the payload stored with the token.
func BuildPayload(rows []LabelRow) ([]byte, error) {
	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, ErrValidation.Err(err)
	}
	return payload, nil
}

// RenderCSV turns a stored payload back into the label sheet: a header line,
// then one line per label copy, so a row with quantity 3 appears three times.
func RenderCSV(payload []byte) ([]byte, error) {
	var rows []LabelRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, ErrValidation.MsgErr("payload is not a label row list", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Title", "SKU", "Barcode", "Price"}); err != nil {
		return nil, ErrPersistence.Err(err)
	}
	for _, row := range rows {
		for i := 0; i < row.Quantity; i++ {
			if err := w.Write([]string{row.VariantTitle, row.SKU, row.Barcode, row.Price}); err != nil {
				return nil, ErrPersistence.Err(err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, ErrPersistence.Err(err)
	}
	return buf.Bytes(), nil
}
