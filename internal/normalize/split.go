package normalize

import (
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// SplitAmountCurrency moves currency markers embedded in the amount cell into
// an empty currency cell, and recovers an amount typed into the currency
// cell when the amount cell is blank. Negative indexes disable the split.
func SplitAmountCurrency(row []string, rowNum int, headers []string, amountIdx, currencyIdx int) ([]string, []model.Change) {
	if amountIdx < 0 || currencyIdx < 0 || amountIdx >= len(row) || currencyIdx >= len(row) {
		return row, nil
	}
	row = append([]string(nil), row...)
	amountLabel := model.ColumnLabel(headers, amountIdx)
	currencyLabel := model.ColumnLabel(headers, currencyIdx)

	var changes []model.Change
	amountVal, currencyVal := row[amountIdx], row[currencyIdx]

	if amount, code := ExtractCurrency(amountVal); code != "" && strings.TrimSpace(currencyVal) == "" {
		if amount != "" && amount != amountVal {
			row[amountIdx] = amount
			changes = append(changes, model.Change{
				Row: rowNum, Column: amountLabel, OldValue: amountVal, NewValue: amount,
				Action: model.ActionFixed,
				Reason: "Currency marker removed from amount-like field so the numeric value can be parsed cleanly",
			})
		}
		row[currencyIdx] = code
		changes = append(changes, model.Change{
			Row: rowNum, Column: currencyLabel, OldValue: currencyVal, NewValue: code,
			Action: model.ActionFixed, Reason: "Currency recovered from amount-like field",
		})
		currencyVal = code
	}

	if strings.TrimSpace(row[amountIdx]) == "" && strings.TrimSpace(currencyVal) != "" {
		amount, code := ExtractCurrency(currencyVal)
		if amount != "" {
			row[amountIdx] = amount
			changes = append(changes, model.Change{
				Row: rowNum, Column: amountLabel, NewValue: amount,
				Action: model.ActionFixed, Reason: "Amount recovered from currency-like field",
			})
			if code != "" {
				row[currencyIdx] = code
				changes = append(changes, model.Change{
					Row: rowNum, Column: currencyLabel, OldValue: currencyVal, NewValue: code,
					Action: model.ActionFixed,
					Reason: "Currency standardised after recovering combined amount/currency text",
				})
			}
		}
	}
	return row, changes
}
