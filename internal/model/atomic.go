package model

// AtomicType is the type ColumnProfiler assigns to a single cell or column.
type AtomicType string

const (
	TypeDate        AtomicType = "date"
	TypeAmount      AtomicType = "currency/amount"
	TypeNumber      AtomicType = "plain number"
	TypePercentage  AtomicType = "percentage"
	TypeEmail       AtomicType = "email address"
	TypePhone       AtomicType = "phone number"
	TypeURL         AtomicType = "URL"
	TypeCountry     AtomicType = "country name or code"
	TypeCurrency    AtomicType = "currency code"
	TypeName        AtomicType = "name"
	TypeCategorical AtomicType = "categorical"
	TypeFreeText    AtomicType = "free text"
	TypeBoolean     AtomicType = "boolean"
	TypeID          AtomicType = "ID/code"
	TypeUnknown     AtomicType = "unknown"
)

// AtomicTypes lists every type in report order.
var AtomicTypes = []AtomicType{
	TypeDate,
	TypeAmount,
	TypeNumber,
	TypePercentage,
	TypeEmail,
	TypePhone,
	TypeURL,
	TypeCountry,
	TypeCurrency,
	TypeName,
	TypeCategorical,
	TypeFreeText,
	TypeBoolean,
	TypeID,
	TypeUnknown,
}
