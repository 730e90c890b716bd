package models

type UtilityType string

const (
	UtilityElectricity UtilityType = "ELECTRICITY"
	UtilityWater       UtilityType = "WATER"
	UtilityGas         UtilityType = "GAS"
)

type ReadingSource string

const (
	ReadingSourceManual     ReadingSource = "MANUAL"
	ReadingSourceSmartMeter ReadingSource = "SMART_METER"
	ReadingSourceEstimated  ReadingSource = "ESTIMATED"
	ReadingSourceCorrected  ReadingSource = "CORRECTED"
)

type ConnectionStatus string

const (
	ConnectionActive       ConnectionStatus = "ACTIVE"
	ConnectionDisconnected ConnectionStatus = "DISCONNECTED"
	ConnectionSuspended    ConnectionStatus = "SUSPENDED"
)

type TaxStatus string

const (
	TaxActive   TaxStatus = "ACTIVE"
	TaxInactive TaxStatus = "INACTIVE"
)

type BillStatus string

const (
	BillActive BillStatus = "ACTIVE"
	BillVoid   BillStatus = "VOID"
)

func IsValidReadingSource(source ReadingSource) bool {
	switch source {
	case ReadingSourceManual, ReadingSourceSmartMeter, ReadingSourceEstimated, ReadingSourceCorrected:
		return true
	default:
		return false
	}
}

func IsValidUtilityType(utility UtilityType) bool {
	switch utility {
	case UtilityElectricity, UtilityWater, UtilityGas:
		return true
	default:
		return false
	}
}
