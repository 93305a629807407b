package domain

// ClientProfile holds the synthetic client attributes for one sample.
type ClientProfile struct {
	Age           int     `json:"age"`
	MonthlyIncome float64 `json:"monthlyIncome"`
	CreditScore   int     `json:"creditScore"`
}

// TransactionRecord holds the synthetic transaction attributes for one
// sample. The same shape arrives later in live /predict requests.
type TransactionRecord struct {
	Amount          float64 `json:"amount"`
	HourOfDay       int     `json:"hourOfDay"`
	IsInternational bool    `json:"isInternational"`
}

// TrainingRow is one labeled sample: a client profile joined with a
// transaction, plus the derived risk score and fraud label.
type TrainingRow struct {
	ClientProfile
	TransactionRecord

	RiskScore float64 `json:"riskScore"`
	IsFraud   bool    `json:"isFraud"`
}

// Features returns the row as an ordered feature vector.
func (r TrainingRow) Features() FeatureVector {
	return FeatureVector{
		Age:             float64(r.Age),
		MonthlyIncome:   r.MonthlyIncome,
		CreditScore:     float64(r.CreditScore),
		Amount:          r.Amount,
		HourOfDay:       float64(r.HourOfDay),
		IsInternational: r.IsInternational,
	}
}

// Dataset is the full generated sample set. It exists only for the
// duration of training and is discarded afterwards.
type Dataset []TrainingRow

// FeatureMatrix returns one ordered feature slice per row.
func (d Dataset) FeatureMatrix() [][]float64 {
	features := make([][]float64, len(d))
	for i, row := range d {
		features[i] = row.Features().Ordered()
	}
	return features
}

// Labels returns the fraud labels in row order.
func (d Dataset) Labels() []bool {
	labels := make([]bool, len(d))
	for i, row := range d {
		labels[i] = row.IsFraud
	}
	return labels
}

// FraudRate returns the fraction of positive labels.
func (d Dataset) FraudRate() float64 {
	if len(d) == 0 {
		return 0
	}
	positives := 0
	for _, row := range d {
		if row.IsFraud {
			positives++
		}
	}
	return float64(positives) / float64(len(d))
}
